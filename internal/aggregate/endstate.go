package aggregate

import (
	"github.com/san-kum/ssasim/internal/gillespie"
)

// EndStateSample holds the last snapshot of every trajectory: Time[r] and
// Counts[j][r] for run r and species j.
type EndStateSample struct {
	Species []string
	Time    []float64
	Counts  [][]float64
}

func (e *EndStateSample) Runs() int { return len(e.Time) }

// Column returns the end-state sample of the named species.
func (e *EndStateSample) Column(species string) ([]float64, bool) {
	for j, name := range e.Species {
		if name == species {
			return e.Counts[j], true
		}
	}
	return nil, false
}

// EndStates collects the final valid snapshot of each trajectory.
func EndStates(ens *gillespie.Ensemble) (*EndStateSample, error) {
	if err := checkEnsemble(ens); err != nil {
		return nil, err
	}

	runs := ens.Len()
	s := len(ens.Species)
	out := &EndStateSample{
		Species: append([]string(nil), ens.Species...),
		Time:    make([]float64, runs),
		Counts:  make([][]float64, s),
	}
	for j := range out.Counts {
		out.Counts[j] = make([]float64, runs)
	}

	for r, tr := range ens.Trajectories {
		t, counts, _ := tr.Last()
		out.Time[r] = t
		for j := 0; j < s; j++ {
			out.Counts[j][r] = counts[j]
		}
	}
	return out, nil
}
