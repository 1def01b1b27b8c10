package aggregate

import (
	"sort"

	"github.com/san-kum/ssasim/internal/gillespie"
)

// Pooled is the combined snapshot table of an ensemble in ascending time.
// Columns[0] holds times, Columns[j+1] species j.
type Pooled struct {
	Species []string
	Columns [][]float64
}

func (p *Pooled) Len() int {
	if len(p.Columns) == 0 {
		return 0
	}
	return len(p.Columns[0])
}

func (p *Pooled) Times() []float64 { return p.Columns[0] }

// Pool merges the valid snapshots of every trajectory and sorts them by time.
// Ties keep run order.
func Pool(ens *gillespie.Ensemble) (*Pooled, error) {
	if err := checkEnsemble(ens); err != nil {
		return nil, err
	}

	type ref struct {
		time float64
		tr   int
		snap int
	}

	total := 0
	for _, tr := range ens.Trajectories {
		total += tr.Len()
	}
	refs := make([]ref, 0, total)
	for i, tr := range ens.Trajectories {
		for k := 0; k < tr.Len(); k++ {
			refs = append(refs, ref{time: tr.Time(k), tr: i, snap: k})
		}
	}
	sort.SliceStable(refs, func(a, b int) bool { return refs[a].time < refs[b].time })

	s := len(ens.Species)
	cols := make([][]float64, s+1)
	for j := range cols {
		cols[j] = make([]float64, len(refs))
	}
	for row, r := range refs {
		cols[0][row] = r.time
		counts := ens.Trajectories[r.tr].Counts(r.snap)
		for j := 0; j < s; j++ {
			cols[j+1][row] = counts[j]
		}
	}

	species := make([]string, s)
	copy(species, ens.Species)
	return &Pooled{Species: species, Columns: cols}, nil
}

func checkEnsemble(ens *gillespie.Ensemble) error {
	if ens == nil || ens.Len() == 0 {
		return &gillespie.ConfigError{Field: "ensemble", Reason: "must contain at least one trajectory"}
	}
	for _, tr := range ens.Trajectories {
		if tr == nil || tr.Len() == 0 {
			return &gillespie.ConfigError{Field: "ensemble", Reason: "trajectory has no snapshots"}
		}
		if tr.Species() != len(ens.Species) {
			return &gillespie.ConfigError{Field: "ensemble", Reason: "trajectory width does not match species"}
		}
	}
	return nil
}
