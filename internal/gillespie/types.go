package gillespie

import (
	"math"
)

// Counts holds species amounts, indexed like Network.Species.
type Counts []float64

func (c Counts) Clone() Counts {
	out := make(Counts, len(c))
	copy(out, c)
	return out
}

func (c Counts) IsValid() bool {
	for _, v := range c {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	return true
}

// Network is an immutable reaction network. Row i of Reactants and Delta
// describes reaction i; column j refers to Species[j].
type Network struct {
	Species   []string
	Rates     []float64
	Reactants [][]int
	Delta     [][]int
}

func (n Network) NumSpecies() int   { return len(n.Species) }
func (n Network) NumReactions() int { return len(n.Rates) }

// Validate checks the shape invariants shared by every trajectory.
func (n Network) Validate() error {
	s := len(n.Species)
	r := len(n.Rates)
	if s == 0 {
		return configErrorf("species", "at least one species is required")
	}
	if r == 0 {
		return configErrorf("rates", "at least one reaction is required")
	}

	seen := make(map[string]struct{}, s)
	for _, name := range n.Species {
		if name == "" {
			return configErrorf("species", "species names must be non-empty")
		}
		if _, dup := seen[name]; dup {
			return configErrorf("species", "duplicate species %q", name)
		}
		seen[name] = struct{}{}
	}

	for i, k := range n.Rates {
		if math.IsNaN(k) || math.IsInf(k, 0) || k < 0 {
			return configErrorf("rates", "rate constant %d must be a finite non-negative number, got %g", i, k)
		}
	}

	if len(n.Reactants) != len(n.Delta) {
		return configErrorf("stoichiometry", "reactant and product matrices must be the same size (%d vs %d rows)", len(n.Reactants), len(n.Delta))
	}
	if len(n.Reactants) != r {
		return configErrorf("stoichiometry", "expected %d rows (one per rate constant), got %d", r, len(n.Reactants))
	}
	for i := 0; i < r; i++ {
		if len(n.Reactants[i]) != len(n.Delta[i]) {
			return configErrorf("stoichiometry", "reactant and product matrices must be the same size (row %d: %d vs %d)", i, len(n.Reactants[i]), len(n.Delta[i]))
		}
		if len(n.Reactants[i]) != s {
			return configErrorf("stoichiometry", "row %d has %d columns, expected %d (one per species)", i, len(n.Reactants[i]), s)
		}
		for j, k := range n.Reactants[i] {
			if k < 0 {
				return configErrorf("stoichiometry", "reactant coefficient (%d,%d) must be non-negative, got %d", i, j, k)
			}
		}
	}
	return nil
}

// ValidateInitial checks that x0 fits the network.
func (n Network) ValidateInitial(x0 Counts) error {
	if len(x0) != len(n.Species) {
		return configErrorf("initial_counts", "must be same size as species (%d vs %d)", len(x0), len(n.Species))
	}
	if !x0.IsValid() {
		return configErrorf("initial_counts", "amounts must be finite and non-negative")
	}
	return nil
}

// Params bounds an ensemble. Workers <= 0 selects GOMAXPROCS.
type Params struct {
	FinalTime float64
	MaxEvents int
	Runs      int
	Seed      int64
	Workers   int
}

func (p Params) Validate() error {
	if math.IsNaN(p.FinalTime) || p.FinalTime < 0 {
		return configErrorf("final_time", "must be non-negative, got %g", p.FinalTime)
	}
	if p.MaxEvents < 1 {
		return configErrorf("max_events", "must be at least 1 to hold the initial snapshot, got %d", p.MaxEvents)
	}
	if p.Runs <= 0 {
		return &ParamError{Name: "runs", Value: float64(p.Runs), Reason: "must be positive"}
	}
	return nil
}

// StopReason records why a trajectory stopped.
type StopReason int

const (
	Running StopReason = iota
	StoppedFinalTime
	StoppedNoReaction
	StoppedMaxEvents
)

func (s StopReason) String() string {
	switch s {
	case Running:
		return "running"
	case StoppedFinalTime:
		return "final_time"
	case StoppedNoReaction:
		return "no_reaction"
	case StoppedMaxEvents:
		return "max_events"
	default:
		return "unknown"
	}
}

// Ensemble is the set of trajectories simulated from one network and
// initial condition.
type Ensemble struct {
	Species      []string
	Params       Params
	Trajectories []*Trajectory
}

func (e *Ensemble) Len() int { return len(e.Trajectories) }

// Observer is notified once per finished trajectory. Calls may arrive
// concurrently from several workers.
type Observer interface {
	OnTrajectory(run int, tr *Trajectory)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(run int, tr *Trajectory)

func (f ObserverFunc) OnTrajectory(run int, tr *Trajectory) { f(run, tr) }
