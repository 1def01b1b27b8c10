package gillespie

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Runner simulates ensembles on a bounded pool of workers.
type Runner struct {
	workers   int
	observers []Observer
}

// NewRunner returns a runner using up to workers goroutines; workers <= 0
// selects GOMAXPROCS.
func NewRunner(workers int) *Runner {
	return &Runner{workers: workers, observers: make([]Observer, 0)}
}

func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// Run validates the inputs and then simulates p.Runs independent trajectories
// from x0. Cancelling ctx stops dispatching further runs; the partial ensemble
// is discarded.
func (r *Runner) Run(ctx context.Context, net Network, x0 Counts, p Params) (*Ensemble, error) {
	if err := net.Validate(); err != nil {
		return nil, err
	}
	if err := net.ValidateInitial(x0); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	initial := x0.Clone()
	trajectories := make([]*Trajectory, p.Runs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workerCount(p.Runs))

	for i := 0; i < p.Runs; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			tr, err := simulate(gctx, net, initial, p, RunStreams(p.Seed, i, p.MaxEvents))
			if err != nil {
				return err
			}
			trajectories[i] = tr
			for _, o := range r.observers {
				o.OnTrajectory(i, tr)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	species := make([]string, len(net.Species))
	copy(species, net.Species)

	return &Ensemble{Species: species, Params: p, Trajectories: trajectories}, nil
}

func (r *Runner) workerCount(runs int) int {
	workers := r.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > runs {
		workers = runs
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// SimulateEnsemble runs p.Runs trajectories with p.Workers workers.
func SimulateEnsemble(ctx context.Context, net Network, x0 Counts, p Params) (*Ensemble, error) {
	return NewRunner(p.Workers).Run(ctx, net, x0, p)
}
