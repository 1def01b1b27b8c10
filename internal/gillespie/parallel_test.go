package gillespie

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRunner_ProducesEveryRun(t *testing.T) {
	p := Params{FinalTime: 2, MaxEvents: 500, Runs: 64, Seed: 99, Workers: 4}

	var seen atomic.Int64
	r := NewRunner(p.Workers)
	r.AddObserver(ObserverFunc(func(run int, tr *Trajectory) { seen.Add(1) }))

	ens, err := r.Run(context.Background(), dimerNetwork(), Counts{100, 0}, p)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if ens.Len() != p.Runs {
		t.Fatalf("expected %d trajectories, got %d", p.Runs, ens.Len())
	}
	for i, tr := range ens.Trajectories {
		if tr == nil || tr.Len() == 0 {
			t.Fatalf("trajectory %d is empty", i)
		}
		if tr.Time(0) != 0 || tr.Counts(0)[0] != 100 {
			t.Errorf("trajectory %d does not start at the initial condition", i)
		}
	}
	if seen.Load() != int64(p.Runs) {
		t.Errorf("observer saw %d runs, want %d", seen.Load(), p.Runs)
	}
}

func TestRunner_IndependentOfWorkerCount(t *testing.T) {
	base := Params{FinalTime: 3, MaxEvents: 300, Runs: 16, Seed: 5}

	serial := base
	serial.Workers = 1
	parallel := base
	parallel.Workers = 8

	a, err := SimulateEnsemble(context.Background(), dimerNetwork(), Counts{80, 5}, serial)
	if err != nil {
		t.Fatalf("serial run failed: %v", err)
	}
	b, err := SimulateEnsemble(context.Background(), dimerNetwork(), Counts{80, 5}, parallel)
	if err != nil {
		t.Fatalf("parallel run failed: %v", err)
	}

	opts := []cmp.Option{cmp.AllowUnexported(Trajectory{}), cmp.Comparer(func(x, y Params) bool { return x.Seed == y.Seed })}
	if diff := cmp.Diff(a, b, opts...); diff != "" {
		t.Errorf("ensembles differ by worker count (-serial +parallel):\n%s", diff)
	}
}

func TestRunner_RunsDiffer(t *testing.T) {
	p := Params{FinalTime: 1000, MaxEvents: 100, Runs: 8, Seed: 1}
	ens, err := SimulateEnsemble(context.Background(), decayNetwork(1), Counts{20}, p)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	first, _, _ := ens.Trajectories[0].Last()
	distinct := false
	for _, tr := range ens.Trajectories[1:] {
		if tm, _, _ := tr.Last(); tm != first {
			distinct = true
		}
	}
	if !distinct {
		t.Error("expected independent runs to produce different histories")
	}
}

func TestRunner_Validation(t *testing.T) {
	tests := []struct {
		name    string
		x0      Counts
		p       Params
		wantErr error
	}{
		{"zero runs", Counts{1, 1}, Params{FinalTime: 1, MaxEvents: 5, Runs: 0}, ErrInvalidParameter},
		{"negative runs", Counts{1, 1}, Params{FinalTime: 1, MaxEvents: 5, Runs: -3}, ErrInvalidParameter},
		{"zero capacity", Counts{1, 1}, Params{FinalTime: 1, MaxEvents: 0, Runs: 1}, ErrConfiguration},
		{"negative final time", Counts{1, 1}, Params{FinalTime: -1, MaxEvents: 5, Runs: 1}, ErrConfiguration},
		{"initial length", Counts{1}, Params{FinalTime: 1, MaxEvents: 5, Runs: 1}, ErrConfiguration},
		{"negative initial", Counts{-1, 1}, Params{FinalTime: 1, MaxEvents: 5, Runs: 1}, ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SimulateEnsemble(context.Background(), dimerNetwork(), tt.x0, tt.p)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRunner_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Params{FinalTime: 10, MaxEvents: 100, Runs: 10, Seed: 1}
	ens, err := SimulateEnsemble(ctx, dimerNetwork(), Counts{10, 0}, p)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if ens != nil {
		t.Error("expected no ensemble after cancellation")
	}
}

func TestRunStreams_DisjointPerRun(t *testing.T) {
	a := RunStreams(7, 0, 4)
	b := RunStreams(7, 1, 4)
	c := RunStreams(7, 0, 4)

	if a.Waiting.Float64() == b.Waiting.Float64() {
		t.Error("expected different runs to draw different waiting times")
	}
	if a.Selection.Float64() != c.Selection.Float64() {
		t.Error("expected the same run to reproduce its selection stream")
	}

	blk := RunStreams(7, 2, 3).Waiting.(*Block)
	for i := 0; i < 3; i++ {
		u := blk.Float64()
		if u <= 0 || u >= 1 {
			t.Fatalf("draw %v outside (0,1)", u)
		}
	}
	if blk.Used() != 3 || blk.Len() != 3 {
		t.Errorf("expected 3 used of 3, got %d of %d", blk.Used(), blk.Len())
	}
}
