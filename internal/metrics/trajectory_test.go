package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/ssasim/internal/gillespie"
)

func trajectory(times []float64, stop gillespie.StopReason, draws int) *gillespie.Trajectory {
	tr := gillespie.NewTrajectory(1, len(times))
	for i, t := range times {
		tr.Append(t, gillespie.Counts{float64(i)})
	}
	tr.Stop = stop
	tr.DrawsUsed = draws
	return tr
}

func TestCollect(t *testing.T) {
	ens := &gillespie.Ensemble{
		Species: []string{"A"},
		Trajectories: []*gillespie.Trajectory{
			trajectory([]float64{0, 1, 2}, gillespie.StoppedNoReaction, 2),
			trajectory([]float64{0, 0.5, 1.5, 3}, gillespie.StoppedFinalTime, 4),
			trajectory([]float64{0}, gillespie.StoppedMaxEvents, 0),
			trajectory([]float64{0, 4}, gillespie.StoppedNoReaction, 1),
		},
	}

	got := Collect(ens, Default())
	want := map[string]float64{
		"mean_events":        (2.0 + 3 + 0 + 1) / 4,
		"absorbed_fraction":  0.5,
		"truncated_fraction": 0.25,
		"mean_end_time":      (2.0 + 3 + 0 + 4) / 4,
		"mean_waiting_draws": (2.0 + 4 + 0 + 1) / 4,
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d metrics, got %d", len(want), len(got))
	}
	for name, v := range want {
		if math.Abs(got[name]-v) > 1e-12 {
			t.Errorf("%s = %v, want %v", name, got[name], v)
		}
	}
}

func TestMetricReset(t *testing.T) {
	m := NewMeanEvents()
	m.Observe(trajectory([]float64{0, 1, 2}, gillespie.StoppedFinalTime, 3))
	if m.Value() == 0 {
		t.Error("expected non-zero value")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}
