package gillespie

import (
	"context"
	"fmt"
	"math"
)

// Trajectory is a bounded event history. Snapshots are stored densely with an
// explicit valid length; capacity beyond Len is never exposed.
type Trajectory struct {
	species  int
	capacity int
	times    []float64
	counts   []float64

	Stop           StopReason
	DrawsUsed      int
	SelectionDraws int
}

const initialBufferHint = 256

// NewTrajectory allocates an empty history for species counts and at most
// capacity snapshots.
func NewTrajectory(species, capacity int) *Trajectory {
	hint := capacity
	if hint > initialBufferHint {
		hint = initialBufferHint
	}
	return &Trajectory{
		species:  species,
		capacity: capacity,
		times:    make([]float64, 0, hint),
		counts:   make([]float64, 0, hint*species),
	}
}

func (t *Trajectory) Len() int     { return len(t.times) }
func (t *Trajectory) Cap() int     { return t.capacity }
func (t *Trajectory) Species() int { return t.species }
func (t *Trajectory) Full() bool   { return len(t.times) >= t.capacity }

// Append records a snapshot and reports whether there was room for it.
func (t *Trajectory) Append(time float64, counts Counts) bool {
	if t.Full() || len(counts) != t.species {
		return false
	}
	t.times = append(t.times, time)
	t.counts = append(t.counts, counts...)
	return true
}

func (t *Trajectory) Time(i int) float64 { return t.times[i] }

// Counts returns a read-only view of snapshot i.
func (t *Trajectory) Counts(i int) Counts {
	return Counts(t.counts[i*t.species : (i+1)*t.species : (i+1)*t.species])
}

// Times returns a copy of the recorded times.
func (t *Trajectory) Times() []float64 {
	out := make([]float64, len(t.times))
	copy(out, t.times)
	return out
}

// Column returns a copy of species j over all snapshots.
func (t *Trajectory) Column(j int) []float64 {
	out := make([]float64, len(t.times))
	for i := range out {
		out[i] = t.counts[i*t.species+j]
	}
	return out
}

// Last returns the final valid snapshot.
func (t *Trajectory) Last() (float64, Counts, bool) {
	n := len(t.times)
	if n == 0 {
		return 0, nil, false
	}
	return t.times[n-1], t.Counts(n - 1), true
}

const ctxCheckInterval = 1024

// Simulate advances one trajectory from x0 until the final time, an absorbing
// state, or the event capacity is reached. x0 is never modified. A run needs
// at most MaxEvents-1 draws from each stream; a stream that runs dry earlier
// ends the run with ErrStreamExhausted and the partial trajectory.
func Simulate(ctx context.Context, net Network, x0 Counts, p Params, streams Streams) (*Trajectory, error) {
	if err := net.Validate(); err != nil {
		return nil, err
	}
	if err := net.ValidateInitial(x0); err != nil {
		return nil, err
	}
	if p.MaxEvents < 1 {
		return nil, configErrorf("max_events", "must be at least 1, got %d", p.MaxEvents)
	}
	return simulate(ctx, net, x0, p, streams)
}

func simulate(ctx context.Context, net Network, x0 Counts, p Params, streams Streams) (*Trajectory, error) {
	tr := NewTrajectory(net.NumSpecies(), p.MaxEvents)
	x := x0.Clone()
	t := 0.0
	tr.Append(t, x)

	a := make([]float64, net.NumReactions())

	for step := 0; ; step++ {
		if step%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return tr, err
			}
		}

		if tr.Full() {
			tr.Stop = StoppedMaxEvents
			break
		}

		a = Propensities(net, x, a)
		a0 := sum(a)
		if !(a0 > 0) {
			tr.Stop = StoppedNoReaction
			break
		}

		u := streams.Waiting.Float64()
		if math.IsNaN(u) {
			return tr, fmt.Errorf("waiting draw %d: %w", tr.DrawsUsed+1, ErrStreamExhausted)
		}
		tr.DrawsUsed++
		tau := -math.Log(u) / a0
		next := t + tau
		if next > p.FinalTime {
			tr.Stop = StoppedFinalTime
			break
		}

		us := streams.Selection.Float64()
		if math.IsNaN(us) {
			return tr, fmt.Errorf("selection draw %d: %w", tr.SelectionDraws+1, ErrStreamExhausted)
		}
		idx := SelectReaction(a, a0, us)
		tr.SelectionDraws++
		for j, d := range net.Delta[idx] {
			x[j] += float64(d)
		}
		t = next
		tr.Append(t, x)
	}

	return tr, nil
}

func sum(a []float64) float64 {
	total := 0.0
	for _, v := range a {
		total += v
	}
	return total
}
