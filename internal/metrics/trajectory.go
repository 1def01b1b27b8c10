package metrics

import (
	"github.com/san-kum/ssasim/internal/gillespie"
)

// Metric summarizes finished trajectories one at a time.
type Metric interface {
	Name() string
	Observe(tr *gillespie.Trajectory)
	Value() float64
	Reset()
}

// Default returns the metrics recorded with every stored run.
func Default() []Metric {
	return []Metric{
		NewMeanEvents(),
		NewStopFraction("absorbed_fraction", gillespie.StoppedNoReaction),
		NewStopFraction("truncated_fraction", gillespie.StoppedMaxEvents),
		NewMeanEndTime(),
		NewMeanDraws(),
	}
}

// Collect resets each metric, feeds it every trajectory and returns the
// values by name.
func Collect(ens *gillespie.Ensemble, ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for _, tr := range ens.Trajectories {
			m.Observe(tr)
		}
		out[m.Name()] = m.Value()
	}
	return out
}

type mean struct {
	total   float64
	samples int
}

func (m *mean) add(v float64) {
	m.total += v
	m.samples++
}

func (m *mean) value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

// MeanEvents is the average number of reactions fired per trajectory.
type MeanEvents struct{ m mean }

func NewMeanEvents() *MeanEvents { return &MeanEvents{} }

func (e *MeanEvents) Name() string { return "mean_events" }
func (e *MeanEvents) Observe(tr *gillespie.Trajectory) {
	e.m.add(float64(tr.Len() - 1))
}
func (e *MeanEvents) Value() float64 { return e.m.value() }
func (e *MeanEvents) Reset()         { e.m = mean{} }

// StopFraction is the share of trajectories that stopped for one reason.
type StopFraction struct {
	name    string
	reason  gillespie.StopReason
	hits    int
	samples int
}

func NewStopFraction(name string, reason gillespie.StopReason) *StopFraction {
	return &StopFraction{name: name, reason: reason}
}

func (f *StopFraction) Name() string { return f.name }

func (f *StopFraction) Observe(tr *gillespie.Trajectory) {
	if tr.Stop == f.reason {
		f.hits++
	}
	f.samples++
}

func (f *StopFraction) Value() float64 {
	if f.samples == 0 {
		return 0
	}
	return float64(f.hits) / float64(f.samples)
}

func (f *StopFraction) Reset() {
	f.hits = 0
	f.samples = 0
}

// MeanEndTime is the average time of the last recorded snapshot.
type MeanEndTime struct{ m mean }

func NewMeanEndTime() *MeanEndTime { return &MeanEndTime{} }

func (e *MeanEndTime) Name() string { return "mean_end_time" }
func (e *MeanEndTime) Observe(tr *gillespie.Trajectory) {
	if t, _, ok := tr.Last(); ok {
		e.m.add(t)
	}
}
func (e *MeanEndTime) Value() float64 { return e.m.value() }
func (e *MeanEndTime) Reset()         { e.m = mean{} }

// MeanDraws is the average number of waiting-time draws consumed per run.
type MeanDraws struct{ m mean }

func NewMeanDraws() *MeanDraws { return &MeanDraws{} }

func (d *MeanDraws) Name() string { return "mean_waiting_draws" }
func (d *MeanDraws) Observe(tr *gillespie.Trajectory) {
	d.m.add(float64(tr.DrawsUsed))
}
func (d *MeanDraws) Value() float64 { return d.m.value() }
func (d *MeanDraws) Reset()         { d.m = mean{} }
