// Package telemetry exposes Prometheus instrumentation for ensemble runs.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/ssasim/internal/gillespie"
)

const namespace = "ssasim"

// Collector records per-trajectory and per-ensemble measurements. It
// implements gillespie.Observer and is safe for concurrent use.
type Collector struct {
	trajectories *prometheus.CounterVec
	events       prometheus.Histogram
	draws        prometheus.Histogram
	ensembles    *prometheus.CounterVec
	duration     prometheus.Histogram
}

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		trajectories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trajectories_total",
			Help:      "Finished trajectories by stop reason",
		}, []string{"stop"}),
		events: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trajectory_events",
			Help:      "Reactions fired per trajectory",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10), // 1 to ~260k
		}),
		draws: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trajectory_waiting_draws",
			Help:      "Waiting-time draws consumed per trajectory",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		ensembles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ensembles_total",
			Help:      "Ensemble runs by result",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ensemble_duration_seconds",
			Help:      "Wall time of ensemble runs",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4m
		}),
	}

	for _, col := range []prometheus.Collector{c.trajectories, c.events, c.draws, c.ensembles, c.duration} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) OnTrajectory(run int, tr *gillespie.Trajectory) {
	c.trajectories.WithLabelValues(tr.Stop.String()).Inc()
	c.events.Observe(float64(tr.Len() - 1))
	c.draws.Observe(float64(tr.DrawsUsed))
}

// ObserveEnsemble records one finished or failed ensemble.
func (c *Collector) ObserveEnsemble(elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.ensembles.WithLabelValues(result).Inc()
	c.duration.Observe(elapsed.Seconds())
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
