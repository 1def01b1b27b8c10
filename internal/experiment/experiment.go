package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/ssasim/internal/aggregate"
	"github.com/san-kum/ssasim/internal/config"
	"github.com/san-kum/ssasim/internal/gillespie"
	"github.com/san-kum/ssasim/internal/logging"
	"github.com/san-kum/ssasim/internal/metrics"
	"github.com/san-kum/ssasim/internal/storage"
	"github.com/san-kum/ssasim/internal/telemetry"
)

// Experiment runs one configured ensemble end to end: simulate, aggregate,
// summarise and optionally persist.
type Experiment struct {
	cfg       *config.Config
	logger    *slog.Logger
	runner    *gillespie.Runner
	metrics   []metrics.Metric
	store     storage.Store
	collector *telemetry.Collector
}

type Result struct {
	RunID     string
	Seed      int64
	Ensemble  *gillespie.Ensemble
	Segments  *aggregate.Segmentation
	EndStates *aggregate.EndStateSample
	Metrics   map[string]float64
	Elapsed   time.Duration
}

type Option func(*Experiment)

func WithLogger(l *slog.Logger) Option { return func(e *Experiment) { e.logger = l } }

// WithStore persists every result; a nil store disables persistence.
func WithStore(s storage.Store) Option { return func(e *Experiment) { e.store = s } }

func WithCollector(c *telemetry.Collector) Option {
	return func(e *Experiment) { e.collector = c }
}

func WithObserver(o gillespie.Observer) Option {
	return func(e *Experiment) { e.runner.AddObserver(o) }
}

func WithMetrics(ms ...metrics.Metric) Option {
	return func(e *Experiment) { e.metrics = ms }
}

// New validates cfg and prepares a runner for it.
func New(cfg *config.Config, opts ...Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	e := &Experiment{
		cfg:     cfg,
		logger:  logging.Discard(),
		runner:  gillespie.NewRunner(cfg.Workers),
		metrics: metrics.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.collector != nil {
		e.runner.AddObserver(e.collector)
	}
	e.runner.AddObserver(NewProgress(e.logger, cfg.Runs))
	return e, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	seed := e.cfg.ResolveSeed()
	e.logger.Info("simulating ensemble",
		"network", e.cfg.Name,
		"runs", e.cfg.Runs,
		"max_events", e.cfg.MaxEvents,
		"final_time", e.cfg.FinalTime,
		"seed", seed)

	start := time.Now()
	ens, err := e.runner.Run(ctx, e.cfg.Network(), e.cfg.InitialState(), e.cfg.Params())
	elapsed := time.Since(start)
	if e.collector != nil {
		e.collector.ObserveEnsemble(elapsed, err)
	}
	if err != nil {
		return nil, fmt.Errorf("simulate %s: %w", e.cfg.Name, err)
	}

	seg, err := aggregate.BySegment(ens, e.cfg.Segments, e.cfg.Percentile)
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", e.cfg.Name, err)
	}
	end, err := aggregate.EndStates(ens)
	if err != nil {
		return nil, fmt.Errorf("end states %s: %w", e.cfg.Name, err)
	}

	res := &Result{
		Seed:      seed,
		Ensemble:  ens,
		Segments:  seg,
		EndStates: end,
		Metrics:   metrics.Collect(ens, e.metrics),
		Elapsed:   elapsed,
	}

	if e.store != nil {
		rec := storage.NewRecord(e.cfg.Name, ens, seg, end, storage.SamplePaths(ens, e.cfg.Lines()))
		rec.Meta.Metrics = res.Metrics
		id, err := e.store.Save(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("save %s: %w", e.cfg.Name, err)
		}
		res.RunID = id
	}

	e.logger.Info("ensemble finished",
		"network", e.cfg.Name,
		"elapsed", elapsed.Round(time.Millisecond),
		"threshold", seg.Threshold,
		"run_id", res.RunID)
	return res, nil
}
