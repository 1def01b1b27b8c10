package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/san-kum/ssasim/internal/aggregate"
	"github.com/san-kum/ssasim/internal/config"
	"github.com/san-kum/ssasim/internal/experiment"
	"github.com/san-kum/ssasim/internal/logging"
	"github.com/san-kum/ssasim/internal/storage"
	"github.com/san-kum/ssasim/internal/telemetry"
	"github.com/san-kum/ssasim/internal/viz"
)

// buildConfig layers preset or file, then SSASIM_* variables, then the
// flags the user actually set.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case preset != "" && configFile != "":
		return nil, fmt.Errorf("use either --preset or --config, not both")
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	default:
		cfg = config.DefaultConfig()
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("runs") {
		cfg.Runs = runs
	}
	if flags.Changed("max-events") {
		cfg.MaxEvents = maxEvents
	}
	if flags.Changed("final-time") {
		cfg.FinalTime = finalTime
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("segments") {
		cfg.Segments = segments
	}
	if flags.Changed("percentile") {
		cfg.Percentile = percentile
	}
	applyPlotFlags(cmd, &cfg.Plot)
	applyStorageFlags(cmd, &cfg.Storage)
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func applyPlotFlags(cmd *cobra.Command, p *config.PlotConfig) {
	flags := cmd.Flags()
	if flags.Lookup("averages") == nil {
		return
	}
	if flags.Changed("averages") {
		p.Averages = averages
	}
	if flags.Changed("deviations") {
		p.Deviations = deviations
	}
	if flags.Changed("scatter") {
		p.Scatter = scatter
	}
	if flags.Changed("histogram") {
		p.Histogram = histogram
	}
	if flags.Changed("lines") {
		p.Lines = lines
	}
	if flags.Changed("save") {
		p.Save = save
	}
	if flags.Changed("save-dir") {
		p.SaveDir = saveDir
	}
}

func applyStorageFlags(cmd *cobra.Command, s *config.StorageConfig) {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		s.Backend = backend
	}
	if flags.Changed("data") {
		s.Dir = dataDir
	}
	if flags.Changed("dsn") {
		s.DSN = dsn
	}
}

// storageConfig is used by the commands that only read runs.
func storageConfig(cmd *cobra.Command) (config.StorageConfig, error) {
	s := config.StorageConfig{Backend: config.DefaultBackend, Dir: config.DefaultDataDir}
	if err := config.ApplyStorageEnv(&s); err != nil {
		return s, err
	}
	applyStorageFlags(cmd, &s)
	return s, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	return experiment.NewRegistry().OpenStore(ctx, cfg)
}

func openReadStore(cmd *cobra.Command) (storage.Store, error) {
	cfg, err := storageConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Backend == "none" {
		return nil, fmt.Errorf("no storage backend configured")
	}
	return openStore(cmd.Context(), cfg)
}

// serveMetrics starts a /metrics endpoint and returns its shutdown func.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
	if useTUI {
		logger = logging.Discard()
	}

	st, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	opts := []experiment.Option{experiment.WithLogger(logger), experiment.WithStore(st)}
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		col, err := telemetry.NewCollector(reg)
		if err != nil {
			return err
		}
		opts = append(opts, experiment.WithCollector(col))
		shutdown := serveMetrics(metricsAddr, reg, logger)
		defer shutdown()
	}

	var res *experiment.Result
	if useTUI {
		res, err = runWithTUI(ctx, cfg, opts)
	} else {
		var exp *experiment.Experiment
		exp, err = experiment.New(cfg, opts...)
		if err == nil {
			res, err = exp.Run(ctx)
		}
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printSummary(out, cfg.Name, res)
	view := runView{
		species:   res.Ensemble.Species,
		segments:  res.Segments,
		endStates: res.EndStates,
		paths:     storage.SamplePaths(res.Ensemble, cfg.Lines()),
	}
	if cfg.Plot.Scatter {
		pooled, err := aggregate.Pool(res.Ensemble)
		if err != nil {
			return err
		}
		view.pooled = pooled
	}
	name := res.RunID
	if name == "" {
		name = cfg.Name
	}
	return render(out, name, view, cfg.Plot, cfg.Bins)
}

func runWithTUI(ctx context.Context, cfg *config.Config, opts []experiment.Option) (*experiment.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(viz.NewProgressModel(cfg.Name, cfg.Runs, cancel))
	exp, err := experiment.New(cfg, append(opts, experiment.WithObserver(viz.NewProgressObserver(p)))...)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		res *experiment.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := exp.Run(ctx)
		p.Send(viz.DoneMsg{Err: err})
		done <- outcome{res, err}
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, err
	}
	o := <-done
	return o.res, o.err
}
