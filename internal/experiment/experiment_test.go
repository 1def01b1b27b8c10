package experiment

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/ssasim/internal/config"
	"github.com/san-kum/ssasim/internal/gillespie"
	"github.com/san-kum/ssasim/internal/logging"
	"github.com/san-kum/ssasim/internal/storage"
	"github.com/san-kum/ssasim/internal/telemetry"
)

func decayConfig(runs int) *config.Config {
	cfg := config.GetPreset("decay")
	cfg.Runs = runs
	cfg.Seed = 11
	cfg.Segments = 10
	cfg.Workers = 4
	return cfg
}

func TestExperimentRun(t *testing.T) {
	cfg := decayConfig(50)
	st := storage.NewFS(t.TempDir())

	exp, err := New(cfg, WithStore(st))
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if res.Ensemble.Len() != 50 {
		t.Errorf("expected 50 trajectories, got %d", res.Ensemble.Len())
	}
	if len(res.Segments.Segments) != 10 {
		t.Errorf("expected 10 segments, got %d", len(res.Segments.Segments))
	}
	if res.Metrics["mean_events"] != 5 {
		t.Errorf("every decay run should fire 5 reactions, mean = %v", res.Metrics["mean_events"])
	}
	if res.Metrics["absorbed_fraction"] != 1 {
		t.Errorf("every decay run should be absorbed, fraction = %v", res.Metrics["absorbed_fraction"])
	}
	for r, v := range res.EndStates.Counts[0] {
		if v != 0 {
			t.Fatalf("run %d ended with %v molecules", r, v)
		}
	}

	if res.RunID == "" {
		t.Fatal("expected a run id from the store")
	}
	rec, err := st.Load(context.Background(), res.RunID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if rec.Meta.Seed != 11 || rec.Meta.Runs != 50 {
		t.Errorf("unexpected metadata %+v", rec.Meta)
	}
	if len(rec.Paths) != config.DefaultLines {
		t.Errorf("expected %d sample paths, got %d", config.DefaultLines, len(rec.Paths))
	}
	if rec.Meta.Metrics["mean_events"] != 5 {
		t.Errorf("metrics not persisted: %v", rec.Meta.Metrics)
	}
}

func TestExperimentRandomSeedRecorded(t *testing.T) {
	cfg := decayConfig(5)
	cfg.Seed = config.RandomSeed

	exp, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Seed < 0 {
		t.Errorf("expected a resolved seed, got %d", res.Seed)
	}
	if res.Ensemble.Params.Seed != res.Seed || cfg.Seed != res.Seed {
		t.Error("resolved seed should be used and recorded")
	}
}

func TestExperimentInvalidConfig(t *testing.T) {
	cfg := decayConfig(5)
	cfg.InitialCounts = []float64{1, 2}

	_, err := New(cfg)
	if !errors.Is(err, gillespie.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestExperimentCancelled(t *testing.T) {
	exp, err := New(decayConfig(100))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := exp.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestExperimentProgressLogging(t *testing.T) {
	var buf bytes.Buffer
	exp, err := New(decayConfig(20), WithLogger(logging.New("debug", &buf)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := exp.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if n := strings.Count(out, `msg="run completed"`); n != 20 {
		t.Errorf("expected 20 run completions, got %d", n)
	}
	if !strings.Contains(out, `msg="ensemble finished"`) {
		t.Error("missing ensemble summary line")
	}
}

func TestExperimentTelemetry(t *testing.T) {
	reg := prometheus.NewRegistry()
	col, err := telemetry.NewCollector(reg)
	if err != nil {
		t.Fatal(err)
	}
	exp, err := New(decayConfig(8), WithCollector(col))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := exp.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			if c := m.GetCounter(); c != nil {
				found[f.GetName()] += c.GetValue()
			}
		}
	}
	if found["ssasim_trajectories_total"] != 8 {
		t.Errorf("trajectories_total = %v, want 8", found["ssasim_trajectories_total"])
	}
	if found["ssasim_ensembles_total"] != 1 {
		t.Errorf("ensembles_total = %v, want 1", found["ssasim_ensembles_total"])
	}
}

func TestProgressObserver(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(logging.New("info", &buf), 4)
	tr := gillespie.NewTrajectory(1, 2)
	tr.Append(0, gillespie.Counts{1})

	for i := 0; i < 4; i++ {
		p.OnTrajectory(i, tr)
	}
	if p.Done() != 4 {
		t.Errorf("done = %d, want 4", p.Done())
	}
	if strings.Contains(buf.String(), "run completed") {
		t.Error("per-run lines should only appear at debug level")
	}
	if !strings.Contains(buf.String(), "done=4") {
		t.Errorf("expected final progress line, got %q", buf.String())
	}
}

func TestRegistryOpenStore(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.StorageConfig
		wantNil bool
		wantErr bool
	}{
		{"fs", config.StorageConfig{Backend: "fs", Dir: filepath.Join(dir, "fs")}, false, false},
		{"sqlite", config.StorageConfig{Backend: "sqlite", Dir: filepath.Join(dir, "lite")}, false, false},
		{"none", config.StorageConfig{Backend: "none"}, true, false},
		{"unknown", config.StorageConfig{Backend: "tape"}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := r.OpenStore(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if (st == nil) != tt.wantNil {
				t.Errorf("store = %v, wantNil %v", st, tt.wantNil)
			}
			if st != nil {
				st.Close()
			}
		})
	}
}

func TestRegistryListBackends(t *testing.T) {
	got := strings.Join(NewRegistry().ListBackends(), ",")
	if got != "fs,none,postgres,sqlite" {
		t.Errorf("backends = %s", got)
	}
}
