package automation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/san-kum/ssasim/internal/config"
	"github.com/san-kum/ssasim/internal/experiment"
	"github.com/san-kum/ssasim/internal/storage"
)

const scenarioYAML = `
name: decay-batch
description: decay from a preset and from a file
steps:
  - preset: decay
    runs: 10
    seed: 3
    save_as: decay_small
  - config: net.yaml
    runs: 5
    initial_counts: [8]
`

func writeScenario(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	net := config.GetPreset("decay")
	net.Name = "from_file"
	net.Seed = 4
	if err := config.Save(filepath.Join(dir, "net.yaml"), net); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "batch.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if sc.Name != "decay-batch" || len(sc.Steps) != 2 {
		t.Fatalf("unexpected scenario %+v", sc)
	}

	cfg, err := sc.Resolve(sc.Steps[0])
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "decay_small" || cfg.Runs != 10 || cfg.Seed != 3 {
		t.Errorf("overrides not applied: %+v", cfg)
	}

	cfg, err = sc.Resolve(sc.Steps[1])
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "from_file" || cfg.Runs != 5 || cfg.InitialCounts[0] != 8 || cfg.Seed != 4 {
		t.Errorf("file step not resolved: %+v", cfg)
	}
}

func TestResolveErrors(t *testing.T) {
	sc := &Scenario{}
	tests := []struct {
		name string
		step ScenarioStep
		want string
	}{
		{"empty", ScenarioStep{}, "needs a preset or a config"},
		{"both", ScenarioStep{Preset: "decay", Config: "x.yaml"}, "both"},
		{"unknown", ScenarioStep{Preset: "nope"}, "unknown preset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sc.Resolve(tt.step)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t))
	if err != nil {
		t.Fatal(err)
	}
	st := storage.NewFS(t.TempDir())

	results, err := NewRunner(nil, experiment.WithStore(st)).RunScenario(context.Background(), sc)
	if err != nil {
		t.Fatalf("scenario failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[1].Metrics["mean_events"] != 8 {
		t.Errorf("second step should fire 8 decays, got %v", results[1].Metrics["mean_events"])
	}

	runs, err := st.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 stored runs, got %d", len(runs))
	}
}

func TestRunScenario_StopsOnFailure(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{
		{Preset: "decay", Runs: 3},
		{Preset: "missing"},
		{Preset: "decay"},
	}}
	results, err := NewRunner(nil).RunScenario(context.Background(), sc)
	if err == nil || !strings.Contains(err.Error(), "step 2") {
		t.Fatalf("expected step 2 failure, got %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected partial results from step 1, got %d", len(results))
	}
}

func TestSweepValues(t *testing.T) {
	tests := []struct {
		name  string
		sweep ParameterSweep
		want  []float64
	}{
		{"single", ParameterSweep{Min: 2, Max: 5, NumSteps: 1}, []float64{2}},
		{"linear", ParameterSweep{Min: 0, Max: 1, NumSteps: 5}, []float64{0, 0.25, 0.5, 0.75, 1}},
		{"flat", ParameterSweep{Min: 3, Max: 3, NumSteps: 3}, []float64{3, 3, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.sweep.Values(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("values mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSweepValidate(t *testing.T) {
	base := config.GetPreset("birth_death")
	tests := []struct {
		name  string
		sweep ParameterSweep
	}{
		{"no base", ParameterSweep{NumSteps: 2, Max: 1}},
		{"reaction", ParameterSweep{Base: base, Reaction: 2, NumSteps: 2, Max: 1}},
		{"steps", ParameterSweep{Base: base, NumSteps: 0, Max: 1}},
		{"range", ParameterSweep{Base: base, NumSteps: 2, Min: 2, Max: 1}},
		{"negative", ParameterSweep{Base: base, NumSteps: 2, Min: -1, Max: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.sweep.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRunSweep(t *testing.T) {
	base := config.GetPreset("birth_death")
	base.Runs = 20
	base.Seed = 17
	base.Segments = 10

	sweep := &ParameterSweep{Base: base, Reaction: 0, Min: 5, Max: 20, NumSteps: 2}
	results, err := NewRunner(nil).RunSweep(context.Background(), sweep)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 sweep points, got %d", len(results))
	}
	if results[0].Rate != 5 || results[1].Rate != 20 {
		t.Errorf("unexpected rates %v, %v", results[0].Rate, results[1].Rate)
	}
	if results[0].EndMean[0] >= results[1].EndMean[0] {
		t.Errorf("higher birth rate should raise the end-state mean: %v vs %v", results[0].EndMean[0], results[1].EndMean[0])
	}
	if base.RateConstants[0] != 10 {
		t.Error("sweep must not modify the base config")
	}
}
