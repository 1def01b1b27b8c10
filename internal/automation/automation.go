package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ssasim/internal/aggregate"
	"github.com/san-kum/ssasim/internal/config"
	"github.com/san-kum/ssasim/internal/experiment"
	"github.com/san-kum/ssasim/internal/logging"
)

// Scenario defines a scripted batch of ensembles
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`

	dir string
}

// ScenarioStep is a single ensemble in a scenario. It starts from a preset
// or a config file and applies the non-zero overrides.
type ScenarioStep struct {
	Preset        string    `yaml:"preset"`
	Config        string    `yaml:"config"`
	Runs          int       `yaml:"runs"`
	MaxEvents     int       `yaml:"max_events"`
	FinalTime     float64   `yaml:"final_time"`
	Seed          *int64    `yaml:"seed"`
	RateConstants []float64 `yaml:"rate_constants"`
	InitialCounts []float64 `yaml:"initial_counts"`
	SaveAs        string    `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	scenario.dir = filepath.Dir(path)

	return &scenario, nil
}

// Resolve builds the config for one step. Relative config paths are read
// from the scenario's directory.
func (sc *Scenario) Resolve(step ScenarioStep) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case step.Preset != "" && step.Config != "":
		return nil, fmt.Errorf("step sets both preset and config")
	case step.Preset != "":
		cfg = config.GetPreset(step.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", step.Preset)
		}
	case step.Config != "":
		path := step.Config
		if !filepath.IsAbs(path) && sc.dir != "" {
			path = filepath.Join(sc.dir, path)
		}
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	default:
		return nil, fmt.Errorf("step needs a preset or a config")
	}

	if step.Runs > 0 {
		cfg.Runs = step.Runs
	}
	if step.MaxEvents > 0 {
		cfg.MaxEvents = step.MaxEvents
	}
	if step.FinalTime > 0 {
		cfg.FinalTime = step.FinalTime
	}
	if step.Seed != nil {
		cfg.Seed = *step.Seed
	}
	if step.RateConstants != nil {
		cfg.RateConstants = append([]float64(nil), step.RateConstants...)
	}
	if step.InitialCounts != nil {
		cfg.InitialCounts = append([]float64(nil), step.InitialCounts...)
	}
	if step.SaveAs != "" {
		cfg.Name = step.SaveAs
	}
	return cfg, nil
}

// Runner executes scenarios and sweeps with shared experiment options.
type Runner struct {
	logger *slog.Logger
	opts   []experiment.Option
}

func NewRunner(logger *slog.Logger, opts ...experiment.Option) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runner{logger: logger, opts: append(opts, experiment.WithLogger(logger))}
}

func (r *Runner) run(ctx context.Context, cfg *config.Config) (*experiment.Result, error) {
	exp, err := experiment.New(cfg, r.opts...)
	if err != nil {
		return nil, err
	}
	return exp.Run(ctx)
}

// RunScenario executes all steps in order and stops at the first failure,
// returning the results so far.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]*experiment.Result, error) {
	results := make([]*experiment.Result, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := scenario.Resolve(step)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		r.logger.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "network", cfg.Name)

		res, err := r.run(ctx, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		results = append(results, res)
	}

	return results, nil
}

// ParameterSweep varies one rate constant linearly over [Min, Max].
type ParameterSweep struct {
	Base     *config.Config
	Reaction int
	Min      float64
	Max      float64
	NumSteps int
}

// SweepResult holds the summary of one sweep point
type SweepResult struct {
	Rate    float64
	RunID   string
	Metrics map[string]float64
	EndMean []float64
	EndStd  []float64
}

func (s *ParameterSweep) Validate() error {
	if s.Base == nil {
		return fmt.Errorf("sweep needs a base config")
	}
	if s.Reaction < 0 || s.Reaction >= len(s.Base.RateConstants) {
		return fmt.Errorf("reaction %d out of range [0, %d)", s.Reaction, len(s.Base.RateConstants))
	}
	if s.NumSteps < 1 {
		return fmt.Errorf("sweep needs at least one step, got %d", s.NumSteps)
	}
	if s.Min < 0 || s.Max < s.Min {
		return fmt.Errorf("invalid rate range [%g, %g]", s.Min, s.Max)
	}
	return nil
}

// Values returns the rate constants visited by the sweep.
func (s *ParameterSweep) Values() []float64 {
	if s.NumSteps == 1 {
		return []float64{s.Min}
	}
	step := (s.Max - s.Min) / float64(s.NumSteps-1)
	vals := make([]float64, s.NumSteps)
	for i := range vals {
		vals[i] = s.Min + float64(i)*step
	}
	vals[s.NumSteps-1] = s.Max
	return vals
}

// RunSweep simulates one ensemble per rate value.
func (r *Runner) RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	if err := sweep.Validate(); err != nil {
		return nil, err
	}
	values := sweep.Values()
	results := make([]SweepResult, 0, len(values))

	for i, k := range values {
		cfg := sweep.Base.Clone()
		cfg.RateConstants[sweep.Reaction] = k
		cfg.Name = fmt.Sprintf("%s_k%d_%g", sweep.Base.Name, sweep.Reaction, k)

		res, err := r.run(ctx, cfg)
		if err != nil {
			return results, fmt.Errorf("sweep %s=%g: %w", rateName(sweep.Reaction), k, err)
		}

		out := SweepResult{Rate: k, RunID: res.RunID, Metrics: res.Metrics}
		for j := range res.EndStates.Species {
			m, sd := aggregate.MeanStd(res.EndStates.Counts[j])
			out.EndMean = append(out.EndMean, m)
			out.EndStd = append(out.EndStd, sd)
		}
		results = append(results, out)

		r.logger.Info("sweep point", "step", i+1, "of", len(values), rateName(sweep.Reaction), k)
	}

	return results, nil
}

func rateName(reaction int) string {
	return fmt.Sprintf("k%d", reaction)
}
