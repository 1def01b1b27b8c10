package config

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/ssasim/internal/gillespie"
)

const (
	DefaultFinalTime  = 1000.0
	DefaultMaxEvents  = 100
	DefaultRuns       = 1000
	DefaultSeed       = -1
	DefaultSegments   = 100
	DefaultPercentile = 90.0
	DefaultBins       = 20
	DefaultLines      = 5
	DefaultBackend    = "fs"
	DefaultDataDir    = ".ssasim"
	DefaultLogLevel   = "info"
)

// RandomSeed asks for a fresh seed that is then recorded with the run.
const RandomSeed = -1

type Config struct {
	Name          string        `yaml:"name"`
	Species       []string      `yaml:"species"`
	RateConstants []float64     `yaml:"rate_constants"`
	Reactants     [][]int       `yaml:"reactants"`
	Products      [][]int       `yaml:"products"`
	InitialCounts []float64     `yaml:"initial_counts"`
	FinalTime     float64       `yaml:"final_time" env:"FINAL_TIME"`
	MaxEvents     int           `yaml:"max_events" env:"MAX_EVENTS"`
	Runs          int           `yaml:"runs" env:"RUNS"`
	Seed          int64         `yaml:"seed" env:"SEED"`
	Workers       int           `yaml:"workers" env:"WORKERS"`
	Segments      int           `yaml:"segments" env:"SEGMENTS"`
	Percentile    float64       `yaml:"percentile" env:"PERCENTILE"`
	Plot          PlotConfig    `yaml:"plot" envPrefix:"PLOT_"`
	Storage       StorageConfig `yaml:"storage" envPrefix:"STORAGE_"`
	LogLevel      string        `yaml:"log_level" env:"LOG_LEVEL"`
}

// PlotConfig selects what the presentation commands draw. Lines is the
// number of raw sample paths to show; -1 shows all of them.
type PlotConfig struct {
	Averages   bool   `yaml:"averages" env:"AVERAGES"`
	Deviations bool   `yaml:"deviations" env:"DEVIATIONS"`
	Scatter    bool   `yaml:"scatter" env:"SCATTER"`
	Histogram  bool   `yaml:"histogram" env:"HISTOGRAM"`
	Lines      int    `yaml:"lines" env:"LINES"`
	BinCounts  []int  `yaml:"bin_counts"`
	Save       bool   `yaml:"save" env:"SAVE"`
	SaveDir    string `yaml:"save_dir" env:"SAVE_DIR"`
}

type StorageConfig struct {
	Backend string `yaml:"backend" env:"BACKEND"`
	Dir     string `yaml:"dir" env:"DIR"`
	DSN     string `yaml:"dsn" env:"DSN"`
}

// DefaultConfig returns the pure-decay network with the default run settings.
func DefaultConfig() *Config {
	return GetPreset("decay")
}

func defaults() Config {
	return Config{
		FinalTime:  DefaultFinalTime,
		MaxEvents:  DefaultMaxEvents,
		Runs:       DefaultRuns,
		Seed:       DefaultSeed,
		Segments:   DefaultSegments,
		Percentile: DefaultPercentile,
		Plot: PlotConfig{
			Averages:   true,
			Deviations: true,
			Histogram:  true,
			Lines:      DefaultLines,
		},
		Storage: StorageConfig{
			Backend: DefaultBackend,
			Dir:     DefaultDataDir,
		},
		LogLevel: DefaultLogLevel,
	}
}

// Load reads a YAML file over the run defaults. The network itself must be
// given in the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Species = append([]string(nil), c.Species...)
	out.RateConstants = append([]float64(nil), c.RateConstants...)
	out.Reactants = cloneMatrix(c.Reactants)
	out.Products = cloneMatrix(c.Products)
	out.InitialCounts = append([]float64(nil), c.InitialCounts...)
	out.Plot.BinCounts = append([]int(nil), c.Plot.BinCounts...)
	return &out
}

func (c *Config) Network() gillespie.Network {
	return gillespie.Network{
		Species:   c.Species,
		Rates:     c.RateConstants,
		Reactants: c.Reactants,
		Delta:     c.Products,
	}
}

func (c *Config) InitialState() gillespie.Counts {
	return gillespie.Counts(c.InitialCounts).Clone()
}

func (c *Config) Params() gillespie.Params {
	return gillespie.Params{
		FinalTime: c.FinalTime,
		MaxEvents: c.MaxEvents,
		Runs:      c.Runs,
		Seed:      c.Seed,
		Workers:   c.Workers,
	}
}

// ResolveSeed replaces RandomSeed with a fresh non-negative seed and returns
// the seed in effect.
func (c *Config) ResolveSeed() int64 {
	if c.Seed == RandomSeed {
		c.Seed = rand.New(rand.NewSource(time.Now().UnixNano())).Int63()
	}
	return c.Seed
}

// Lines returns how many raw sample paths to draw, clamped to Runs.
func (c *Config) Lines() int {
	if c.Plot.Lines < 0 || c.Plot.Lines > c.Runs {
		return c.Runs
	}
	return c.Plot.Lines
}

// Bins returns the histogram bin count for species j.
func (c *Config) Bins(j int) int {
	if j < len(c.Plot.BinCounts) && c.Plot.BinCounts[j] > 0 {
		return c.Plot.BinCounts[j]
	}
	return DefaultBins
}

// Validate reports the first problem that would make a run meaningless.
func (c *Config) Validate() error {
	net := c.Network()
	if err := net.Validate(); err != nil {
		return err
	}
	if err := net.ValidateInitial(c.InitialState()); err != nil {
		return err
	}
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if len(c.Plot.BinCounts) > 0 && len(c.Plot.BinCounts) != len(c.Species) {
		return &gillespie.ConfigError{Field: "plot.bin_counts", Reason: fmt.Sprintf("must be same size as species (%d vs %d)", len(c.Plot.BinCounts), len(c.Species))}
	}
	if math.IsNaN(c.Percentile) || c.Percentile < 0 || c.Percentile > 100 {
		return &gillespie.ParamError{Name: "percentile", Value: c.Percentile, Reason: "must be between 0 and 100"}
	}
	if c.Segments <= 0 {
		return &gillespie.ParamError{Name: "segments", Value: float64(c.Segments), Reason: "must be positive"}
	}
	if c.Seed < RandomSeed {
		return &gillespie.ParamError{Name: "seed", Value: float64(c.Seed), Reason: "must be -1 (random) or non-negative"}
	}
	if c.Plot.Lines == 0 && !c.Plot.Scatter && !c.Plot.Deviations && !c.Plot.Averages {
		return &gillespie.ConfigError{Field: "plot", Reason: "must choose whether to draw lines, deviations, averages or scatter"}
	}
	switch c.Storage.Backend {
	case "fs", "sqlite", "postgres", "none":
	default:
		return &gillespie.ConfigError{Field: "storage.backend", Reason: fmt.Sprintf("unknown backend %q", c.Storage.Backend)}
	}
	return nil
}
