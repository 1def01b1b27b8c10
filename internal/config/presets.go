package config

import "sort"

type network struct {
	species   []string
	rates     []float64
	reactants [][]int
	products  [][]int
	initial   []float64
	finalTime float64
	maxEvents int
}

var presets = map[string]network{
	"decay": {
		species:   []string{"A"},
		rates:     []float64{1.0},
		reactants: [][]int{{1}},
		products:  [][]int{{-1}},
		initial:   []float64{5},
		finalTime: 1000, maxEvents: 100,
	},
	"birth_death": {
		species:   []string{"X"},
		rates:     []float64{10, 0.1},
		reactants: [][]int{{0}, {1}},
		products:  [][]int{{1}, {-1}},
		initial:   []float64{0},
		finalTime: 100, maxEvents: 5000,
	},
	"dimerization": {
		species:   []string{"M", "D"},
		rates:     []float64{0.002, 0.1},
		reactants: [][]int{{2, 0}, {0, 1}},
		products:  [][]int{{-2, 1}, {2, -1}},
		initial:   []float64{300, 0},
		finalTime: 20, maxEvents: 5000,
	},
	"lotka_volterra": {
		species:   []string{"prey", "predator"},
		rates:     []float64{1.0, 0.005, 0.6},
		reactants: [][]int{{1, 0}, {1, 1}, {0, 1}},
		products:  [][]int{{1, 0}, {-1, 1}, {0, -1}},
		initial:   []float64{100, 100},
		finalTime: 30, maxEvents: 50000,
	},
	"michaelis_menten": {
		species:   []string{"S", "E", "C", "P"},
		rates:     []float64{0.00166, 1e-4, 0.1},
		reactants: [][]int{{1, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 1, 0}},
		products:  [][]int{{-1, -1, 1, 0}, {1, 1, -1, 0}, {0, 1, -1, 1}},
		initial:   []float64{301, 120, 0, 0},
		finalTime: 50, maxEvents: 5000,
	},
	"schlogl": {
		species:   []string{"X"},
		rates:     []float64{3e-7, 1e-4, 1e-3, 3.5},
		reactants: [][]int{{2}, {3}, {0}, {1}},
		products:  [][]int{{1}, {-1}, {1}, {-1}},
		initial:   []float64{250},
		finalTime: 10, maxEvents: 20000,
	},
}

// GetPreset returns an independent config for a named network, or nil.
func GetPreset(name string) *Config {
	n, ok := presets[name]
	if !ok {
		return nil
	}
	cfg := defaults()
	cfg.Name = name
	cfg.Species = append([]string(nil), n.species...)
	cfg.RateConstants = append([]float64(nil), n.rates...)
	cfg.Reactants = cloneMatrix(n.reactants)
	cfg.Products = cloneMatrix(n.products)
	cfg.InitialCounts = append([]float64(nil), n.initial...)
	cfg.FinalTime = n.finalTime
	cfg.MaxEvents = n.maxEvents
	return &cfg
}

// ListPresets returns the preset names in order.
func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func cloneMatrix(m [][]int) [][]int {
	out := make([][]int, len(m))
	for i, row := range m {
		out[i] = append([]int(nil), row...)
	}
	return out
}
