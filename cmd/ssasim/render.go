package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/san-kum/ssasim/internal/aggregate"
	"github.com/san-kum/ssasim/internal/config"
	"github.com/san-kum/ssasim/internal/experiment"
	"github.com/san-kum/ssasim/internal/export"
	"github.com/san-kum/ssasim/internal/storage"
	"github.com/san-kum/ssasim/internal/viz"
)

// runView is what the plots need, whether fresh from a run or loaded.
type runView struct {
	species   []string
	segments  *aggregate.Segmentation
	endStates *aggregate.EndStateSample
	paths     []storage.Path
	pooled    *aggregate.Pooled
}

func recordView(rec *storage.Record) runView {
	return runView{
		species:   rec.Meta.Species,
		segments:  rec.Segments,
		endStates: rec.EndStates,
		paths:     rec.Paths,
	}
}

func printSummary(w io.Writer, name string, res *experiment.Result) {
	fmt.Fprintln(w, viz.Title.Render(name))
	if res.RunID != "" {
		fmt.Fprintln(w, viz.MetricRow("run id", res.RunID))
	}
	fmt.Fprintln(w, viz.MetricRow("seed", res.Seed))
	fmt.Fprintln(w, viz.MetricRow("runs", res.Ensemble.Len()))
	fmt.Fprintln(w, viz.MetricRow("elapsed", res.Elapsed.String()))
	fmt.Fprintln(w, viz.MetricRow("threshold time", res.Segments.Threshold))
	fmt.Fprintln(w, viz.MetricRow("pooled snapshots", res.Segments.Pooled))
	printMetrics(w, res.Metrics)
}

func printMetrics(w io.Writer, m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(w, viz.MetricRow(name, m[name]))
	}
}

// selectSpecies returns the column indices (0-based species) to draw.
func selectSpecies(all []string, only string) ([]int, error) {
	if only == "" {
		idx := make([]int, len(all))
		for i := range idx {
			idx[i] = i
		}
		return idx, nil
	}
	for i, name := range all {
		if name == only {
			return []int{i}, nil
		}
	}
	return nil, fmt.Errorf("unknown species %q (have %v)", only, all)
}

func render(w io.Writer, name string, v runView, plot config.PlotConfig, binsFor func(int) int) error {
	cols, err := selectSpecies(v.species, species)
	if err != nil {
		return err
	}
	opts := viz.PlotOptions{Averages: plot.Averages, Deviations: plot.Deviations}

	horizon := 0.0
	if v.segments != nil {
		horizon = v.segments.Threshold
	}

	for _, j := range cols {
		fmt.Fprintln(w)
		fmt.Fprintln(w, viz.Separator(60))

		if v.segments != nil && (plot.Averages || plot.Deviations) {
			out, err := viz.BandPlot(v.segments, j+1, opts)
			if err != nil {
				fmt.Fprintln(w, viz.Subtle.Render(err.Error()))
			} else {
				fmt.Fprintln(w, out)
			}
		}

		if plot.Lines != 0 && len(v.paths) > 0 && horizon > 0 {
			times := make([][]float64, len(v.paths))
			values := make([][]float64, len(v.paths))
			for i, p := range v.paths {
				times[i] = p.Times
				values[i] = make([]float64, len(p.Counts))
				for k, x := range p.Counts {
					values[i][k] = x[j]
				}
			}
			out, err := viz.PathsPlot(v.species[j], times, values, horizon, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, out)
		}

		if plot.Scatter && v.pooled != nil && horizon > 0 {
			times := v.pooled.Times()
			n := sort.SearchFloat64s(times, horizon)
			var mean []float64
			if plot.Averages {
				mean, _, _, _ = viz.BandSeries(v.segments, j+1)
			}
			fmt.Fprintln(w, viz.ScatterPlot(v.species[j], times[:n], v.pooled.Columns[j+1][:n], horizon, mean, opts))
			if plot.Save {
				c, _ := viz.ScatterCanvas(times[:n], v.pooled.Columns[j+1][:n], horizon, mean, opts)
				path, err := savePath(plot.SaveDir, name+"_"+v.species[j]+"_scatter.svg")
				if err != nil {
					return err
				}
				if err := export.WriteFile(path, export.CanvasToSVG(c, 4, "#00ccff")); err != nil {
					return err
				}
				fmt.Fprintf(w, "saved %s\n", path)
			}
		}

		if plot.Histogram && v.endStates != nil {
			h := aggregate.NewHistogram(v.endStates.Counts[j], binsFor(j))
			fmt.Fprintln(w, viz.HistogramView(v.species[j]+" end states", h, 40))
		}
	}

	if plot.Save && v.segments != nil {
		svg, err := export.BandsSVG(v.segments, 800, 500, plot.Deviations)
		if err != nil {
			return err
		}
		path, err := savePath(plot.SaveDir, name+".svg")
		if err != nil {
			return err
		}
		if err := export.WriteFile(path, svg); err != nil {
			return err
		}
		fmt.Fprintf(w, "saved %s\n", path)
	}
	return nil
}

func savePath(dir, file string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, file), nil
}
