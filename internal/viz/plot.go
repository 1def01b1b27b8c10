package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/ssasim/internal/aggregate"
)

const (
	DefaultPlotWidth  = 80
	DefaultPlotHeight = 15
)

type PlotOptions struct {
	Width      int
	Height     int
	Averages   bool
	Deviations bool
}

func (o PlotOptions) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultPlotWidth
	}
	if h <= 0 {
		h = DefaultPlotHeight
	}
	return w, h
}

// BandSeries returns per-segment mean, mean+std and mean-std of column col.
// Empty segments repeat the previous value so the x axis stays uniform in
// time; leading empty segments take the first observed value.
func BandSeries(seg *aggregate.Segmentation, col int) (mean, upper, lower []float64, ok bool) {
	first := -1
	for i, s := range seg.Segments {
		if !s.Empty() {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, nil, nil, false
	}

	n := len(seg.Segments)
	mean = make([]float64, n)
	upper = make([]float64, n)
	lower = make([]float64, n)
	m, sd := seg.Segments[first].Mean[col], seg.Segments[first].StdDev[col]
	for i, s := range seg.Segments {
		if !s.Empty() {
			m, sd = s.Mean[col], s.StdDev[col]
		}
		mean[i] = m
		upper[i] = m + sd
		lower[i] = m - sd
	}
	return mean, upper, lower, true
}

// BandPlot draws the segment averages of species column col (1-based; 0 is
// time) and, with Deviations, the ±1 standard deviation band around them.
func BandPlot(seg *aggregate.Segmentation, col int, opts PlotOptions) (string, error) {
	if col < 1 || col > len(seg.Species) {
		return "", fmt.Errorf("column %d out of range", col)
	}
	if !opts.Averages && !opts.Deviations {
		return "", fmt.Errorf("nothing to plot: enable averages or deviations")
	}
	mean, upper, lower, ok := BandSeries(seg, col)
	if !ok {
		return "", fmt.Errorf("no snapshots below the threshold time")
	}

	var series [][]float64
	var colors []asciigraph.AnsiColor
	if opts.Averages {
		series = append(series, mean)
		colors = append(colors, seriesColor(0))
	}
	if opts.Deviations {
		series = append(series, upper, lower)
		colors = append(colors, seriesColor(1), seriesColor(1))
	}

	w, h := opts.size()
	caption := fmt.Sprintf("%s  t = 0 .. %.4g  (%d segments, p%g)", seg.Species[col-1], seg.Threshold, len(seg.Segments), seg.Percentile)
	return asciigraph.PlotMany(series,
		asciigraph.Height(h),
		asciigraph.Width(w),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
	), nil
}

// Resample evaluates a piecewise-constant path on n evenly spaced times in
// [0, horizon]. The state after the last event holds to the horizon.
func Resample(times, values []float64, horizon float64, n int) []float64 {
	out := make([]float64, n)
	if len(times) == 0 || n == 0 {
		return out
	}
	for i := range out {
		g := horizon
		if n > 1 {
			g = horizon * float64(i) / float64(n-1)
		}
		k := sort.Search(len(times), func(j int) bool { return times[j] > g }) - 1
		if k < 0 {
			k = 0
		}
		out[i] = values[k]
	}
	return out
}

// PathsPlot draws raw sample paths of one species, each resampled onto the
// plot width.
func PathsPlot(name string, times, values [][]float64, horizon float64, opts PlotOptions) (string, error) {
	if len(times) == 0 {
		return "", fmt.Errorf("no sample paths")
	}
	if horizon <= 0 {
		return "", fmt.Errorf("horizon must be positive")
	}
	w, h := opts.size()
	series := make([][]float64, len(times))
	colors := make([]asciigraph.AnsiColor, len(times))
	for i := range times {
		series[i] = Resample(times[i], values[i], horizon, w)
		colors[i] = seriesColor(i)
	}
	caption := fmt.Sprintf("%s  %d sample paths, t = 0 .. %.4g", name, len(times), horizon)
	return asciigraph.PlotMany(series,
		asciigraph.Height(h),
		asciigraph.Width(w),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
	), nil
}

// ScatterCanvas places every (time, count) pair on a Braille canvas and
// returns it with its vertical window. When mean is non-empty it is drawn as
// a connected line over the points.
func ScatterCanvas(times, values []float64, horizon float64, mean []float64, opts PlotOptions) (*Canvas, Window) {
	w, h := opts.size()
	c := NewCanvas(w, h)

	win := Window{XMax: horizon, YMin: 0, YMax: 1}
	if len(values) > 0 {
		win.YMin, win.YMax = values[0], values[0]
		for _, v := range values {
			win.YMin, win.YMax = min(win.YMin, v), max(win.YMax, v)
		}
		if win.YMax == win.YMin {
			win.YMax = win.YMin + 1
		}
	}
	for i := range times {
		c.Plot(win, times[i], values[i])
	}

	// mean holds one value per segment; draw it at the segment midpoints.
	if n := len(mean); n > 1 {
		step := horizon / float64(n)
		for i := 1; i < n; i++ {
			c.Line(win, (float64(i)-0.5)*step, mean[i-1], (float64(i)+0.5)*step, mean[i])
		}
	}
	return c, win
}

func ScatterPlot(name string, times, values []float64, horizon float64, mean []float64, opts PlotOptions) string {
	c, win := ScatterCanvas(times, values, horizon, mean, opts)

	var b strings.Builder
	b.WriteString(Subtle.Render(fmt.Sprintf("%10.4g ┤", win.YMax)) + "\n")
	b.WriteString(c.String() + "\n")
	b.WriteString(Subtle.Render(fmt.Sprintf("%10.4g ┴ t = 0 .. %.4g", win.YMin, horizon)) + "\n")
	b.WriteString(Title.Render(fmt.Sprintf("%s  %d points", name, len(times))))
	return b.String()
}
