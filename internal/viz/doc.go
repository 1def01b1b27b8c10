// Package viz renders ensemble summaries in the terminal.
//
//   - [BandPlot]: mean ± standard deviation per time segment (asciigraph)
//   - [PathsPlot]: raw sample paths resampled onto a uniform time grid
//   - [ScatterPlot]: pooled snapshots on a Braille [Canvas]
//   - [HistogramView]: end-state distributions as horizontal bars
//   - [ProgressModel]: a Bubble Tea view of a running ensemble
//
// Colors come from the active [Theme].
package viz
