package aggregate

import (
	"math"
	"sort"

	"github.com/san-kum/ssasim/internal/gillespie"
)

// Segment is one half-open time bin [Lower, Upper). Mean and StdDev are
// indexed like Pooled.Columns and are nil when no snapshot fell in the bin.
type Segment struct {
	Lower  float64
	Upper  float64
	Count  int
	Mean   []float64
	StdDev []float64
}

func (s Segment) Empty() bool { return s.Count == 0 }

// Segmentation is the time-binned summary of an ensemble.
type Segmentation struct {
	Species    []string
	Percentile float64
	Threshold  float64
	Width      float64
	Pooled     int
	Segments   []Segment
}

// Series returns bin midpoints with the mean and standard deviation of
// column col, skipping empty bins.
func (s *Segmentation) Series(col int) (x, mean, std []float64) {
	for _, seg := range s.Segments {
		if seg.Empty() {
			continue
		}
		x = append(x, seg.Mean[0])
		mean = append(mean, seg.Mean[col])
		std = append(std, seg.StdDev[col])
	}
	return x, mean, std
}

// BySegment pools the ensemble, truncates it at the percentile-th pooled time
// and splits [0, threshold) into equal-width bins.
func BySegment(ens *gillespie.Ensemble, segments int, percentile float64) (*Segmentation, error) {
	if segments <= 0 {
		return nil, &gillespie.ParamError{Name: "segments", Value: float64(segments), Reason: "must be positive"}
	}
	if math.IsNaN(percentile) || percentile < 0 || percentile > 100 {
		return nil, &gillespie.ParamError{Name: "percentile", Value: percentile, Reason: "must be between 0 and 100"}
	}

	pooled, err := Pool(ens)
	if err != nil {
		return nil, err
	}
	return Split(pooled, segments, percentile), nil
}

// Split bins an already pooled table. Arguments are assumed valid.
func Split(pooled *Pooled, segments int, percentile float64) *Segmentation {
	times := pooled.Times()
	threshold := Percentile(times, percentile)
	width := threshold / float64(segments)

	out := &Segmentation{
		Species:    pooled.Species,
		Percentile: percentile,
		Threshold:  threshold,
		Width:      width,
		Pooled:     pooled.Len(),
		Segments:   make([]Segment, segments),
	}

	for h := 0; h < segments; h++ {
		lower := width * float64(h)
		upper := width * float64(h+1)
		if h == segments-1 {
			upper = threshold
		}
		seg := Segment{Lower: lower, Upper: upper}

		start := sort.SearchFloat64s(times, lower)
		end := sort.SearchFloat64s(times, upper)
		if end > start {
			seg.Count = end - start
			seg.Mean = make([]float64, len(pooled.Columns))
			seg.StdDev = make([]float64, len(pooled.Columns))
			for j, col := range pooled.Columns {
				seg.Mean[j], seg.StdDev[j] = MeanStd(col[start:end])
			}
		}
		out.Segments[h] = seg
	}
	return out
}
