package aggregate

import "math"

// Histogram holds len(Counts) equal-width bins delimited by Edges.
type Histogram struct {
	Edges  []float64
	Counts []int
}

// NewHistogram bins values over their range. The last bin includes the
// maximum. A constant sample is centred in a unit-wide range.
func NewHistogram(values []float64, bins int) Histogram {
	if bins < 1 {
		bins = 1
	}
	h := Histogram{Edges: make([]float64, bins+1), Counts: make([]int, bins)}
	if len(values) == 0 {
		for i := range h.Edges {
			h.Edges[i] = float64(i) / float64(bins)
		}
		return h
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	width := (hi - lo) / float64(bins)
	for i := range h.Edges {
		h.Edges[i] = lo + width*float64(i)
	}
	h.Edges[bins] = hi

	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		h.Counts[idx]++
	}
	return h
}

func (h Histogram) Total() int {
	n := 0
	for _, c := range h.Counts {
		n += c
	}
	return n
}
