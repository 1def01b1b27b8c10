package gillespie

// SelectReaction picks index i with probability a[i]/a0 using one uniform
// draw u in [0, 1). a0 must be positive.
func SelectReaction(a []float64, a0 float64, u float64) int {
	target := u * a0
	cum := 0.0
	last := -1
	for i, v := range a {
		if v <= 0 {
			continue
		}
		cum += v
		last = i
		if cum > target {
			return i
		}
	}
	// rounding left target above the running sum
	return last
}
