package gillespie

// Binomial returns the number of ways to draw k reactant molecules from n
// available ones, generalized to real n. It is zero when n < k or n < 0.
func Binomial(n float64, k int) float64 {
	if n < 0 || k < 0 || n < float64(k) {
		return 0
	}
	c := 1.0
	for i := 0; i < k; i++ {
		c *= (n - float64(i)) / float64(i+1)
	}
	return c
}

// Propensities computes a[i] = rate[i] * prod_j C(x[j], reactants[i][j]).
// out is reused when it has room for every reaction.
func Propensities(net Network, x Counts, out []float64) []float64 {
	r := net.NumReactions()
	if cap(out) < r {
		out = make([]float64, r)
	}
	out = out[:r]

	for i := 0; i < r; i++ {
		h := 1.0
		for j, k := range net.Reactants[i] {
			h *= Binomial(x[j], k)
			if h == 0 {
				break
			}
		}
		out[i] = net.Rates[i] * h
	}
	return out
}
