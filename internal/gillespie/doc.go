// Package gillespie provides the stochastic simulation core for discrete
// chemical reaction networks.
//
// The package implements the direct method of the Stochastic Simulation
// Algorithm:
//
//   - [Network]: species, rate constants and stoichiometry
//   - [Propensities]: per-reaction firing rates for the current counts
//   - [SelectReaction]: weighted categorical choice of the next reaction
//   - [Simulate]: one trajectory bounded by final time and event capacity
//   - [Runner]: many independent trajectories forming an [Ensemble]
//
// # Example
//
//	net := gillespie.Network{
//		Species:   []string{"A"},
//		Rates:     []float64{1.0},
//		Reactants: [][]int{{1}},
//		Delta:     [][]int{{-1}},
//	}
//	params := gillespie.Params{FinalTime: 1000, MaxEvents: 100, Runs: 1000, Seed: 42}
//	ens, err := gillespie.SimulateEnsemble(ctx, net, []float64{5}, params)
//
// # Randomness
//
// Every trajectory draws from two named streams: a pre-allocated block of
// waiting-time draws and a selection stream. Both are derived from the
// master seed and the run index, so results do not depend on scheduling.
//
// # Thread Safety
//
// A [Network] is read-only once validated and may be shared. Each trajectory
// owns its counts and buffers; [Runner] writes results into disjoint slots.
package gillespie
