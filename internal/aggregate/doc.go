// Package aggregate summarizes a finished ensemble.
//
// The package provides pooled statistics over every recorded snapshot:
//
//   - [Pool]: all valid snapshots of all trajectories, sorted by time
//   - [BySegment]: per-bin mean and population standard deviation up to a
//     percentile of the pooled times
//   - [EndStates]: the last snapshot of every trajectory
//   - [NewHistogram]: equal-width counts for end-state distributions
//
// Column 0 of every table is time; columns 1..s are the species in network
// order. Statistics are per event, not time weighted: a trajectory with more
// events in a bin contributes more samples to it.
package aggregate
