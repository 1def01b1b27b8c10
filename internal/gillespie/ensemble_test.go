package gillespie_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ssasim/internal/gillespie"
)

var _ = Describe("Ensemble", func() {
	var (
		net    gillespie.Network
		params gillespie.Params
	)

	BeforeEach(func() {
		net = gillespie.Network{
			Species:   []string{"A"},
			Rates:     []float64{1.0},
			Reactants: [][]int{{1}},
			Delta:     [][]int{{-1}},
		}
		params = gillespie.Params{FinalTime: 1000, MaxEvents: 100, Runs: 200, Seed: 17}
	})

	Context("with a pure decay network", func() {
		It("exhausts every trajectory one molecule at a time", func() {
			ens, err := gillespie.SimulateEnsemble(context.Background(), net, gillespie.Counts{5}, params)
			Expect(err).NotTo(HaveOccurred())
			Expect(ens.Trajectories).To(HaveLen(params.Runs))

			for _, tr := range ens.Trajectories {
				Expect(tr.Stop).To(Equal(gillespie.StoppedNoReaction))
				Expect(tr.Len()).To(Equal(6))
				Expect(tr.Column(0)).To(Equal([]float64{5, 4, 3, 2, 1, 0}))
			}
		})

		It("matches the exponential mean lifetime", func() {
			params.Runs = 4000
			ens, err := gillespie.SimulateEnsemble(context.Background(), net, gillespie.Counts{1}, params)
			Expect(err).NotTo(HaveOccurred())

			total := 0.0
			for _, tr := range ens.Trajectories {
				tm, _, ok := tr.Last()
				Expect(ok).To(BeTrue())
				total += tm
			}
			mean := total / float64(len(ens.Trajectories))
			Expect(math.Abs(mean - 1.0)).To(BeNumerically("<", 0.08))
		})
	})

	Context("with a short horizon", func() {
		It("never records past the final time", func() {
			params.FinalTime = 0.1
			ens, err := gillespie.SimulateEnsemble(context.Background(), net, gillespie.Counts{50}, params)
			Expect(err).NotTo(HaveOccurred())

			for _, tr := range ens.Trajectories {
				tm, _, _ := tr.Last()
				Expect(tm).To(BeNumerically("<=", params.FinalTime))
				Expect(tr.Len()).To(BeNumerically("<=", params.MaxEvents))
			}
		})
	})

	Context("with mismatched stoichiometry", func() {
		It("fails before simulating", func() {
			net.Delta = [][]int{{-1}, {1}}
			_, err := gillespie.SimulateEnsemble(context.Background(), net, gillespie.Counts{5}, params)
			Expect(err).To(MatchError(gillespie.ErrConfiguration))
		})
	})
})
