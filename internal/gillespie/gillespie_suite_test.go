package gillespie_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestGillespie(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Gillespie Suite")
}
