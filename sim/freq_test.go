package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Freq", func() {
	freq := 1 * GHz

	It("should get period", func() {
		Expect(freq.Period()).To(BeNumerically("~", 1e-9, 1e-18))
	})

	It("should get this tick", func() {
		Expect(freq.ThisTick(10.2e-9)).To(BeNumerically("~", 11e-9, 1e-18))
		Expect(freq.ThisTick(10e-9)).To(BeNumerically("~", 10e-9, 1e-18))
	})

	It("should get next tick", func() {
		Expect(freq.NextTick(10.2e-9)).To(BeNumerically("~", 11e-9, 1e-18))
		Expect(freq.NextTick(10e-9)).To(BeNumerically("~", 11e-9, 1e-18))
	})

	It("should get n cycles later", func() {
		Expect(freq.NCyclesLater(12, 10e-9)).
			To(BeNumerically("~", 22e-9, 1e-18))
	})

	It("should count cycles", func() {
		Expect(freq.Cycle(22e-9)).To(Equal(uint64(22)))
	})

	It("should panic on zero frequency", func() {
		Expect(func() { Freq(0).Period() }).To(Panic())
	})
})
