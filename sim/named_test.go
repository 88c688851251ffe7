package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NameMustBeValid", func() {
	It("should accept hierarchical names", func() {
		Expect(func() { NameMustBeValid("Device.Tile[1][0].Reader") }).
			NotTo(Panic())
	})

	It("should reject bad names", func() {
		Expect(func() { NameMustBeValid("") }).To(Panic())
		Expect(func() { NameMustBeValid("Tile 0") }).To(Panic())
		Expect(func() { NameMustBeValid("Tile..Reader") }).To(Panic())
	})
})
