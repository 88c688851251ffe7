package kernel

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/tilestream/tile"
)

var _ = Describe("Transform", func() {
	a := tile.PackBfloat16([]float32{1, -2, 0.5, -0.25})
	b := tile.PackBfloat16([]float32{2, 2, -1, 4})

	apply := func(t Transform, srcs ...[]byte) []float32 {
		dst := make([]byte, len(srcs[0]))
		t.Apply(dst, srcs)

		return tile.UnpackBfloat16(dst)
	}

	It("should copy", func() {
		dst := make([]byte, len(a))
		Identity{}.Apply(dst, [][]byte{a})

		Expect(dst).To(Equal(a))
	})

	DescribeTable("unary",
		func(op UnaryOp, want []float32) {
			Expect(apply(Unary{Op: op}, a)).To(Equal(want))
		},
		Entry("relu", ReLU, []float32{1, 0, 0.5, 0}),
		Entry("negate", Negate, []float32{-1, 2, -0.5, 0.25}),
	)

	DescribeTable("binary",
		func(op BinaryOp, want []float32) {
			Expect(apply(Binary{Op: op}, a, b)).To(Equal(want))
		},
		Entry("add", Add, []float32{3, 0, -0.5, 3.75}),
		Entry("multiply", Multiply, []float32{2, -4, -0.5, -1}),
	)

	It("should report arity and name", func() {
		Expect(Binary{Op: Add}.NumInputs()).To(Equal(2))
		Expect(Unary{Op: ReLU}.Name()).To(Equal("relu"))
		Expect(Compute{Transform: Binary{Op: Multiply}}.Name()).
			To(Equal("compute_multiply"))
		Expect(Compute{}.Name()).To(Equal("compute_identity"))
	})
})
