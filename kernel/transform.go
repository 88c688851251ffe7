package kernel

import (
	"fmt"
	"log"

	"github.com/sarchlab/tilestream/tile"
)

// A Transform turns one block of input tiles into one block of output
// tiles. All the buffers of one call have the same length.
type Transform interface {
	Name() string
	NumInputs() int
	Apply(dst []byte, srcs [][]byte)
}

// Identity copies its only input.
type Identity struct{}

// Name returns "identity".
func (Identity) Name() string { return "identity" }

// NumInputs returns 1.
func (Identity) NumInputs() int { return 1 }

// Apply copies the input.
func (Identity) Apply(dst []byte, srcs [][]byte) {
	copy(dst, srcs[0])
}

// UnaryOp is an element-wise operation on one value.
type UnaryOp int

// Unary operations.
const (
	ReLU UnaryOp = iota
	Negate
)

func (op UnaryOp) String() string {
	switch op {
	case ReLU:
		return "relu"
	case Negate:
		return "negate"
	default:
		return fmt.Sprintf("UnaryOp(%d)", int(op))
	}
}

func (op UnaryOp) apply(x float32) float32 {
	switch op {
	case ReLU:
		return max(x, 0)
	case Negate:
		return -x
	default:
		log.Panicf("unknown unary op %d", int(op))
	}

	return 0
}

// Unary applies an element-wise operation to bfloat16 tiles.
type Unary struct {
	Op UnaryOp
}

// Name returns the operation name.
func (u Unary) Name() string { return u.Op.String() }

// NumInputs returns 1.
func (u Unary) NumInputs() int { return 1 }

// Apply computes the operation on every value.
func (u Unary) Apply(dst []byte, srcs [][]byte) {
	for i := 0; i < len(dst)/2; i++ {
		tile.PutBfloat16(dst, i, u.Op.apply(tile.Bfloat16At(srcs[0], i)))
	}
}

// BinaryOp is an element-wise operation on two values.
type BinaryOp int

// Binary operations.
const (
	Add BinaryOp = iota
	Multiply
)

func (op BinaryOp) String() string {
	switch op {
	case Add:
		return "add"
	case Multiply:
		return "multiply"
	default:
		return fmt.Sprintf("BinaryOp(%d)", int(op))
	}
}

func (op BinaryOp) apply(a, b float32) float32 {
	switch op {
	case Add:
		return a + b
	case Multiply:
		return a * b
	default:
		log.Panicf("unknown binary op %d", int(op))
	}

	return 0
}

// Binary combines two bfloat16 tiles element by element.
type Binary struct {
	Op BinaryOp
}

// Name returns the operation name.
func (b Binary) Name() string { return b.Op.String() }

// NumInputs returns 2.
func (b Binary) NumInputs() int { return 2 }

// Apply computes the operation on every pair of values.
func (b Binary) Apply(dst []byte, srcs [][]byte) {
	for i := 0; i < len(dst)/2; i++ {
		v := b.Op.apply(tile.Bfloat16At(srcs[0], i), tile.Bfloat16At(srcs[1], i))
		tile.PutBfloat16(dst, i, v)
	}
}
