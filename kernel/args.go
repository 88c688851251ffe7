package kernel

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sarchlab/tilestream/memmap"
)

// MaxRuntimeArgs is the number of values that fit in a role's argument
// block next to the count word.
const MaxRuntimeArgs = int(memmap.RuntimeArgsBytes/4) - 1

// ErrBadArgs is returned when runtime arguments do not fit a kernel.
var ErrBadArgs = errors.New("kernel: bad runtime arguments")

// RuntimeArgs is the ordered, immutable list of values bound to one role
// instance at launch.
type RuntimeArgs struct {
	values []uint32
}

// NewRuntimeArgs creates an argument list.
func NewRuntimeArgs(values ...uint32) RuntimeArgs {
	return RuntimeArgs{values: append([]uint32(nil), values...)}
}

// Len returns the number of arguments.
func (a RuntimeArgs) Len() int {
	return len(a.values)
}

// Arg returns the i-th argument.
func (a RuntimeArgs) Arg(i int) uint32 {
	if i < 0 || i >= len(a.values) {
		panic(fmt.Sprintf("kernel: argument %d out of range, %d given",
			i, len(a.values)))
	}

	return a.values[i]
}

// Values returns a copy of the arguments.
func (a RuntimeArgs) Values() []uint32 {
	return append([]uint32(nil), a.values...)
}

// Require checks that at least n arguments are given.
func (a RuntimeArgs) Require(n int, kernel string) error {
	if len(a.values) < n {
		return fmt.Errorf("%w: %s needs %d, got %d",
			ErrBadArgs, kernel, n, len(a.values))
	}

	return nil
}

// Encode lays the arguments out as a count word followed by the values,
// little-endian.
func (a RuntimeArgs) Encode() ([]byte, error) {
	if len(a.values) > MaxRuntimeArgs {
		return nil, fmt.Errorf("%w: %d values, at most %d fit",
			ErrBadArgs, len(a.values), MaxRuntimeArgs)
	}

	buf := make([]byte, 4*(len(a.values)+1))
	binary.LittleEndian.PutUint32(buf, uint32(len(a.values)))

	for i, v := range a.values {
		binary.LittleEndian.PutUint32(buf[4*(i+1):], v)
	}

	return buf, nil
}

// DecodeRuntimeArgs reads an argument block.
func DecodeRuntimeArgs(buf []byte) (RuntimeArgs, error) {
	if len(buf) < 4 {
		return RuntimeArgs{}, fmt.Errorf("%w: block of %d bytes",
			ErrBadArgs, len(buf))
	}

	n := int(binary.LittleEndian.Uint32(buf))
	if n > MaxRuntimeArgs || len(buf) < 4*(n+1) {
		return RuntimeArgs{}, fmt.Errorf("%w: count word %d does not fit",
			ErrBadArgs, n)
	}

	values := make([]uint32, n)
	for i := range values {
		values[i] = binary.LittleEndian.Uint32(buf[4*(i+1):])
	}

	return RuntimeArgs{values: values}, nil
}
