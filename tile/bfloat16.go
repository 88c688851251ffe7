package tile

import (
	"encoding/binary"
	"math"
)

// Float32ToBfloat16 converts with round-to-nearest-even. NaNs stay NaNs.
func Float32ToBfloat16(v float32) uint16 {
	bits := math.Float32bits(v)

	if bits&0x7F800000 == 0x7F800000 && bits&0x007FFFFF != 0 {
		return uint16(bits>>16) | 0x0040
	}

	rounding := uint32(0x7FFF) + (bits>>16)&1

	return uint16((bits + rounding) >> 16)
}

// Bfloat16ToFloat32 widens a bfloat16 value. The conversion is exact.
func Bfloat16ToFloat32(v uint16) float32 {
	return math.Float32frombits(uint32(v) << 16)
}

// Bfloat16At returns the i-th bfloat16 value of a little-endian buffer.
func Bfloat16At(buf []byte, i int) float32 {
	return Bfloat16ToFloat32(binary.LittleEndian.Uint16(buf[2*i:]))
}

// PutBfloat16 stores v as the i-th bfloat16 value of a little-endian buffer.
func PutBfloat16(buf []byte, i int, v float32) {
	binary.LittleEndian.PutUint16(buf[2*i:], Float32ToBfloat16(v))
}

// PackBfloat16 converts values into a little-endian bfloat16 buffer.
func PackBfloat16(values []float32) []byte {
	buf := make([]byte, 2*len(values))
	for i, v := range values {
		PutBfloat16(buf, i, v)
	}

	return buf
}

// UnpackBfloat16 converts a little-endian bfloat16 buffer into values.
func UnpackBfloat16(buf []byte) []float32 {
	values := make([]float32, len(buf)/2)
	for i := range values {
		values[i] = Bfloat16At(buf, i)
	}

	return values
}
