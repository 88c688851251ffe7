// Package tile describes the storage formats of the 32x32 tiles that flow
// through channels.
package tile

import "fmt"

// Dimensions of a tile.
const (
	Height   = 32
	Width    = 32
	Elements = Height * Width
)

// Format is the storage format of a tile.
type Format int

// Supported formats.
const (
	Float32 Format = iota
	Bfloat16
	Bfp8B
)

// Bfp8B stores one shared exponent byte per 16 values followed by one
// sign-mantissa byte per value.
const (
	bfp8BlockSize     = 16
	bfp8ExponentBytes = Elements / bfp8BlockSize
)

func (f Format) String() string {
	switch f {
	case Float32:
		return "Float32"
	case Bfloat16:
		return "Bfloat16"
	case Bfp8B:
		return "Bfp8_b"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// TileSize returns the number of bytes of one tile.
func (f Format) TileSize() uint32 {
	switch f {
	case Float32:
		return Elements * 4
	case Bfloat16:
		return Elements * 2
	case Bfp8B:
		return Elements + bfp8ExponentBytes
	default:
		panic(fmt.Sprintf("tile: unknown format %d", int(f)))
	}
}

// ParseFormat converts a format name to a Format.
func ParseFormat(s string) (Format, error) {
	for f := Float32; f <= Bfp8B; f++ {
		if f.String() == s {
			return f, nil
		}
	}

	return 0, fmt.Errorf("tile: unknown format %q", s)
}
