package tile

import (
	"math/rand"
)

// RandomBytes returns n pseudo-random bytes. The same seed always gives the
// same bytes.
func RandomBytes(seed int64, n int) []byte {
	buf := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(buf)

	return buf
}

// RandomBfloat16 returns numTiles tiles of bfloat16 values drawn uniformly
// from [lo, hi).
func RandomBfloat16(seed int64, numTiles int, lo, hi float32) []byte {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float32, numTiles*Elements)

	for i := range values {
		values[i] = lo + rng.Float32()*(hi-lo)
	}

	return PackBfloat16(values)
}

// RandomBfp8B returns numTiles tiles in Bfp8B layout. Shared exponents stay
// within a narrow band around 127 so that the values are well formed.
func RandomBfp8B(seed int64, numTiles int) []byte {
	rng := rand.New(rand.NewSource(seed))
	size := int(Bfp8B.TileSize())
	buf := make([]byte, numTiles*size)

	for t := 0; t < numTiles; t++ {
		tile := buf[t*size : (t+1)*size]

		for i := 0; i < bfp8ExponentBytes; i++ {
			tile[i] = byte(120 + rng.Intn(16))
		}

		rng.Read(tile[bfp8ExponentBytes:])
	}

	return buf
}

// Random returns numTiles pseudo-random tiles of the given format.
func Random(f Format, seed int64, numTiles int) []byte {
	switch f {
	case Bfloat16:
		return RandomBfloat16(seed, numTiles, -1, 1)
	case Bfp8B:
		return RandomBfp8B(seed, numTiles)
	default:
		return RandomBytes(seed, numTiles*int(f.TileSize()))
	}
}
