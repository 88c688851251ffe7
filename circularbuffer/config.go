// Package circularbuffer implements the single-producer single-consumer page
// channel that connects the roles of a tile.
//
// A channel is a ring of fixed-size pages in L1. The producer and the consumer
// each keep their own mirror of the channel (Producer and Consumer). The two
// mirrors share nothing but a pair of free-running 32-bit page counters in the
// tile's register file: pagesReceived, written only by the producer, and
// pagesAcked, written only by the consumer. The number of pages available to
// the consumer is received - acked in modular arithmetic, which holds for
// capacities up to MaxPages.
package circularbuffer

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// MaxChannels is the number of channels a tile supports.
	MaxChannels = 32

	// MaxPages is the largest capacity for which the counter arithmetic is
	// unambiguous.
	MaxPages = 1 << 16

	// ConfigEntryBytes is the size of one encoded config in the mailbox
	// table.
	ConfigEntryBytes = 16

	// PageAlign is the required alignment of page sizes and base addresses.
	PageAlign = 16
)

// ErrInvalidConfig is returned when a channel config cannot be used.
var ErrInvalidConfig = errors.New("circularbuffer: invalid config")

// Config describes where a channel lives in L1.
type Config struct {
	ID          uint32
	PageSize    uint32
	NumPages    uint32
	BaseAddress uint32
}

// Size returns the number of bytes the ring occupies.
func (c Config) Size() uint32 {
	return c.PageSize * c.NumPages
}

// Limit returns the first address after the ring.
func (c Config) Limit() uint32 {
	return c.BaseAddress + c.Size()
}

// Validate checks that the config can be placed in L1.
func (c Config) Validate() error {
	switch {
	case c.ID >= MaxChannels:
		return fmt.Errorf("%w: channel %d out of range [0, %d)",
			ErrInvalidConfig, c.ID, MaxChannels)
	case c.PageSize == 0 || c.PageSize%PageAlign != 0:
		return fmt.Errorf("%w: page size %d is not a positive multiple of %d",
			ErrInvalidConfig, c.PageSize, PageAlign)
	case c.NumPages > MaxPages:
		return fmt.Errorf("%w: %d pages exceeds %d",
			ErrInvalidConfig, c.NumPages, MaxPages)
	case c.BaseAddress%PageAlign != 0:
		return fmt.Errorf("%w: base 0x%x is not %d-byte aligned",
			ErrInvalidConfig, c.BaseAddress, PageAlign)
	case uint64(c.BaseAddress)+uint64(c.PageSize)*uint64(c.NumPages) >
		1<<32-1:
		return fmt.Errorf("%w: ring does not fit in a 32-bit address space",
			ErrInvalidConfig)
	}

	return nil
}

// Encode writes the config as four little-endian words: base address, ring
// size in bytes, page count and page size. The channel ID is the position of
// the entry in the table and is not encoded.
func (c Config) Encode() []byte {
	buf := make([]byte, ConfigEntryBytes)

	binary.LittleEndian.PutUint32(buf[0:], c.BaseAddress)
	binary.LittleEndian.PutUint32(buf[4:], c.Size())
	binary.LittleEndian.PutUint32(buf[8:], c.NumPages)
	binary.LittleEndian.PutUint32(buf[12:], c.PageSize)

	return buf
}

// DecodeConfig reads the config of the given channel from an encoded table
// entry.
func DecodeConfig(id uint32, buf []byte) (Config, error) {
	if len(buf) < ConfigEntryBytes {
		return Config{}, fmt.Errorf("%w: entry of %d bytes is too short",
			ErrInvalidConfig, len(buf))
	}

	c := Config{
		ID:          id,
		BaseAddress: binary.LittleEndian.Uint32(buf[0:]),
		NumPages:    binary.LittleEndian.Uint32(buf[8:]),
		PageSize:    binary.LittleEndian.Uint32(buf[12:]),
	}

	if size := binary.LittleEndian.Uint32(buf[4:]); size != c.Size() {
		return Config{}, fmt.Errorf(
			"%w: channel %d size %d disagrees with %d pages of %d bytes",
			ErrInvalidConfig, id, size, c.NumPages, c.PageSize)
	}

	return c, nil
}

// IsConfigured tells whether an encoded entry is in use. An all-zero entry
// marks an unused channel.
func IsConfigured(buf []byte) bool {
	for _, b := range buf[:ConfigEntryBytes] {
		if b != 0 {
			return true
		}
	}

	return false
}
