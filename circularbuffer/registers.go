package circularbuffer

import (
	"fmt"
	"sync/atomic"
)

// counterPair also carries the page index each side's pointer is at, so that
// observers see the cursors without depending on the counters wrapping at a
// multiple of the capacity.
type counterPair struct {
	received atomic.Uint32
	acked    atomic.Uint32

	writePage atomic.Uint32
	readPage  atomic.Uint32
}

// Registers is the register file of a tile that holds the channel counters.
// It is the only state the two mirrors of a channel share.
type Registers struct {
	pairs [MaxChannels]counterPair
}

// NewRegisters creates a register file with all counters at zero.
func NewRegisters() *Registers {
	return &Registers{}
}

func (r *Registers) pair(id uint32) *counterPair {
	if id >= MaxChannels {
		panic(fmt.Sprintf("circularbuffer: channel %d out of range", id))
	}

	return &r.pairs[id]
}

// Received returns the number of pages the producer has committed.
func (r *Registers) Received(id uint32) uint32 {
	return r.pair(id).received.Load()
}

// Acked returns the number of pages the consumer has released.
func (r *Registers) Acked(id uint32) uint32 {
	return r.pair(id).acked.Load()
}

// WritePage returns the page index the producer writes next.
func (r *Registers) WritePage(id uint32) uint32 {
	return r.pair(id).writePage.Load()
}

// ReadPage returns the page index the consumer reads next.
func (r *Registers) ReadPage(id uint32) uint32 {
	return r.pair(id).readPage.Load()
}

// Reset clears the counters of one channel. It must only be called while
// neither side of the channel is running.
func (r *Registers) Reset(id uint32) {
	p := r.pair(id)
	p.received.Store(0)
	p.acked.Store(0)
	p.writePage.Store(0)
	p.readPage.Store(0)
}

// ResetAll clears every counter.
func (r *Registers) ResetAll() {
	for id := uint32(0); id < MaxChannels; id++ {
		r.Reset(id)
	}
}
