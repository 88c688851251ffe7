package circularbuffer

import "log"

// Producer is the producing side's mirror of a channel.
type Producer struct {
	ring

	regs     *Registers
	received uint32
	reserved uint32
}

// NewProducer creates the producer mirror of a channel. The channel counters
// must have been reset before either side starts.
func NewProducer(cfg Config, regs *Registers) *Producer {
	return &Producer{
		ring:     newRing(cfg),
		regs:     regs,
		received: regs.Received(cfg.ID),
	}
}

// Config returns the channel config.
func (p *Producer) Config() Config {
	return p.cfg
}

// PagesFree returns the number of pages that can be reserved now.
func (p *Producer) PagesFree() uint32 {
	return p.capacity() - (p.received - p.regs.Acked(p.cfg.ID))
}

// TryReserve reserves n pages if they are free and returns the write pointer.
// It never succeeds when n exceeds the capacity.
func (p *Producer) TryReserve(n uint32) (uint32, bool) {
	if !p.checkBlock(n) {
		return 0, false
	}

	if p.PagesFree() < n {
		return 0, false
	}

	p.reserved = max(p.reserved, n)

	return p.ptr, true
}

// Reserve spins until n pages are free and returns the write pointer.
func (p *Producer) Reserve(n uint32, s Spinner) uint32 {
	for {
		if ptr, ok := p.TryReserve(n); ok {
			return ptr
		}

		s.Spin()
	}
}

// WritePtr returns the address of the next page to write.
func (p *Producer) WritePtr() uint32 {
	return p.ptr
}

// Reserved returns the number of pages reserved and not yet committed.
func (p *Producer) Reserved() uint32 {
	return p.reserved
}

// Commit makes n written pages visible to the consumer. The pages must have
// been reserved. The page contents must be fully written before Commit is
// called.
func (p *Producer) Commit(n uint32) {
	if n == 0 || n > p.reserved {
		log.Panicf("circularbuffer: channel %d: commit of %d pages, "+
			"%d reserved", p.cfg.ID, n, p.reserved)
	}

	p.advance(n)
	p.reserved -= n
	p.received += n

	pair := p.regs.pair(p.cfg.ID)
	pair.writePage.Store(p.page())
	pair.received.Add(n)
}
