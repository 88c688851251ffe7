package circularbuffer

import "log"

// Consumer is the consuming side's mirror of a channel.
type Consumer struct {
	ring

	regs   *Registers
	acked  uint32
	waited uint32
}

// NewConsumer creates the consumer mirror of a channel.
func NewConsumer(cfg Config, regs *Registers) *Consumer {
	return &Consumer{
		ring:  newRing(cfg),
		regs:  regs,
		acked: regs.Acked(cfg.ID),
	}
}

// Config returns the channel config.
func (c *Consumer) Config() Config {
	return c.cfg
}

// PagesAvailable returns the number of committed pages not yet released.
func (c *Consumer) PagesAvailable() uint32 {
	return c.regs.Received(c.cfg.ID) - c.acked
}

// TryWait claims n committed pages if they are available and returns the
// read pointer.
func (c *Consumer) TryWait(n uint32) (uint32, bool) {
	if !c.checkBlock(n) {
		return 0, false
	}

	if c.PagesAvailable() < n {
		return 0, false
	}

	c.waited = max(c.waited, n)

	return c.ptr, true
}

// Wait spins until n pages are available and returns the read pointer.
func (c *Consumer) Wait(n uint32, s Spinner) uint32 {
	for {
		if ptr, ok := c.TryWait(n); ok {
			return ptr
		}

		s.Spin()
	}
}

// ReadPtr returns the address of the next page to read.
func (c *Consumer) ReadPtr() uint32 {
	return c.ptr
}

// Waited returns the number of pages claimed and not yet released.
func (c *Consumer) Waited() uint32 {
	return c.waited
}

// Release hands n consumed pages back to the producer.
func (c *Consumer) Release(n uint32) {
	if n == 0 || n > c.waited {
		log.Panicf("circularbuffer: channel %d: release of %d pages, "+
			"%d waited", c.cfg.ID, n, c.waited)
	}

	c.advance(n)
	c.waited -= n
	c.acked += n

	pair := c.regs.pair(c.cfg.ID)
	pair.readPage.Store(c.page())
	pair.acked.Add(n)
}
