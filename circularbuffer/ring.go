package circularbuffer

import "log"

// ring is the byte-pointer bookkeeping shared by both mirrors.
type ring struct {
	cfg Config
	ptr uint32
}

func newRing(cfg Config) ring {
	return ring{cfg: cfg, ptr: cfg.BaseAddress}
}

func (r *ring) capacity() uint32 {
	return r.cfg.NumPages
}

// checkBlock reports whether a block of n pages can ever fit. It panics if a
// block of n pages starting at the current pointer would straddle the end of
// the ring, which happens when n does not divide the capacity or when block
// sizes are mixed so that the pointer is left off an n-page boundary.
func (r *ring) checkBlock(n uint32) bool {
	if n == 0 {
		log.Panicf("circularbuffer: channel %d: block of 0 pages", r.cfg.ID)
	}

	c := r.capacity()
	if c == 0 || n > c {
		return false
	}

	if c%n != 0 {
		log.Panicf("circularbuffer: channel %d: block of %d pages "+
			"does not divide capacity %d", r.cfg.ID, n, c)
	}

	if r.ptr+n*r.cfg.PageSize > r.cfg.Limit() {
		log.Panicf("circularbuffer: channel %d: block of %d pages at page %d "+
			"straddles the end of a %d-page ring",
			r.cfg.ID, n, r.page(), c)
	}

	return true
}

// page returns the index of the page the pointer is at.
func (r *ring) page() uint32 {
	return (r.ptr - r.cfg.BaseAddress) / r.cfg.PageSize
}

func (r *ring) advance(n uint32) {
	r.ptr += n * r.cfg.PageSize
	if r.ptr >= r.cfg.Limit() {
		r.ptr -= r.cfg.Size()
	}
}
