package circularbuffer

import (
	"errors"
	"fmt"
)

// ErrInconsistent is returned by Snapshot.Check.
var ErrInconsistent = errors.New("circularbuffer: inconsistent channel state")

// Snapshot is the externally observable state of a channel. Cursors are page
// indices into the ring.
type Snapshot struct {
	ID          uint32 `json:"id"`
	PageSize    uint32 `json:"page_size"`
	Capacity    uint32 `json:"capacity"`
	Base        uint32 `json:"base"`
	ReadCursor  uint32 `json:"read_cursor"`
	WriteCursor uint32 `json:"write_cursor"`
	Available   uint32 `json:"available"`
}

// Observe reads the counters of a channel and describes its state.
func Observe(cfg Config, regs *Registers) Snapshot {
	received := regs.Received(cfg.ID)
	acked := regs.Acked(cfg.ID)

	s := Snapshot{
		ID:        cfg.ID,
		PageSize:  cfg.PageSize,
		Capacity:  cfg.NumPages,
		Base:      cfg.BaseAddress,
		Available: received - acked,
	}

	if cfg.NumPages > 0 {
		s.ReadCursor = regs.ReadPage(cfg.ID)
		s.WriteCursor = regs.WritePage(cfg.ID)
	}

	return s
}

// Full tells whether the producer is blocked.
func (s Snapshot) Full() bool {
	return s.Available == s.Capacity
}

// Empty tells whether the consumer is blocked.
func (s Snapshot) Empty() bool {
	return s.Available == 0
}

// Check verifies the channel invariants.
func (s Snapshot) Check() error {
	if s.Available > s.Capacity {
		return fmt.Errorf("%w: channel %d has %d pages available, capacity %d",
			ErrInconsistent, s.ID, s.Available, s.Capacity)
	}

	if s.Capacity == 0 {
		return nil
	}

	if s.ReadCursor >= s.Capacity || s.WriteCursor >= s.Capacity {
		return fmt.Errorf("%w: channel %d cursors %d/%d beyond capacity %d",
			ErrInconsistent, s.ID, s.ReadCursor, s.WriteCursor, s.Capacity)
	}

	diff := (s.WriteCursor + s.Capacity - s.ReadCursor) % s.Capacity
	if diff != s.Available%s.Capacity {
		return fmt.Errorf("%w: channel %d cursors %d/%d disagree with "+
			"%d pages available", ErrInconsistent, s.ID,
			s.ReadCursor, s.WriteCursor, s.Available)
	}

	return nil
}
