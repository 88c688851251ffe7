package kernel

import (
	"github.com/sarchlab/tilestream/sim"
	"github.com/sarchlab/tilestream/tracing"
)

// A Program is a kernel bound to its arguments. It processes a statically
// known number of blocks. Each block goes through the four phases in order;
// Acquire and Settled are polled until they report true.
type Program interface {
	NumBlocks() int

	// Acquire claims the channel space the block needs.
	Acquire(block int) bool

	// Issue starts the work of the block: transfers or a transform.
	Issue(block int)

	// Settled tells whether the work of the block has completed.
	Settled(block int) bool

	// Retire commits the output and releases the input of the block.
	Retire(block int)
}

type phase int

const (
	phaseAcquire phase = iota
	phaseIssue
	phaseSettle
	phaseRetire
)

var phaseNames = [...]string{"acquire", "issue", "settle", "retire"}

// NIUTracer is implemented by the NIU so that packets are attributed to the
// block that issued them.
type NIUTracer interface {
	SetTraceParent(taskID string)
}

// Streamer drives a Program through its blocks. There is no early exit: the
// streamer finishes only when every block has been retired.
type Streamer struct {
	prog   Program
	domain tracing.Domain
	clock  sim.TimeTeller
	niu    NIUTracer
	what   string
	parent string

	block       int
	phase       phase
	blockTaskID string
	blocked     bool
}

// NewStreamer creates a streamer. Block tasks are reported to the domain as
// children of the parent task.
func NewStreamer(
	prog Program,
	domain tracing.Domain,
	clock sim.TimeTeller,
	what string,
	parent string,
) *Streamer {
	return &Streamer{
		prog:   prog,
		domain: domain,
		clock:  clock,
		what:   what,
		parent: parent,
	}
}

// AttributeTransfers makes the streamer tag the packets issued by a block
// with the block's task.
func (s *Streamer) AttributeTransfers(niu NIUTracer) {
	s.niu = niu
}

// Block returns the index of the block in progress.
func (s *Streamer) Block() int {
	return s.block
}

// Done tells whether every block has been retired.
func (s *Streamer) Done() bool {
	return s.block >= s.prog.NumBlocks()
}

// Step advances through as many phases as possible. It returns when a phase
// has to wait or when all the blocks are done.
func (s *Streamer) Step() {
	for !s.Done() {
		if !s.stepPhase() {
			return
		}
	}
}

func (s *Streamer) stepPhase() bool {
	switch s.phase {
	case phaseAcquire:
		if s.blockTaskID == "" {
			s.startBlock()
		}

		if !s.prog.Acquire(s.block) {
			s.markBlocked(tracing.BlockingCategoryChannel)
			return false
		}
	case phaseIssue:
		if s.niu != nil {
			s.niu.SetTraceParent(s.blockTaskID)
		}

		s.prog.Issue(s.block)
	case phaseSettle:
		if !s.prog.Settled(s.block) {
			s.markBlocked(tracing.BlockingCategoryBarrier)
			return false
		}
	case phaseRetire:
		s.prog.Retire(s.block)
	}

	tracing.StepTask(s.domain, s.blockTaskID, phaseNames[s.phase])
	s.blocked = false

	if s.phase == phaseRetire {
		tracing.EndTask(s.domain, s.blockTaskID)
		s.blockTaskID = ""
		s.block++
		s.phase = phaseAcquire

		return true
	}

	s.phase++

	return true
}

func (s *Streamer) startBlock() {
	s.blockTaskID = sim.GetIDGenerator().Generate()
	tracing.StartTask(s.domain, tracing.Task{
		ID:       s.blockTaskID,
		ParentID: s.parent,
		Kind:     tracing.KindBlock,
		What:     s.what,
		Detail:   s.block,
	})
}

func (s *Streamer) markBlocked(category string) {
	if s.blocked {
		return
	}

	s.blocked = true
	tracing.AddMilestone(s.domain, s.blockTaskID, category,
		phaseNames[s.phase], s.clock.CurrentTime())
}
