package tracing

import (
	"sync"

	"github.com/sarchlab/tilestream/sim"
)

// BusyTimeTracer measures how long at least one matching task is in flight.
// Overlapping tasks count once, so for NIU transfers the result is the time
// the NIU had any traffic outstanding.
type BusyTimeTracer struct {
	lock       sync.Mutex
	timeTeller sim.TimeTeller
	filter     TaskFilter

	inflight  map[string]struct{}
	busySince sim.VTimeInSec
	busyTime  sim.VTimeInSec
}

// NewBusyTimeTracer creates a tracer for the tasks the filter accepts. A nil
// filter accepts every task.
func NewBusyTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *BusyTimeTracer {
	return &BusyTimeTracer{
		timeTeller: timeTeller,
		filter:     filter,
		inflight:   make(map[string]struct{}),
	}
}

// BusyTime returns the busy time up to the last moment the tracer went idle.
// A busy period that is still open is not counted.
func (t *BusyTimeTracer) BusyTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.busyTime
}

// StartTask opens a busy period if the tracer was idle.
func (t *BusyTimeTracer) StartTask(task Task) {
	now := t.timeTeller.CurrentTime()

	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if len(t.inflight) == 0 {
		t.busySince = now
	}

	t.inflight[task.ID] = struct{}{}
}

// EndTask closes the busy period when the last task in flight ends.
func (t *BusyTimeTracer) EndTask(task Task) {
	now := t.timeTeller.CurrentTime()

	t.lock.Lock()
	defer t.lock.Unlock()

	if _, ok := t.inflight[task.ID]; !ok {
		return
	}

	delete(t.inflight, task.ID)

	if len(t.inflight) == 0 {
		t.busyTime += now - t.busySince
	}
}

func (t *BusyTimeTracer) StepTask(_ Task) {}

func (t *BusyTimeTracer) AddMilestone(_ Milestone) {}
