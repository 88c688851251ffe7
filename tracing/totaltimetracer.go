package tracing

import (
	"sync"

	"github.com/sarchlab/tilestream/sim"
)

// TotalTimeTracer sums the durations of matching tasks. Overlapping tasks
// each add their full duration.
type TotalTimeTracer struct {
	lock       sync.Mutex
	timeTeller sim.TimeTeller
	filter     TaskFilter

	started   map[string]sim.VTimeInSec
	totalTime sim.VTimeInSec
	taskCount uint64
}

// NewTotalTimeTracer creates a tracer for the tasks the filter accepts. A nil
// filter accepts every task.
func NewTotalTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *TotalTimeTracer {
	return &TotalTimeTracer{
		timeTeller: timeTeller,
		filter:     filter,
		started:    make(map[string]sim.VTimeInSec),
	}
}

// TotalTime is the summed duration of the completed tasks.
func (t *TotalTimeTracer) TotalTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.totalTime
}

// TaskCount is the number of completed tasks.
func (t *TotalTimeTracer) TaskCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskCount
}

// AverageTime is the mean duration of the completed tasks, or 0 before any
// task completes.
func (t *TotalTimeTracer) AverageTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.taskCount == 0 {
		return 0
	}

	return t.totalTime / sim.VTimeInSec(t.taskCount)
}

func (t *TotalTimeTracer) StartTask(task Task) {
	now := t.timeTeller.CurrentTime()

	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.started[task.ID] = now
}

func (t *TotalTimeTracer) EndTask(task Task) {
	now := t.timeTeller.CurrentTime()

	t.lock.Lock()
	defer t.lock.Unlock()

	start, ok := t.started[task.ID]
	if !ok {
		return
	}

	delete(t.started, task.ID)
	t.totalTime += now - start
	t.taskCount++
}

func (t *TotalTimeTracer) StepTask(_ Task) {}

func (t *TotalTimeTracer) AddMilestone(_ Milestone) {}
