package tracing

import (
	"sync"
)

// StepCountTracer counts the steps that matching tasks pass. For the blocks
// of a role, the steps are the streaming phases, so the counts show how
// often each phase ran and how many blocks reached it.
type StepCountTracer struct {
	lock   sync.Mutex
	filter TaskFilter

	// seen holds, per task in flight, the steps the task has passed.
	seen  map[string]map[string]bool
	names []string
	steps map[string]uint64
	tasks map[string]uint64
}

// NewStepCountTracer creates a tracer for the tasks the filter accepts. A
// nil filter accepts every task.
func NewStepCountTracer(filter TaskFilter) *StepCountTracer {
	return &StepCountTracer{
		filter: filter,
		seen:   make(map[string]map[string]bool),
		steps:  make(map[string]uint64),
		tasks:  make(map[string]uint64),
	}
}

// StepNames lists the steps in the order they were first reached.
func (t *StepCountTracer) StepNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.names...)
}

// StepCount is how many times a step was reached.
func (t *StepCountTracer) StepCount(step string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.steps[step]
}

// TaskCount is how many tasks reached a step at least once.
func (t *StepCountTracer) TaskCount(step string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.tasks[step]
}

func (t *StepCountTracer) StartTask(task Task) {
	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.seen[task.ID] = make(map[string]bool)
}

func (t *StepCountTracer) StepTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	seen, ok := t.seen[task.ID]
	if !ok || len(task.Steps) == 0 {
		return
	}

	step := task.Steps[0].What

	if _, known := t.steps[step]; !known {
		t.names = append(t.names, step)
	}

	t.steps[step]++

	if !seen[step] {
		seen[step] = true
		t.tasks[step]++
	}
}

func (t *StepCountTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	delete(t.seen, task.ID)
}

func (t *StepCountTracer) AddMilestone(_ Milestone) {}
