package tracing

import (
	"log"
	"sync"

	"github.com/sarchlab/tilestream/datarecording"
	"github.com/sarchlab/tilestream/sim"
	"github.com/tebeka/atexit"
)

const (
	taskTableName      = "trace"
	milestoneTableName = "trace_milestones"
)

type taskTableEntry struct {
	ID        string
	ParentID  string
	Kind      string
	What      string
	Location  string
	StartTime float64
	EndTime   float64
	Finished  bool
}

// DBTracer is a tracer that can store tasks into a database through a
// DataRecorder.
type DBTracer struct {
	lock       sync.Mutex
	timeTeller sim.TimeTeller
	backend    datarecording.DataRecorder

	startTime, endTime sim.VTimeInSec

	tracingTasks map[string]Task
	terminated   bool
}

// NewDBTracer creates a new DBTracer.
func NewDBTracer(
	timeTeller sim.TimeTeller,
	dataRecorder datarecording.DataRecorder,
) *DBTracer {
	dataRecorder.CreateTable(taskTableName, taskTableEntry{})
	dataRecorder.CreateTable(milestoneTableName, Milestone{})

	t := &DBTracer{
		timeTeller:   timeTeller,
		backend:      dataRecorder,
		tracingTasks: make(map[string]Task),
	}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// SetTimeRange sets the time range of the tracer. Tasks that end before the
// start time or start after the end time are dropped. A zero value disables
// the bound.
func (t *DBTracer) SetTimeRange(startTime, endTime sim.VTimeInSec) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.startTime = startTime
	t.endTime = endTime
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if err := task.validate(); err != nil {
		log.Panicf("tracing: %v", err)
	}

	task.StartTime = t.timeTeller.CurrentTime()
	if t.endTime > 0 && task.StartTime > t.endTime {
		return
	}

	t.tracingTasks[task.ID] = task
}

// StepTask does nothing for now.
func (t *DBTracer) StepTask(_ Task) {
}

// AddMilestone records a milestone.
func (t *DBTracer) AddMilestone(milestone Milestone) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.terminated {
		return
	}

	t.backend.InsertData(milestoneTableName, milestone)
}

// EndTask marks the end of a task.
func (t *DBTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	originalTask, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	delete(t.tracingTasks, task.ID)

	originalTask.EndTime = t.timeTeller.CurrentTime()
	if t.startTime > 0 && originalTask.EndTime < t.startTime {
		return
	}

	t.write(originalTask, true)
}

func (t *DBTracer) write(task Task, finished bool) {
	t.backend.InsertData(taskTableName, taskTableEntry{
		ID:        task.ID,
		ParentID:  task.ParentID,
		Kind:      task.Kind,
		What:      task.What,
		Location:  task.Location,
		StartTime: float64(task.StartTime),
		EndTime:   float64(task.EndTime),
		Finished:  finished,
	})
}

// Terminate writes the tasks that are still running as unfinished tasks that
// end at the current time, and flushes the backend. A launch that hangs leaves
// its blocked tasks in the trace this way.
func (t *DBTracer) Terminate() {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.terminated {
		return
	}

	now := t.timeTeller.CurrentTime()
	for _, task := range t.tracingTasks {
		task.EndTime = now
		t.write(task, false)
	}

	t.tracingTasks = nil
	t.terminated = true
	t.backend.Flush()
}
