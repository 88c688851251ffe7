package tracing

import "github.com/sarchlab/tilestream/sim"

// A TaskStep represents a milestone in the processing of task
type TaskStep struct {
	Time sim.VTimeInSec `json:"time"`
	What string         `json:"what"`
}

// A Task is a piece of work that a component performs. Transfers, memory
// requests, and the blocks that a kernel role streams are all tasks.
type Task struct {
	ID        string         `json:"id"`
	ParentID  string         `json:"parent_id"`
	Kind      string         `json:"kind"`
	What      string         `json:"what"`
	Location  string         `json:"location"`
	StartTime sim.VTimeInSec `json:"start_time"`
	EndTime   sim.VTimeInSec `json:"end_time"`
	Steps     []TaskStep     `json:"steps"`
	Detail    interface{}    `json:"-"`
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool

// Milestone represents a point in time where a task is blocked
type Milestone struct {
	ID               string  `json:"id"`
	TaskID           string  `json:"task_id"`
	BlockingCategory string  `json:"blocking_category"`
	BlockingReason   string  `json:"blocking_reason"`
	BlockingLocation string  `json:"blocking_location"`
	Time             float64 `json:"time"`
}

// Blocking categories used by milestones.
const (
	BlockingCategoryChannel = "channel"
	BlockingCategoryBarrier = "barrier"
	BlockingCategoryNetwork = "network"
)
