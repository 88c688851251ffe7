package datarecording

import (
	"os"
	"strings"
	"time"
)

const execTableName = "exec_info"

// ExecInfo is one property of a program execution.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecRecorder records when and how the program was executed.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

// NewExecRecorder creates an ExecRecorder that writes into the given
// recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	recorder.CreateTable(execTableName, ExecInfo{})

	return &ExecRecorder{recorder: recorder}
}

// Start logs the start of the current execution.
func (e *ExecRecorder) Start() {
	e.entries = append(e.entries,
		ExecInfo{"Start Time", now()},
		ExecInfo{"Command", strings.Join(os.Args, " ")},
	)

	if cwd, err := os.Getwd(); err == nil {
		e.entries = append(e.entries, ExecInfo{"Working Directory", cwd})
	}
}

// Set records an extra property of the execution.
func (e *ExecRecorder) Set(property, value string) {
	e.entries = append(e.entries, ExecInfo{property, value})
}

// End writes all the properties along with the exit time.
func (e *ExecRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(execTableName, entry)
	}

	e.recorder.InsertData(execTableName, ExecInfo{"End Time", now()})
	e.entries = nil

	e.recorder.Flush()
}

func now() string {
	return time.Now().Format("2006-01-02 15:04:05.000000000")
}
