package sim

import (
	"strconv"
	"sync/atomic"
)

// An IDGenerator hands out the IDs of messages, events and tasks.
type IDGenerator interface {
	Generate() string
}

// sequentialIDs numbers IDs from 1, so a serial simulation that runs twice
// produces the same IDs and the same traces.
type sequentialIDs struct {
	last atomic.Uint64
}

func (g *sequentialIDs) Generate() string {
	return strconv.FormatUint(g.last.Add(1), 10)
}

var ids sequentialIDs

// GetIDGenerator returns the generator shared by the whole process.
func GetIDGenerator() IDGenerator {
	return &ids
}
