package tracing

import (
	"context"
	"sort"

	"github.com/sarchlab/tilestream/datarecording"
	"github.com/sarchlab/tilestream/sim"
)

// KindSummary aggregates the recorded tasks of one kind.
type KindSummary struct {
	Kind       string
	Count      int
	Unfinished int
	TotalTime  sim.VTimeInSec
}

// AverageTime is the mean duration of the tasks.
func (s KindSummary) AverageTime() sim.VTimeInSec {
	if s.Count == 0 {
		return 0
	}

	return s.TotalTime / sim.VTimeInSec(s.Count)
}

// BlockingSummary counts the milestones with one blocking reason.
type BlockingSummary struct {
	Category string
	Reason   string
	Count    int
}

// TraceSummary condenses a trace database. Stalled lists the tasks that
// were still running when the trace was closed, oldest first.
type TraceSummary struct {
	Kinds    []KindSummary
	Blocking []BlockingSummary
	Stalled  []Task
}

// SummarizeTrace reads the tables a DBTracer writes. A non-empty location
// keeps only the tasks and milestones whose location starts with it.
func SummarizeTrace(
	ctx context.Context,
	r datarecording.DataReader,
	location string,
) (TraceSummary, error) {
	r.MapTable(taskTableName, taskTableEntry{})
	r.MapTable(milestoneTableName, Milestone{})

	var s TraceSummary

	tasks, _, err := datarecording.QueryAs[taskTableEntry](ctx, r,
		taskTableName, locationFilter("Location", location, "StartTime"))
	if err != nil {
		return s, err
	}

	kinds := make(map[string]*KindSummary)

	for _, t := range tasks {
		k, ok := kinds[t.Kind]
		if !ok {
			k = &KindSummary{Kind: t.Kind}
			kinds[t.Kind] = k
		}

		k.Count++
		k.TotalTime += sim.VTimeInSec(t.EndTime - t.StartTime)

		if !t.Finished {
			k.Unfinished++
			s.Stalled = append(s.Stalled, t.task())
		}
	}

	for _, k := range kinds {
		s.Kinds = append(s.Kinds, *k)
	}

	sort.Slice(s.Kinds, func(i, j int) bool {
		return s.Kinds[i].Kind < s.Kinds[j].Kind
	})

	s.Blocking, err = summarizeBlocking(ctx, r, location)

	return s, err
}

func summarizeBlocking(
	ctx context.Context,
	r datarecording.DataReader,
	location string,
) ([]BlockingSummary, error) {
	milestones, _, err := datarecording.QueryAs[Milestone](ctx, r,
		milestoneTableName, locationFilter("BlockingLocation", location, ""))
	if err != nil {
		return nil, err
	}

	type key struct{ category, reason string }

	counts := make(map[key]int)
	for _, m := range milestones {
		counts[key{m.BlockingCategory, m.BlockingReason}]++
	}

	out := make([]BlockingSummary, 0, len(counts))
	for k, n := range counts {
		out = append(out, BlockingSummary{
			Category: k.category, Reason: k.reason, Count: n})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}

		return out[i].Category+out[i].Reason < out[j].Category+out[j].Reason
	})

	return out, nil
}

func locationFilter(column, prefix, orderBy string) datarecording.QueryParams {
	p := datarecording.QueryParams{OrderBy: orderBy}

	if prefix != "" {
		p.Where = column + " LIKE ? || '%'"
		p.Args = []any{prefix}
	}

	return p
}

func (e taskTableEntry) task() Task {
	return Task{
		ID:        e.ID,
		ParentID:  e.ParentID,
		Kind:      e.Kind,
		What:      e.What,
		Location:  e.Location,
		StartTime: sim.VTimeInSec(e.StartTime),
		EndTime:   sim.VTimeInSec(e.EndTime),
	}
}
