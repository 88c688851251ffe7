package tracing

import "github.com/sarchlab/tilestream/sim"

// A Tracer consumes the tasks and milestones that domains report.
type Tracer interface {
	StartTask(task Task)
	StepTask(task Task)
	EndTask(task Task)
	AddMilestone(milestone Milestone)
}

// CollectTrace forwards the tasks reported on the domain to the tracer.
func CollectTrace(d Domain, t Tracer) {
	d.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
		switch ctx.Pos {
		case HookPosTaskStart:
			t.StartTask(ctx.Item.(Task))
		case HookPosTaskStep:
			t.StepTask(ctx.Item.(Task))
		case HookPosTaskEnd:
			t.EndTask(ctx.Item.(Task))
		case HookPosMilestone:
			t.AddMilestone(ctx.Item.(Milestone))
		}
	}))
}
