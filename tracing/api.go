package tracing

import (
	"fmt"
	"log"
	"reflect"

	"github.com/sarchlab/tilestream/sim"
)

// A Domain is a named component whose tasks can be traced.
type Domain interface {
	sim.Named
	sim.Hookable
}

// Kinds of tasks that a device reports.
const (
	// KindRole spans a kernel role from load to completion.
	KindRole = "role"
	// KindBlock spans one block streamed by a role.
	KindBlock = "block"
	// KindReqOut spans a request from its issue to its response.
	KindReqOut = "req_out"
	// KindReqIn spans the handling of a request at its receiver.
	KindReqIn = "req_in"
)

// Hook positions at which tracers see tasks.
var (
	HookPosTaskStart = &sim.HookPos{Name: "HookPosTaskStart"}
	HookPosTaskStep  = &sim.HookPos{Name: "HookPosTaskStep"}
	HookPosTaskEnd   = &sim.HookPos{Name: "HookPosTaskEnd"}
	HookPosMilestone = &sim.HookPos{Name: "HookPosMilestone"}
)

func report(d Domain, pos *sim.HookPos, item any) {
	d.InvokeHook(sim.HookCtx{Domain: d, Pos: pos, Item: item})
}

// StartTask reports a new task on the domain. The task is placed at the
// domain unless it names its own location. Nothing is checked or built when
// the domain carries no hooks.
func StartTask(d Domain, t Task) {
	if d.NumHooks() == 0 {
		return
	}

	if t.Location == "" {
		t.Location = d.Name()
	}

	if err := t.validate(); err != nil {
		log.Panicf("tracing: %s: %v", d.Name(), err)
	}

	report(d, HookPosTaskStart, t)
}

func (t Task) validate() error {
	switch {
	case t.ID == "":
		return fmt.Errorf("task without an ID")
	case t.Kind == "":
		return fmt.Errorf("task %s without a kind", t.ID)
	case t.What == "":
		return fmt.Errorf("task %s without a description", t.ID)
	case t.Location == "":
		return fmt.Errorf("task %s without a location", t.ID)
	}

	return nil
}

// StepTask records that the task has passed a named step.
func StepTask(d Domain, id, what string) {
	if d.NumHooks() == 0 {
		return
	}

	report(d, HookPosTaskStep, Task{ID: id, Steps: []TaskStep{{What: what}}})
}

// EndTask reports that the task is complete.
func EndTask(d Domain, id string) {
	if d.NumHooks() == 0 {
		return
	}

	report(d, HookPosTaskEnd, Task{ID: id})
}

// AddMilestone reports that the task waits on something in the given
// category.
func AddMilestone(
	d Domain,
	taskID, category, reason string,
	now sim.VTimeInSec,
) {
	if d.NumHooks() == 0 {
		return
	}

	report(d, HookPosMilestone, Milestone{
		ID:               sim.GetIDGenerator().Generate(),
		TaskID:           taskID,
		BlockingCategory: category,
		BlockingReason:   reason,
		BlockingLocation: d.Name(),
		Time:             float64(now),
	})
}

// ReqOutID is the ID of the task that a request spans at its sender.
func ReqOutID(msg sim.Msg) string {
	return msg.Meta().ID + "_" + KindReqOut
}

// ReqInID is the ID of the task that a request spans at its receiver.
func ReqInID(msg sim.Msg, receiver Domain) string {
	return msg.Meta().ID + "@" + receiver.Name()
}

func msgTask(id, parent, kind string, msg sim.Msg) Task {
	return Task{
		ID:       id,
		ParentID: parent,
		Kind:     kind,
		What:     reflect.TypeOf(msg).String(),
		Detail:   msg,
	}
}

// SendReq starts the sender side task of a request under the given parent.
func SendReq(d Domain, msg sim.Msg, parent string) {
	StartTask(d, msgTask(ReqOutID(msg), parent, KindReqOut, msg))
}

// ReceiveReq starts the receiver side task of a request.
func ReceiveReq(d Domain, msg sim.Msg) {
	StartTask(d, msgTask(ReqInID(msg, d), ReqOutID(msg), KindReqIn, msg))
}

// ServeReq ends the receiver side task of a request.
func ServeReq(d Domain, msg sim.Msg) {
	EndTask(d, ReqInID(msg, d))
}

// CompleteReq ends the sender side task of a request once it is answered.
func CompleteReq(d Domain, msg sim.Msg) {
	EndTask(d, ReqOutID(msg))
}
