package sim

import (
	"log"
	"math"
	"reflect"
	"sync"
	"sync/atomic"
)

// A SerialEngine handles one event at a time in time order.
//
// Pausing holds the step lock, so a paused engine stops between two events
// and Run blocks until Continue releases it. The driver's watchdog and the
// monitor both pause from other goroutines.
type SerialEngine struct {
	HookableBase

	now   atomic.Uint64
	queue EventQueue

	runLock   sync.Mutex
	stepLock  sync.Mutex
	pauseLock sync.Mutex
	paused    bool

	drainHandlers []DrainHandler
}

// NewSerialEngine creates a SerialEngine at time 0.
func NewSerialEngine() *SerialEngine {
	return &SerialEngine{queue: NewEventQueue()}
}

// Schedule queues an event. Scheduling into the past is a modelling bug and
// panics.
func (e *SerialEngine) Schedule(evt Event) {
	if now := e.CurrentTime(); evt.Time() < now {
		log.Panicf("cannot schedule %s at %.10f, it is %.10f already",
			reflect.TypeOf(evt), evt.Time(), now)
	}

	e.queue.Push(evt)
}

// CurrentTime returns the time of the event being handled, or of the last
// one handled.
func (e *SerialEngine) CurrentTime() VTimeInSec {
	return VTimeInSec(math.Float64frombits(e.now.Load()))
}

// Run handles events until the queue drains or a handler fails.
func (e *SerialEngine) Run() error {
	e.runLock.Lock()
	defer e.runLock.Unlock()

	for {
		handled, err := e.step()
		if err != nil {
			return err
		}

		if !handled {
			break
		}
	}

	now := e.CurrentTime()
	for _, h := range e.drainHandlers {
		h.Drained(now)
	}

	return nil
}

// step handles the earliest event and reports whether there was one.
func (e *SerialEngine) step() (bool, error) {
	e.stepLock.Lock()
	defer e.stepLock.Unlock()

	if e.queue.Len() == 0 {
		return false, nil
	}

	evt := e.queue.Pop()
	e.now.Store(math.Float64bits(float64(evt.Time())))

	ctx := HookCtx{Domain: e, Pos: HookPosBeforeEvent, Item: evt}
	e.InvokeHook(ctx)

	if err := evt.Handler().Handle(evt); err != nil {
		return false, err
	}

	ctx.Pos = HookPosAfterEvent
	e.InvokeHook(ctx)

	return true, nil
}

// Pause returns once the event being handled, if any, completes. No further
// event is handled until Continue.
func (e *SerialEngine) Pause() {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	if e.paused {
		return
	}

	e.stepLock.Lock()
	e.paused = true
}

// Continue lets a paused engine handle events again.
func (e *SerialEngine) Continue() {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	if !e.paused {
		return
	}

	e.paused = false
	e.stepLock.Unlock()
}

// Paused tells whether the engine is held by Pause.
func (e *SerialEngine) Paused() bool {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	return e.paused
}

// OnDrain registers a handler to call each time Run drains the queue.
func (e *SerialEngine) OnDrain(handler DrainHandler) {
	e.drainHandlers = append(e.drainHandlers, handler)
}
