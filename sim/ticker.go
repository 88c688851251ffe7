package sim

import (
	"sync"
)

// TickEvent wakes a ticking component up for one cycle.
type TickEvent struct {
	EventBase
}

// MakeTickEvent creates a primary tick for the handler at the given time.
func MakeTickEvent(handler Handler, time VTimeInSec) TickEvent {
	return TickEvent{EventBase: *NewEventBase(time, handler)}
}

// A Ticker advances its state by one cycle and reports whether anything
// changed. A ticker that made no progress sleeps until a port wakes it.
type Ticker interface {
	Tick() bool
}

// TickScheduler keeps at most one pending tick for a handler.
type TickScheduler struct {
	lock      sync.Mutex
	handler   Handler
	engine    Engine
	freq      Freq
	secondary bool

	// pending is the time of the latest scheduled tick, -1 before the first.
	pending VTimeInSec
}

// NewTickScheduler creates a scheduler for primary ticks.
func NewTickScheduler(handler Handler, engine Engine, freq Freq) *TickScheduler {
	return &TickScheduler{
		handler: handler,
		engine:  engine,
		freq:    freq,
		pending: -1,
	}
}

// NewSecondaryTickScheduler creates a scheduler whose ticks run after the
// primary events of their cycle.
func NewSecondaryTickScheduler(
	handler Handler,
	engine Engine,
	freq Freq,
) *TickScheduler {
	s := NewTickScheduler(handler, engine, freq)
	s.secondary = true

	return s
}

// TickNow makes sure a tick runs in the current cycle.
func (t *TickScheduler) TickNow() {
	t.tickAt(t.freq.ThisTick)
}

// TickLater makes sure a tick runs in the next cycle.
func (t *TickScheduler) TickLater() {
	t.tickAt(t.freq.NextTick)
}

func (t *TickScheduler) tickAt(cycle func(VTimeInSec) VTimeInSec) {
	t.lock.Lock()
	defer t.lock.Unlock()

	time := cycle(t.engine.CurrentTime())
	if time <= t.pending {
		return
	}

	t.pending = time

	tick := MakeTickEvent(t.handler, time)
	tick.secondary = t.secondary
	t.engine.Schedule(tick)
}

// CurrentTime returns the time of the engine that runs the ticks.
func (t *TickScheduler) CurrentTime() VTimeInSec {
	return t.engine.CurrentTime()
}

// TickingComponent runs a Ticker once per cycle for as long as it makes
// progress. Receiving a message or a port freeing up wakes it again.
type TickingComponent struct {
	*ComponentBase
	*TickScheduler

	ticker Ticker
}

// NewTickingComponent creates a component that ticks with primary events.
func NewTickingComponent(
	name string,
	engine Engine,
	freq Freq,
	ticker Ticker,
) *TickingComponent {
	return newTickingComponent(name, ticker, func(h Handler) *TickScheduler {
		return NewTickScheduler(h, engine, freq)
	})
}

// NewSecondaryTickingComponent creates a component that ticks after all the
// primary events of each cycle.
func NewSecondaryTickingComponent(
	name string,
	engine Engine,
	freq Freq,
	ticker Ticker,
) *TickingComponent {
	return newTickingComponent(name, ticker, func(h Handler) *TickScheduler {
		return NewSecondaryTickScheduler(h, engine, freq)
	})
}

func newTickingComponent(
	name string,
	ticker Ticker,
	scheduler func(Handler) *TickScheduler,
) *TickingComponent {
	c := &TickingComponent{
		ComponentBase: NewComponentBase(name),
		ticker:        ticker,
	}
	c.TickScheduler = scheduler(c)

	return c
}

// Handle runs one cycle and keeps ticking if it made progress.
func (c *TickingComponent) Handle(_ Event) error {
	if c.ticker.Tick() {
		c.TickLater()
	}

	return nil
}

// NotifyRecv wakes the component up.
func (c *TickingComponent) NotifyRecv(_ Port) {
	c.TickLater()
}

// NotifyPortFree wakes the component up.
func (c *TickingComponent) NotifyPortFree(_ Port) {
	c.TickLater()
}
