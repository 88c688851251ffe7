package sim

// A TimeTeller reports the current simulated time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// An EventScheduler accepts events to handle later.
type EventScheduler interface {
	Schedule(e Event)
}

// A DrainHandler is told when an engine runs out of events. For a device
// model that means every component has gone quiet.
type DrainHandler interface {
	Drained(now VTimeInSec)
}

// An Engine drives a discrete event simulation.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run handles events in time order until none is left or a handler
	// returns an error. When the queue drains, Run notifies the drain
	// handlers before returning.
	Run() error

	// Pause holds the engine between two events until Continue is called.
	Pause()
	Continue()
	Paused() bool

	// OnDrain registers a handler that Run calls when the queue drains.
	OnDrain(handler DrainHandler)
}
