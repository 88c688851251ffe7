package sim

// VTimeInSec is a point in simulated time, in seconds.
type VTimeInSec float64

// An Event is an action due at a point in simulated time. When the time
// comes the engine passes the event to its handler.
//
// A secondary event runs after every primary event due at the same time.
// Connections tick on secondary events so that all the components sending at
// a cycle have sent before the connection moves the messages.
type Event interface {
	Time() VTimeInSec
	Handler() Handler
	IsSecondary() bool
}

// A Handler owns the events scheduled for it. An event only ever changes the
// state of its own handler.
type Handler interface {
	Handle(e Event) error
}

// EventBase holds what every event carries. Concrete events embed it.
type EventBase struct {
	ID        string
	time      VTimeInSec
	handler   Handler
	secondary bool
}

// NewEventBase creates the base of a primary event due at t.
func NewEventBase(t VTimeInSec, handler Handler) *EventBase {
	return &EventBase{
		ID:      GetIDGenerator().Generate(),
		time:    t,
		handler: handler,
	}
}

func (e EventBase) Time() VTimeInSec {
	return e.time
}

func (e EventBase) Handler() Handler {
	return e.handler
}

func (e EventBase) IsSecondary() bool {
	return e.secondary
}
