package sim

import (
	"log"
)

// A Component is a simulated hardware unit. It handles its own events and
// talks to other components through its ports.
type Component interface {
	Named
	Handler
	Hookable

	AddPort(name string, port Port)
	Ports() []Port

	NotifyRecv(port Port)
	NotifyPortFree(port Port)
}

// ComponentBase holds the name and the ports of a component.
type ComponentBase struct {
	HookableBase

	name  string
	ports []Port
	names map[string]bool
}

// NewComponentBase creates a ComponentBase with a valid hierarchical name.
func NewComponentBase(name string) *ComponentBase {
	NameMustBeValid(name)

	return &ComponentBase{name: name, names: make(map[string]bool)}
}

func (c *ComponentBase) Name() string {
	return c.name
}

// AddPort attaches a port under a name unique within the component.
func (c *ComponentBase) AddPort(name string, port Port) {
	if c.names[name] {
		log.Panicf("%s: port %s added twice", c.name, name)
	}

	c.names[name] = true
	c.ports = append(c.ports, port)
}

// Ports returns the ports in the order they were added.
func (c *ComponentBase) Ports() []Port {
	return append([]Port(nil), c.ports...)
}
