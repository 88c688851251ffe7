package noc

import (
	"log"
	"sync"

	"github.com/sarchlab/tilestream/sim"
)

// MapRouter finds the port that serves the coordinate of an address.
type MapRouter struct {
	lock  sync.RWMutex
	ports map[Coord]sim.RemotePort
}

// NewMapRouter creates an empty router.
func NewMapRouter() *MapRouter {
	return &MapRouter{ports: make(map[Coord]sim.RemotePort)}
}

// Add registers the port that serves a coordinate.
func (r *MapRouter) Add(c Coord, port sim.RemotePort) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if existing, found := r.ports[c]; found {
		log.Panicf("noc: coordinate %s already served by %s", c, existing)
	}

	r.ports[c] = port
}

// Lookup returns the port serving a coordinate.
func (r *MapRouter) Lookup(c Coord) (sim.RemotePort, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	p, found := r.ports[c]

	return p, found
}

// Find returns the port that serves the address.
func (r *MapRouter) Find(address uint64) sim.RemotePort {
	c := CoordOf(address)

	p, found := r.Lookup(c)
	if !found {
		log.Panicf("noc: no endpoint at %s for address 0x%x", c, address)
	}

	return p
}

// OffsetConverter lets a memory controller that sits at a coordinate index
// its storage with the offset part of interconnect addresses.
type OffsetConverter struct {
	Coord Coord
}

// ConvertExternalToInternal strips the coordinate.
func (c OffsetConverter) ConvertExternalToInternal(external uint64) uint64 {
	return OffsetOf(external)
}

// ConvertInternalToExternal adds the coordinate.
func (c OffsetConverter) ConvertInternalToExternal(internal uint64) uint64 {
	return Addr(c.Coord, internal)
}
