package noc

import (
	"log"
	"reflect"
	"sync"

	"github.com/sarchlab/tilestream/sim"
)

// HookPosFabricDeliver marks a packet reaching its destination port.
var HookPosFabricDeliver = &sim.HookPos{Name: "Fabric Deliver"}

type deliverEvent struct {
	*sim.EventBase
	msg sim.Msg
}

type retryEvent struct {
	*sim.EventBase
	dst sim.RemotePort
}

type fabricEnd struct {
	port     sim.Port
	coord    Coord
	bufSize  int
	inflight int
	busy     bool

	// Packets that reached this end while its port was full, in arrival
	// order.
	stalled []sim.Msg
}

// FabricStats counts the traffic carried by the fabric.
type FabricStats struct {
	Delivered uint64
	Bytes     uint64
	Hops      uint64
}

// Fabric is the interconnect connection. A packet takes BaseLatency cycles
// plus HopLatency cycles for every hop between the coordinates of its source
// and its destination. Each source can have a bounded number of packets in
// flight.
type Fabric struct {
	sim.HookableBase

	lock   sync.Mutex
	name   string
	engine sim.Engine
	freq   sim.Freq

	baseLatency int
	hopLatency  int

	ends   map[sim.RemotePort]*fabricEnd
	coords map[sim.RemotePort]Coord
	stats  FabricStats
}

// Name returns the name of the fabric.
func (f *Fabric) Name() string {
	return f.name
}

// Place assigns a coordinate to a port before it is plugged in.
func (f *Fabric) Place(port sim.Port, c Coord) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.coords[port.AsRemote()] = c
}

// PlugInAt places the port at the coordinate and plugs it in.
func (f *Fabric) PlugInAt(port sim.Port, c Coord, sourceSideBufSize int) {
	f.Place(port, c)
	f.PlugIn(port, sourceSideBufSize)
}

// PlugIn connects a port to the fabric at the coordinate assigned by Place,
// or at the origin.
func (f *Fabric) PlugIn(port sim.Port, sourceSideBufSize int) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if _, found := f.ends[port.AsRemote()]; found {
		log.Panicf("port %s already plugged in", port.Name())
	}

	f.ends[port.AsRemote()] = &fabricEnd{
		port:    port,
		coord:   f.coords[port.AsRemote()],
		bufSize: sourceSideBufSize,
	}

	port.SetConnection(f)
}

// CoordOfPort returns the coordinate of a plugged-in port.
func (f *Fabric) CoordOfPort(p sim.RemotePort) Coord {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.mustFindEnd(p).coord
}

// Latency returns the number of cycles a packet takes between two
// coordinates.
func (f *Fabric) Latency(src, dst Coord) int {
	return f.baseLatency + f.hopLatency*src.Hops(dst)
}

// Stats returns the traffic counters.
func (f *Fabric) Stats() FabricStats {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.stats
}

// CanSend checks if the source can put one more packet in flight.
func (f *Fabric) CanSend(src sim.Port) bool {
	f.lock.Lock()
	defer f.lock.Unlock()

	end := f.mustFindEnd(src.AsRemote())
	if end.inflight >= end.bufSize {
		end.busy = true
		return false
	}

	return true
}

// Send puts a packet in flight.
func (f *Fabric) Send(msg sim.Msg) *sim.SendError {
	f.lock.Lock()

	src := f.mustFindEnd(msg.Meta().Src)
	dst, found := f.ends[msg.Meta().Dst]
	if !found {
		f.lock.Unlock()
		log.Panicf("destination %s not connected to %s",
			msg.Meta().Dst, f.name)
	}

	if src.inflight >= src.bufSize {
		src.busy = true
		f.lock.Unlock()

		return sim.NewSendError()
	}

	src.inflight++
	now := f.engine.CurrentTime()
	msg.Meta().SendTime = now
	latency := f.Latency(src.coord, dst.coord)
	f.stats.Hops += uint64(src.coord.Hops(dst.coord))
	f.lock.Unlock()

	evt := &deliverEvent{
		EventBase: sim.NewEventBase(f.freq.NCyclesLater(latency, now), f),
		msg:       msg,
	}
	f.engine.Schedule(evt)

	return nil
}

// NotifyAvailable is called by a destination port that has room again.
func (f *Fabric) NotifyAvailable(port sim.Port) {
	evt := &retryEvent{
		EventBase: sim.NewEventBase(f.engine.CurrentTime(), f),
		dst:       port.AsRemote(),
	}
	f.engine.Schedule(evt)
}

// Handle delivers packets.
func (f *Fabric) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *deliverEvent:
		f.handleDeliver(e)
	case *retryEvent:
		f.drainStalled(e.dst)
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}

	return nil
}

func (f *Fabric) handleDeliver(e *deliverEvent) {
	f.lock.Lock()
	dst := f.mustFindEnd(e.msg.Meta().Dst)
	dst.stalled = append(dst.stalled, e.msg)
	f.lock.Unlock()

	f.drainStalled(dst.port.AsRemote())
}

func (f *Fabric) drainStalled(p sim.RemotePort) {
	for {
		f.lock.Lock()
		dst := f.mustFindEnd(p)

		if len(dst.stalled) == 0 {
			f.lock.Unlock()
			return
		}

		msg := dst.stalled[0]
		f.lock.Unlock()

		msg.Meta().RecvTime = f.engine.CurrentTime()
		if err := dst.port.Deliver(msg); err != nil {
			return
		}

		f.lock.Lock()
		dst.stalled = dst.stalled[1:]
		src := f.mustFindEnd(msg.Meta().Src)
		src.inflight--
		wasBusy := src.busy
		src.busy = false
		f.stats.Delivered++
		f.stats.Bytes += uint64(msg.Meta().TrafficBytes)
		f.lock.Unlock()

		if f.NumHooks() > 0 {
			f.InvokeHook(sim.HookCtx{
				Domain: f,
				Pos:    HookPosFabricDeliver,
				Item:   msg,
			})
		}

		if wasBusy {
			src.port.NotifyAvailable()
		}
	}
}

func (f *Fabric) mustFindEnd(p sim.RemotePort) *fabricEnd {
	end, found := f.ends[p]
	if !found {
		log.Panicf("port %s is not connected to %s", p, f.name)
	}

	return end
}

// FabricBuilder builds fabrics.
type FabricBuilder struct {
	engine      sim.Engine
	freq        sim.Freq
	baseLatency int
	hopLatency  int
}

// MakeFabricBuilder creates a builder with default parameters.
func MakeFabricBuilder() FabricBuilder {
	return FabricBuilder{
		freq:        1 * sim.GHz,
		baseLatency: 4,
		hopLatency:  1,
	}
}

// WithEngine sets the engine.
func (b FabricBuilder) WithEngine(engine sim.Engine) FabricBuilder {
	b.engine = engine
	return b
}

// WithFreq sets the clock the latencies are counted in.
func (b FabricBuilder) WithFreq(freq sim.Freq) FabricBuilder {
	b.freq = freq
	return b
}

// WithBaseLatency sets the cycles every packet takes.
func (b FabricBuilder) WithBaseLatency(cycles int) FabricBuilder {
	b.baseLatency = cycles
	return b
}

// WithHopLatency sets the cycles added per hop.
func (b FabricBuilder) WithHopLatency(cycles int) FabricBuilder {
	b.hopLatency = cycles
	return b
}

// Build creates the fabric.
func (b FabricBuilder) Build(name string) *Fabric {
	sim.NameMustBeValid(name)

	return &Fabric{
		name:        name,
		engine:      b.engine,
		freq:        b.freq,
		baseLatency: b.baseLatency,
		hopLatency:  b.hopLatency,
		ends:        make(map[sim.RemotePort]*fabricEnd),
		coords:      make(map[sim.RemotePort]Coord),
	}
}
