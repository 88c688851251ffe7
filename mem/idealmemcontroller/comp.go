// Package idealmemcontroller provides a memory controller that serves every
// request after a fixed latency.
package idealmemcontroller

import (
	"log"

	"github.com/sarchlab/tilestream/mem"
	"github.com/sarchlab/tilestream/sim"
	"github.com/sarchlab/tilestream/tracing"
)

// respondEvent fires when the latency of a request has passed.
type respondEvent struct {
	*sim.EventBase
	req sim.Msg
}

// Comp serves reads and writes on a Storage. Each request is answered
// Latency cycles after it is taken from the top port, with no limit on the
// number of requests in flight. A write lands in the storage when its
// response leaves, so a later read on the same port sees it.
type Comp struct {
	*sim.TickingComponent

	engine  sim.Engine
	freq    sim.Freq
	topPort sim.Port
	conv    mem.AddressConverter

	Storage *mem.Storage
	Latency int
}

// TopPort returns the port that receives memory requests.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

// Handle answers due requests and ticks.
func (c *Comp) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *respondEvent:
		c.respond(e)
	case sim.TickEvent:
		return c.TickingComponent.Handle(e)
	default:
		log.Panicf("%s: cannot handle event of %T", c.Name(), e)
	}

	return nil
}

// Tick takes one request from the top port.
func (c *Comp) Tick() bool {
	req := c.topPort.RetrieveIncoming()
	if req == nil {
		return false
	}

	switch req.(type) {
	case *mem.ReadReq, *mem.WriteReq:
	default:
		log.Panicf("%s: cannot serve %T", c.Name(), req)
	}

	tracing.ReceiveReq(c, req)
	c.respondAt(c.freq.NCyclesLater(c.Latency, c.CurrentTime()), req)

	return true
}

func (c *Comp) respondAt(t sim.VTimeInSec, req sim.Msg) {
	c.engine.Schedule(&respondEvent{EventBase: sim.NewEventBase(t, c), req: req})
}

func (c *Comp) respond(e *respondEvent) {
	rsp, commit := c.serve(e.req)

	if err := c.topPort.Send(rsp); err != nil {
		c.respondAt(c.freq.NextTick(e.Time()), e.req)
		return
	}

	commit()
	tracing.ServeReq(c, e.req)
	c.TickLater()
}

// serve builds the response to req and the storage update to apply once the
// response is sent.
func (c *Comp) serve(req sim.Msg) (sim.Msg, func()) {
	switch req := req.(type) {
	case *mem.ReadReq:
		data, err := c.Storage.Read(c.local(req.Address), req.Size)
		if err != nil {
			log.Panicf("%s: %v", c.Name(), err)
		}

		return mem.NewDataReadyRsp(req, data), func() {}
	case *mem.WriteReq:
		return mem.NewWriteDoneRsp(req), func() {
			if err := c.Storage.Write(c.local(req.Address), req.Data); err != nil {
				log.Panicf("%s: %v", c.Name(), err)
			}
		}
	}

	panic("unreachable")
}

func (c *Comp) local(addr uint64) uint64 {
	if c.conv == nil {
		return addr
	}

	return c.conv.ConvertExternalToInternal(addr)
}
