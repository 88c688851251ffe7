package sim

import (
	"log"
)

type directConnectionEnd struct {
	port    Port
	buf     Buffer
	busy    bool
	bufSize int
}

// DirectConnection connects ports without latency. Messages are delivered on
// the next tick of the connection.
type DirectConnection struct {
	*TickingComponent

	ends       map[RemotePort]*directConnectionEnd
	endOrder   []RemotePort
	nextPortID int
}

// NewDirectConnection creates a new DirectConnection object.
func NewDirectConnection(
	name string,
	engine Engine,
	freq Freq,
) *DirectConnection {
	c := new(DirectConnection)
	c.TickingComponent = NewSecondaryTickingComponent(name, engine, freq, c)
	c.ends = make(map[RemotePort]*directConnectionEnd)

	return c
}

// PlugIn marks the port connects to this DirectConnection.
func (c *DirectConnection) PlugIn(port Port, sourceSideBufSize int) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if _, found := c.ends[port.AsRemote()]; found {
		log.Panicf("port %s already plugged in", port.Name())
	}

	end := &directConnectionEnd{
		port:    port,
		buf:     NewBuffer(c.Name()+"."+port.Name()+".Buf", sourceSideBufSize),
		bufSize: sourceSideBufSize,
	}
	c.ends[port.AsRemote()] = end
	c.endOrder = append(c.endOrder, port.AsRemote())

	port.SetConnection(c)
}

// CanSend checks if the connection can accept more messages from the port.
func (c *DirectConnection) CanSend(src Port) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	end := c.mustFindEnd(src.AsRemote())
	ok := end.buf.CanPush()

	if !ok {
		end.busy = true
	}

	return ok
}

// Send of a DirectConnection buffers the message at the source side. The
// message is delivered when the connection ticks.
func (c *DirectConnection) Send(msg Msg) *SendError {
	c.lock.Lock()

	end := c.mustFindEnd(msg.Meta().Src)
	if _, found := c.ends[msg.Meta().Dst]; !found {
		c.lock.Unlock()
		log.Panicf("destination %s not connected to %s",
			msg.Meta().Dst, c.Name())
	}

	if !end.buf.CanPush() {
		end.busy = true
		c.lock.Unlock()

		return NewSendError()
	}

	msg.Meta().SendTime = c.CurrentTime()
	end.buf.Push(msg)
	c.lock.Unlock()

	c.TickNow()

	return nil
}

// NotifyAvailable is called by a port to notify that the connection can
// deliver to the port again.
func (c *DirectConnection) NotifyAvailable(_ Port) {
	c.TickNow()
}

// Tick delivers the buffered messages.
func (c *DirectConnection) Tick() bool {
	madeProgress := false

	for i := 0; i < len(c.endOrder); i++ {
		id := (i + c.nextPortID) % len(c.endOrder)
		end := c.ends[c.endOrder[id]]
		madeProgress = c.forwardMany(end) || madeProgress
	}

	if len(c.endOrder) > 0 {
		c.nextPortID = (c.nextPortID + 1) % len(c.endOrder)
	}

	return madeProgress
}

func (c *DirectConnection) forwardMany(end *directConnectionEnd) bool {
	madeProgress := false

	for {
		c.lock.Lock()
		item := end.buf.Peek()
		c.lock.Unlock()

		if item == nil {
			break
		}

		msg := item.(Msg)
		msg.Meta().RecvTime = c.CurrentTime()

		dst := c.ends[msg.Meta().Dst].port
		if err := dst.Deliver(msg); err != nil {
			break
		}

		c.lock.Lock()
		end.buf.Pop()
		wasBusy := end.busy
		end.busy = false
		c.lock.Unlock()

		if wasBusy {
			end.port.NotifyAvailable()
		}

		madeProgress = true
	}

	return madeProgress
}

func (c *DirectConnection) mustFindEnd(p RemotePort) *directConnectionEnd {
	end, found := c.ends[p]
	if !found {
		log.Panicf("port %s is not connected to %s", p, c.Name())
	}

	return end
}
