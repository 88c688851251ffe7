package sim

import (
	"log"
	"sync"
)

// Hook positions of a port. The item of each is the message.
var (
	HookPosPortMsgSend     = &HookPos{Name: "Port Msg Send"}
	HookPosPortMsgRecvd    = &HookPos{Name: "Port Msg Recv"}
	HookPosPortMsgRetrieve = &HookPos{Name: "Port Msg Retrieve"}
)

// A RemotePort names a port on the other side of a connection.
type RemotePort string

// SendError reports that a connection or a port has no room for a message.
// The sender keeps the message and retries when notified.
type SendError struct{}

// NewSendError creates a SendError.
func NewSendError() *SendError {
	return &SendError{}
}

// A Port connects a component to one connection. Messages arriving from the
// connection wait in the port until the component retrieves them.
type Port interface {
	Named
	Hookable

	AsRemote() RemotePort

	SetConnection(conn Connection)
	Component() Component

	// Called by the connection.
	Deliver(msg Msg) *SendError
	NotifyAvailable()

	// Called by the component.
	CanSend() bool
	Send(msg Msg) *SendError
	RetrieveIncoming() Msg
	PeekIncoming() Msg
}

type defaultPort struct {
	HookableBase

	name string
	comp Component
	conn Connection

	lock  sync.Mutex
	inbox Buffer
}

// NewPort creates a port of comp that holds up to capacity incoming
// messages.
func NewPort(comp Component, capacity int, name string) Port {
	NameMustBeValid(name)

	return &defaultPort{
		name:  name,
		comp:  comp,
		inbox: NewBuffer(name+".IncomingBuf", capacity),
	}
}

func (p *defaultPort) Name() string {
	return p.name
}

func (p *defaultPort) AsRemote() RemotePort {
	return RemotePort(p.name)
}

func (p *defaultPort) Component() Component {
	return p.comp
}

// SetConnection plugs the port into conn. A port takes one connection only.
func (p *defaultPort) SetConnection(conn Connection) {
	if p.conn != nil {
		log.Panicf("port %s: already connected to %s, cannot connect to %s",
			p.name, p.conn.Name(), conn.Name())
	}

	p.conn = conn
}

func (p *defaultPort) hook(pos *HookPos, msg Msg) {
	if p.NumHooks() > 0 {
		p.InvokeHook(HookCtx{Domain: p, Pos: pos, Item: msg})
	}
}

func (p *defaultPort) CanSend() bool {
	return p.conn.CanSend(p)
}

// Send hands msg to the connection. The message must come from this port
// and go to another one.
func (p *defaultPort) Send(msg Msg) *SendError {
	meta := msg.Meta()

	switch {
	case meta.Src != p.AsRemote():
		log.Panicf("port %s: sending a message from %q", p.name, meta.Src)
	case meta.Dst == "":
		log.Panicf("port %s: message %s has no destination", p.name, meta.ID)
	case meta.Dst == meta.Src:
		log.Panicf("port %s: message %s is sent to itself", p.name, meta.ID)
	}

	if err := p.conn.Send(msg); err != nil {
		return err
	}

	p.hook(HookPosPortMsgSend, msg)

	return nil
}

// Deliver queues msg for the component and wakes it up.
func (p *defaultPort) Deliver(msg Msg) *SendError {
	p.lock.Lock()

	if !p.inbox.CanPush() {
		p.lock.Unlock()
		return NewSendError()
	}

	p.hook(HookPosPortMsgRecvd, msg)
	p.inbox.Push(msg)
	p.lock.Unlock()

	if p.comp != nil {
		p.comp.NotifyRecv(p)
	}

	return nil
}

// RetrieveIncoming takes the oldest incoming message. Taking one from a full
// port tells the connection that it can deliver again.
func (p *defaultPort) RetrieveIncoming() Msg {
	p.lock.Lock()

	wasFull := p.inbox.Size() == p.inbox.Capacity()

	item := p.inbox.Pop()
	p.lock.Unlock()

	if item == nil {
		return nil
	}

	if wasFull {
		p.conn.NotifyAvailable(p)
	}

	msg := item.(Msg)
	p.hook(HookPosPortMsgRetrieve, msg)

	return msg
}

func (p *defaultPort) PeekIncoming() Msg {
	p.lock.Lock()
	defer p.lock.Unlock()

	if item := p.inbox.Peek(); item != nil {
		return item.(Msg)
	}

	return nil
}

// NotifyAvailable wakes the component after the connection has freed room
// for the messages it sends.
func (p *defaultPort) NotifyAvailable() {
	if p.comp != nil {
		p.comp.NotifyPortFree(p)
	}
}
