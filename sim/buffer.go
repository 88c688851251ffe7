package sim

import "log"

// Buffer hook positions. Item is the element pushed or popped.
var (
	HookPosBufPush = &HookPos{Name: "Buffer Push"}
	HookPosBufPop  = &HookPos{Name: "Buffer Pop"}
)

// A Buffer is a bounded FIFO queue. Ports keep their incoming messages in
// one; the monitor's hang detector lists buffers by how full they are.
type Buffer interface {
	Named
	Hookable

	CanPush() bool
	Push(e interface{})
	Pop() interface{}
	Peek() interface{}
	Capacity() int
	Size() int
}

// NewBuffer creates a buffer that holds up to capacity elements. A buffer of
// capacity 0 never accepts an element.
func NewBuffer(name string, capacity int) Buffer {
	NameMustBeValid(name)

	if capacity < 0 {
		log.Panicf("buffer %s: negative capacity %d", name, capacity)
	}

	return &ringBuffer{
		name:  name,
		slots: make([]interface{}, capacity),
	}
}

// ringBuffer stores elements in a fixed slice; head is the oldest element.
type ringBuffer struct {
	HookableBase

	name  string
	slots []interface{}
	head  int
	count int
}

func (b *ringBuffer) Name() string {
	return b.name
}

func (b *ringBuffer) CanPush() bool {
	return b.count < len(b.slots)
}

func (b *ringBuffer) Push(e interface{}) {
	if !b.CanPush() {
		log.Panicf("buffer %s: push into a full buffer of %d",
			b.name, len(b.slots))
	}

	b.slots[(b.head+b.count)%len(b.slots)] = e
	b.count++

	b.notify(HookPosBufPush, e)
}

func (b *ringBuffer) Pop() interface{} {
	if b.count == 0 {
		return nil
	}

	e := b.slots[b.head]
	b.slots[b.head] = nil
	b.head = (b.head + 1) % len(b.slots)
	b.count--

	b.notify(HookPosBufPop, e)

	return e
}

func (b *ringBuffer) Peek() interface{} {
	if b.count == 0 {
		return nil
	}

	return b.slots[b.head]
}

func (b *ringBuffer) Capacity() int {
	return len(b.slots)
}

func (b *ringBuffer) Size() int {
	return b.count
}

func (b *ringBuffer) notify(pos *HookPos, e interface{}) {
	if b.NumHooks() == 0 {
		return
	}

	b.InvokeHook(HookCtx{Domain: b, Pos: pos, Item: e})
}
