package sim

import (
	"container/heap"
	"sync"
)

// EventQueue orders pending events.
type EventQueue interface {
	Push(evt Event)
	Pop() Event
	Len() int
	Peek() Event
}

// eventQueue is a thread-safe EventQueue. Events pop by time; at the same
// time primary events pop before secondary ones, and otherwise in push order,
// which keeps runs deterministic.
type eventQueue struct {
	lock    sync.Mutex
	events  eventHeap
	nextSeq uint64
}

// NewEventQueue creates an empty EventQueue.
func NewEventQueue() EventQueue {
	return &eventQueue{}
}

func (q *eventQueue) Push(evt Event) {
	q.lock.Lock()
	defer q.lock.Unlock()

	heap.Push(&q.events, queuedEvent{evt: evt, seq: q.nextSeq})
	q.nextSeq++
}

func (q *eventQueue) Pop() Event {
	q.lock.Lock()
	defer q.lock.Unlock()

	return heap.Pop(&q.events).(queuedEvent).evt
}

func (q *eventQueue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()

	return len(q.events)
}

func (q *eventQueue) Peek() Event {
	q.lock.Lock()
	defer q.lock.Unlock()

	return q.events[0].evt
}

type queuedEvent struct {
	evt Event
	seq uint64
}

type eventHeap []queuedEvent

func (h eventHeap) Len() int {
	return len(h)
}

func (h eventHeap) Less(i, j int) bool {
	a, b := h[i], h[j]

	if ta, tb := a.evt.Time(), b.evt.Time(); ta != tb {
		return ta < tb
	}

	if sa, sb := a.evt.IsSecondary(), b.evt.IsSecondary(); sa != sb {
		return sb
	}

	return a.seq < b.seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(queuedEvent))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	last := old[len(old)-1]
	*h = old[:len(old)-1]

	return last
}
