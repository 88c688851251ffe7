package sim

import "sync"

// HookPos names a site where hooks are invoked.
type HookPos struct {
	Name string
}

// Engine hook positions. Item is the event.
var (
	HookPosBeforeEvent = &HookPos{Name: "BeforeEvent"}
	HookPosAfterEvent  = &HookPos{Name: "AfterEvent"}
)

// HookCtx describes one hook invocation: who invoked it, where, and on what.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// A Hook observes a Hookable. Hooks must not change the state of the domain.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a function to the Hook interface.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// Hookable is anything that hooks can be attached to.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
	InvokeHook(ctx HookCtx)
}

// HookableBase implements Hookable for embedding. Hooks may be attached from
// another goroutine while the engine runs, for example by the monitor; an
// attached hook sees the invocations that start after AcceptHook returns.
type HookableBase struct {
	lock  sync.RWMutex
	hooks []Hook
}

// AcceptHook attaches a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.hooks = append(h.hooks[:len(h.hooks):len(h.hooks)], hook)
}

// NumHooks returns the number of attached hooks.
func (h *HookableBase) NumHooks() int {
	h.lock.RLock()
	defer h.lock.RUnlock()

	return len(h.hooks)
}

// InvokeHook calls every attached hook in attach order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	h.lock.RLock()
	hooks := h.hooks
	h.lock.RUnlock()

	for _, hook := range hooks {
		hook.Func(ctx)
	}
}
