package event

import "sync"

// payload pairs one emitted value with the sender that produced it.
type payload[P any] struct {
	value  P
	sender SenderID
}

// callable is the type-erased marker every Binding satisfies. A Binder stores
// these behind the Channel they serve; recovering the concrete payload type is
// done with a type assertion back to *binding[P], which doubles as the runtime
// type check the original's typeid comparison performed.
type callable interface {
	call()
	typeName() string
	pending() int
}

// binding is the per-Channel record: a callback list plus a FIFO queue of
// pending payloads. Exactly one payload type P is ever stored here; a Binder
// enforces that at the type-assertion boundary rather than inside binding
// itself.
type binding[P any] struct {
	mu        sync.Mutex
	callbacks []func(P, SenderID)
	queue     []payload[P]
	typeLabel string
}

func newBinding[P any](typeLabel string) *binding[P] {
	return &binding[P]{typeLabel: typeLabel}
}

// connect appends a callback. Callers must only do this before the owning Lane
// starts ticking, or from the owning Lane's own goroutine.
func (b *binding[P]) connect(fn func(P, SenderID)) {
	b.callbacks = append(b.callbacks, fn)
}

// emit pushes a payload into the queue. Safe from any goroutine.
func (b *binding[P]) emit(value P, sender SenderID) {
	b.mu.Lock()
	b.queue = append(b.queue, payload[P]{value: value, sender: sender})
	b.mu.Unlock()
}

// call swaps the queue for a fresh slice under the mutex, then invokes every
// callback for every payload in the swapped-out slice. The swap is what
// guarantees a handler's own same-tick emit is only visible on the next call.
func (b *binding[P]) call() {
	b.mu.Lock()
	drained := b.queue
	b.queue = nil
	b.mu.Unlock()

	for _, item := range drained {
		for _, fn := range b.callbacks {
			invokeCallback(fn, item.value, item.sender)
		}
	}
}

func (b *binding[P]) typeName() string {
	return b.typeLabel
}

// pending reports how many payloads are currently queued, for diagnostics only.
func (b *binding[P]) pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// invokeCallback runs fn, recovering and logging a panic so one misbehaving
// handler never stops delivery to the remaining callbacks/payloads in this call.
func invokeCallback[P any](fn func(P, SenderID), value P, sender SenderID) {
	defer func() {
		if r := recover(); r != nil {
			logHandlerFailure(recoverToError(r))
		}
	}()
	fn(value, sender)
}
