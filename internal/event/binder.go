package event

import (
	"fmt"
	"strconv"
	"sync"
)

// Binder is the routing table of a Lane: it maps Channels to Bindings, fixing
// each Channel's payload type at first use and rejecting incompatible later use.
type Binder struct {
	mu       sync.Mutex
	bindings map[Channel]callable
	order    []Channel

	// diagnosticName labels this Binder's queue-depth gauge samples; empty for
	// Binders that aren't owned by a Lane (SubLanes, EventStorage's replay path).
	diagnosticName string
}

// NewBinder constructs an empty Binder with no diagnostic label.
func NewBinder() *Binder {
	return &Binder{bindings: make(map[Channel]callable)}
}

// newLaneBinder constructs a Binder whose queue-depth samples are labeled with
// the owning Lane's diagnostic name.
func newLaneBinder(diagnosticName string) *Binder {
	return &Binder{bindings: make(map[Channel]callable), diagnosticName: diagnosticName}
}

// lookupOrCreate returns the existing *binding[P] for channel, creating one on
// first use. It returns an error if the channel was already bound to a
// different payload type.
func lookupOrCreate[P any](b *Binder, channel Channel) (*binding[P], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	existing, ok := b.bindings[channel]
	if !ok {
		fresh := newBinding[P](typeLabel[P]())
		b.bindings[channel] = fresh
		b.order = append(b.order, channel)
		return fresh, nil
	}
	typed, ok := existing.(*binding[P])
	if !ok {
		return nil, &IncompatibleTypeError{
			Channel:      channel,
			ExpectedType: existing.typeName(),
			ActualType:   typeLabel[P](),
		}
	}
	return typed, nil
}

// lookup returns the existing *binding[P] for channel without creating one. The
// second return value is false if no Binding exists for the channel at all; an
// error is returned only when a Binding exists but is bound to a different type.
func lookup[P any](b *Binder, channel Channel) (*binding[P], bool, error) {
	b.mu.Lock()
	existing, ok := b.bindings[channel]
	b.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	typed, ok := existing.(*binding[P])
	if !ok {
		return nil, true, &IncompatibleTypeError{
			Channel:      channel,
			ExpectedType: existing.typeName(),
			ActualType:   typeLabel[P](),
		}
	}
	return typed, true, nil
}

func typeLabel[P any]() string {
	var zero P
	return fmt.Sprintf("%T", zero)
}

// Connect registers fn to run for every payload emitted on (id, dest), passing
// both the payload and the sender through.
func Connect[P any](b *Binder, id EventID, dest DestinationID, fn func(P, SenderID)) error {
	channel := Channel{ID: id, Destination: dest}
	target, err := lookupOrCreate[P](b, channel)
	if err != nil {
		return err
	}
	target.connect(fn)
	return nil
}

// ConnectPayload registers fn with only the payload; the sender is discarded.
func ConnectPayload[P any](b *Binder, id EventID, dest DestinationID, fn func(P)) error {
	return Connect(b, id, dest, func(payload P, _ SenderID) { fn(payload) })
}

// ConnectVoid registers fn on a Void-payload channel, passing the sender through.
func ConnectVoid(b *Binder, id EventID, dest DestinationID, fn func(SenderID)) error {
	return Connect(b, id, dest, func(_ Void, sender SenderID) { fn(sender) })
}

// ConnectVoidNoSender registers fn on a Void-payload channel, discarding the sender.
func ConnectVoidNoSender(b *Binder, id EventID, dest DestinationID, fn func()) error {
	return Connect(b, id, dest, func(_ Void, _ SenderID) { fn() })
}

// Emit pushes payload onto (id, dest)'s queue for the next Tick to drain. A
// Channel with no subscribers is a silent no-op, not an error; only a type
// mismatch against an already-established Channel returns an error.
func Emit[P any](b *Binder, id EventID, dest DestinationID, payload P, sender SenderID) error {
	channel := Channel{ID: id, Destination: dest}
	target, exists, err := lookup[P](b, channel)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	target.emit(payload, sender)
	return nil
}

// Tick iterates every Binding in stable insertion order and drains it.
func (b *Binder) Tick() {
	b.mu.Lock()
	order := make([]Channel, len(b.order))
	copy(order, b.order)
	bindings := b.bindings
	b.mu.Unlock()

	for _, channel := range order {
		target := bindings[channel]
		if b.diagnosticName != "" {
			Metrics().queueDepth.WithLabelValues(b.diagnosticName, strconv.FormatUint(uint64(channel.ID), 10)).Set(float64(target.pending()))
		}
		target.call()
	}
}
