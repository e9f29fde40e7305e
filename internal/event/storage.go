package event

import (
	"sort"
	"sync"
)

// sequencedReplay pairs a global arrival sequence number with a closure that
// replays one recorded tuple against a SubLane without the caller needing to
// know its payload type.
type sequencedReplay struct {
	seq int64
	fn  func(*SubLane) error
}

// storageBinding is EventStorage's per-channel queue, the Go rendition of the
// original's EventBinding<PayloadT>: it type-checks on Emit (dropping, not
// panicking, on mismatch) and hands its entries back tagged with the global
// sequence number EventStorage assigned them, so Replay can merge every
// channel's entries into one arrival-ordered stream.
type storageBinding[P any] struct {
	mu      sync.Mutex
	entries []sequencedReplay
}

func (b *storageBinding[P]) emit(seq int64, channel Channel, payload P, sender SenderID) {
	entry := sequencedReplay{
		seq: seq,
		fn: func(sub *SubLane) error {
			return SubLaneEmit(sub, channel.ID, channel.Destination, payload, sender)
		},
	}
	b.mu.Lock()
	b.entries = append(b.entries, entry)
	b.mu.Unlock()
}

// drain returns and clears this binding's recorded entries.
func (b *storageBinding[P]) drain() []sequencedReplay {
	b.mu.Lock()
	entries := b.entries
	b.entries = nil
	b.mu.Unlock()
	return entries
}

func (b *storageBinding[P]) typeName() string { return typeLabel[P]() }

// storageCallable mirrors the original's StorageCallable: a type-erased handle
// EventStorage can drain without knowing its concrete payload type.
type storageCallable interface {
	drain() []sequencedReplay
	typeName() string
}

// storageAdapter wraps *storageBinding[P] as the storageCallable stored per
// channel; StorageEmit type-asserts back to storageAdapter[P] to detect a
// payload type change on that channel.
type storageAdapter[P any] struct {
	*storageBinding[P]
}

func (a storageAdapter[P]) drain() []sequencedReplay { return a.storageBinding.drain() }
func (a storageAdapter[P]) typeName() string         { return a.storageBinding.typeName() }

// EventStorage is a temporary buffer of (channel, payload, sender) tuples used
// when an object must record events before a SubLane exists for it, e.g.
// during construction. Replay later delivers them, in true global arrival
// order across every channel, through a SubLane — matching
// EventStorage.h's single flat emit-ordered vector rather than replaying one
// channel's queue fully before moving to the next.
type EventStorage struct {
	mu       sync.Mutex
	bindings map[Channel]storageCallable
	order    []Channel
	seq      int64
}

// NewEventStorage constructs an empty EventStorage.
func NewEventStorage() *EventStorage {
	return &EventStorage{bindings: make(map[Channel]storageCallable)}
}

// StorageEmit records payload for later replay on channel (id, dest), tagging
// it with the next global arrival sequence number. A type mismatch against an
// earlier Emit on the same channel is logged and the tuple is dropped — not
// fatal, since the producer has typically already left scope by the time the
// mismatch is detected.
func StorageEmit[P any](s *EventStorage, id EventID, dest DestinationID, payload P, sender SenderID) {
	channel := Channel{ID: id, Destination: dest}

	s.mu.Lock()
	seq := s.seq
	s.seq++
	existing, ok := s.bindings[channel]
	if !ok {
		adapter := storageAdapter[P]{storageBinding: &storageBinding[P]{}}
		s.bindings[channel] = adapter
		s.order = append(s.order, channel)
		s.mu.Unlock()
		adapter.storageBinding.emit(seq, channel, payload, sender)
		return
	}
	s.mu.Unlock()

	adapter, ok := existing.(storageAdapter[P])
	if !ok {
		logTypeMismatch(channel, existing.typeName(), typeLabel[P]())
		return
	}
	adapter.storageBinding.emit(seq, channel, payload, sender)
}

// Replay merges every channel's recorded entries back into one stream ordered
// by global arrival sequence, delivers each through sub, then clears the
// buffer.
func (s *EventStorage) Replay(sub *SubLane) {
	s.mu.Lock()
	order := make([]Channel, len(s.order))
	copy(order, s.order)
	bindings := s.bindings
	s.bindings = make(map[Channel]storageCallable)
	s.order = nil
	s.mu.Unlock()

	var all []sequencedReplay
	for _, channel := range order {
		all = append(all, bindings[channel].drain()...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })

	for _, entry := range all {
		_ = entry.fn(sub)
	}
}
