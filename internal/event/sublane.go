package event

import "sync/atomic"

// SubLane is a scoped child of a Lane: a component can create one to receive
// events without polluting the Lane's global registry, and to ensure its own
// connections disappear when the component is destroyed. SubLane is
// non-copyable by convention — always held and passed as *SubLane.
type SubLane struct {
	lane      *Lane
	validLane atomic.Bool
	binder    *Binder
}

func newSubLane(lane *Lane) *SubLane {
	sub := &SubLane{lane: lane, binder: NewBinder()}
	sub.validLane.Store(true)
	return sub
}

// SubLaneEmit routes payload through the parent Lane (local delivery plus
// cross-lane fan-out) and then also delivers it to the SubLane's private
// Binder, if the back-reference is still valid; otherwise it is a silent
// no-op, mirroring InvalidatedSubLaneEmit.
func SubLaneEmit[P any](sub *SubLane, id EventID, dest DestinationID, payload P, sender SenderID) error {
	if !sub.validLane.Load() {
		return nil
	}
	if err := LaneEmit(sub.lane, id, dest, payload, sender); err != nil {
		return err
	}
	return Emit(sub.binder, id, dest, payload, sender)
}

// SubEmit delivers payload only to the SubLane's private Binder; it never
// reaches the parent Lane and never fans out.
func SubEmit[P any](sub *SubLane, id EventID, dest DestinationID, payload P, sender SenderID) error {
	return Emit(sub.binder, id, dest, payload, sender)
}

// tick drains only the SubLane's private Binder.
func (sub *SubLane) tick() {
	sub.binder.Tick()
}

// InvalidateLane marks the back-reference to the parent Lane dead. Safe to call
// from any goroutine, including one other than the parent Lane's own — the
// destroying component's goroutine, typically.
func (sub *SubLane) InvalidateLane() {
	sub.validLane.Store(false)
}

// Valid reports whether the SubLane's back-reference to its parent Lane is
// still live.
func (sub *SubLane) Valid() bool {
	return sub.validLane.Load()
}
