// Package event implements the lane-based, tick-driven publish/subscribe runtime
// that coordinates concurrent subsystems (view, physics, network, controller,
// game-state) through typed, addressed events.
package event

import "fmt"

// EventID identifies an event category. Application-level IDs conventionally begin
// at 10000; values below that are reserved for the runtime itself.
type EventID uint32

// DestinationID selects the logical target of an event. Zero means "broadcast on
// this channel" — every handler registered without a specific destination observes
// it.
type DestinationID uint64

// SenderID identifies the origin of an event. Zero means "unspecified".
type SenderID uint64

// UnspecifiedDestination is the broadcast destination.
const UnspecifiedDestination DestinationID = 0

// UnspecifiedSender marks an emit that did not name its origin.
const UnspecifiedSender SenderID = 0

// FirstApplicationEventID is the first EventID an application is expected to use
// for its own event categories.
const FirstApplicationEventID EventID = 10000

// Channel is the unit of routing: an (EventID, DestinationID) pair. Every handler
// and every emitted payload belongs to exactly one Channel.
type Channel struct {
	ID          EventID
	Destination DestinationID
}

func (c Channel) String() string {
	return fmt.Sprintf("event:%d/dest:%d", c.ID, c.Destination)
}

// Void is a zero-field payload used for notifications that carry no data.
type Void struct{}
