package event

// This file plays the role the original's Connectable.h / MemberArity.h played:
// turning handler functions into the uniform (payload, sender) callback shape.
// There Connectable deduced a handler's payload type via reflection over member
// function pointers and picked one of four connector adapters
// (ConnectorV/ConnectorVS/ConnectorP/ConnectorPS). Here Go's generic type
// inference over the function literal's own parameter list does the same job
// at compile time, so each call shape below is its own small, explicit adapter.

// LaneConnect registers fn for payloads of type P emitted on (id, dest) against
// lane's Binder, passing both the payload and the sender through.
func LaneConnect[P any](lane *Lane, id EventID, dest DestinationID, fn func(P, SenderID)) error {
	return Connect(lane.binder, id, dest, fn)
}

// LaneConnectPayload registers fn with only the payload; the sender is discarded.
func LaneConnectPayload[P any](lane *Lane, id EventID, dest DestinationID, fn func(P)) error {
	return ConnectPayload(lane.binder, id, dest, fn)
}

// LaneConnectVoid registers fn on a Void-payload channel, passing the sender through.
func LaneConnectVoid(lane *Lane, id EventID, dest DestinationID, fn func(SenderID)) error {
	return ConnectVoid(lane.binder, id, dest, fn)
}

// LaneConnectVoidNoSender registers fn on a Void-payload channel with no arguments.
func LaneConnectVoidNoSender(lane *Lane, id EventID, dest DestinationID, fn func()) error {
	return ConnectVoidNoSender(lane.binder, id, dest, fn)
}

// SubLaneConnect registers fn against the SubLane's private Binder.
func SubLaneConnect[P any](sub *SubLane, id EventID, dest DestinationID, fn func(P, SenderID)) error {
	return Connect(sub.binder, id, dest, fn)
}

// SubLaneConnectPayload registers fn with only the payload against the SubLane's
// private Binder.
func SubLaneConnectPayload[P any](sub *SubLane, id EventID, dest DestinationID, fn func(P)) error {
	return ConnectPayload(sub.binder, id, dest, fn)
}

// SubLaneConnectVoid registers fn on a Void-payload channel against the
// SubLane's private Binder, passing the sender through.
func SubLaneConnectVoid(sub *SubLane, id EventID, dest DestinationID, fn func(SenderID)) error {
	return ConnectVoid(sub.binder, id, dest, fn)
}

// SubLaneConnectVoidNoSender registers fn on a Void-payload channel against the
// SubLane's private Binder with no arguments.
func SubLaneConnectVoidNoSender(sub *SubLane, id EventID, dest DestinationID, fn func()) error {
	return ConnectVoidNoSender(sub.binder, id, dest, fn)
}
