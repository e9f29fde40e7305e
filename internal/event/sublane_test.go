package event

import "testing"

func TestSubLaneSubEmitStaysLocal(t *testing.T) {
	synchronizer := newTestSynchronizer(t)
	lane := NewLane(LaneConfig{FrequencyHz: 1000, Name: "test"}, synchronizer)
	sub := lane.CreateSubLane()

	var hits int
	if err := SubLaneConnect(sub, EventID(1), UnspecifiedDestination, func(int, SenderID) { hits++ }); err != nil {
		t.Fatalf("SubLaneConnect returned error: %v", err)
	}

	if err := SubEmit(sub, EventID(1), UnspecifiedDestination, 1, UnspecifiedSender); err != nil {
		t.Fatalf("SubEmit returned error: %v", err)
	}
	sub.tick()

	if hits != 1 {
		t.Fatalf("expected SubEmit to deliver locally once, got %d", hits)
	}
}

func TestSubLaneContainmentAfterAbandonment(t *testing.T) {
	synchronizer := newTestSynchronizer(t)
	lane := NewLane(LaneConfig{FrequencyHz: 1000, Name: "test"}, synchronizer)
	sub := lane.CreateSubLane()

	var hits int
	if err := SubLaneConnect(sub, EventID(1), UnspecifiedDestination, func(int, SenderID) { hits++ }); err != nil {
		t.Fatalf("SubLaneConnect returned error: %v", err)
	}

	_ = SubEmit(sub, EventID(1), UnspecifiedDestination, 1, UnspecifiedSender)
	sub.tick()
	if hits != 1 {
		t.Fatalf("expected one delivery before abandonment, got %d", hits)
	}

	// Abandonment: the component stops calling sub.tick(); nothing further fires
	// even if more payloads are queued.
	_ = SubEmit(sub, EventID(1), UnspecifiedDestination, 2, UnspecifiedSender)
	if hits != 1 {
		t.Fatalf("expected no delivery without a further tick, got %d", hits)
	}
}

func TestInvalidatedSubLaneEmitIsSilent(t *testing.T) {
	synchronizer := newTestSynchronizer(t)
	lane := NewLane(LaneConfig{FrequencyHz: 1000, Name: "test"}, synchronizer)
	sub := lane.CreateSubLane()

	if !sub.Valid() {
		t.Fatal("expected a freshly created SubLane to be valid")
	}
	sub.InvalidateLane()
	if sub.Valid() {
		t.Fatal("expected InvalidateLane to mark the SubLane invalid")
	}

	var laneHits int
	if err := LaneConnect(lane, EventID(5), UnspecifiedDestination, func(int, SenderID) { laneHits++ }); err != nil {
		t.Fatalf("LaneConnect returned error: %v", err)
	}

	if err := SubLaneEmit(sub, EventID(5), UnspecifiedDestination, 1, UnspecifiedSender); err != nil {
		t.Fatalf("SubLaneEmit on an invalidated SubLane must not error, got %v", err)
	}
	lane.binder.Tick()

	if laneHits != 0 {
		t.Fatalf("expected no delivery to the parent Lane after invalidation, got %d", laneHits)
	}
}
