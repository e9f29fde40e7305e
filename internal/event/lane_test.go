package event

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestConnectLoopFiresOncePerTick(t *testing.T) {
	synchronizer := newTestSynchronizer(t)
	lane := NewLane(LaneConfig{FrequencyHz: 200, Name: "loop-test"}, synchronizer)

	var loopHits atomic.Int64
	lane.ConnectLoop(func(TickData) { loopHits.Add(1) })

	startAndWait(t, synchronizer)

	time.Sleep(60 * time.Millisecond)
	if got := loopHits.Load(); got < 5 {
		t.Fatalf("expected the loop hook to have fired multiple times, got %d", got)
	}
}

func TestLoopHookRunsBeforeSubLaneAndBinderDrain(t *testing.T) {
	synchronizer := newTestSynchronizer(t)
	lane := NewLane(LaneConfig{FrequencyHz: 1000, Name: "order-test"}, synchronizer)
	sub := lane.CreateSubLane()

	var order []string
	lane.ConnectLoop(func(TickData) { order = append(order, "loop") })
	if err := SubLaneConnect(sub, EventID(1), UnspecifiedDestination, func(int, SenderID) {
		order = append(order, "sublane")
	}); err != nil {
		t.Fatalf("SubLaneConnect returned error: %v", err)
	}
	if err := LaneConnect(lane, EventID(3), UnspecifiedDestination, func(int, SenderID) {
		order = append(order, "binder")
	}); err != nil {
		t.Fatalf("LaneConnect returned error: %v", err)
	}

	_ = SubEmit(sub, EventID(1), UnspecifiedDestination, 1, UnspecifiedSender)
	_ = Emit(lane.binder, EventID(3), UnspecifiedDestination, 1, UnspecifiedSender)

	lane.tick()

	if len(order) != 3 || order[0] != "loop" || order[1] != "sublane" || order[2] != "binder" {
		t.Fatalf("expected ordering [loop sublane binder], got %v", order)
	}
}

func TestTickMonitorAccumulatesSamples(t *testing.T) {
	synchronizer := newTestSynchronizer(t)
	lane := NewLane(LaneConfig{FrequencyHz: 500, Name: "monitor-test"}, synchronizer)

	lane.tick()
	lane.tick()
	lane.tick()

	snapshot := lane.TickSnapshot()
	if snapshot.Samples != 3 {
		t.Fatalf("expected 3 accumulated samples, got %d", snapshot.Samples)
	}
}

func TestLaneStateTransitions(t *testing.T) {
	synchronizer := newTestSynchronizer(t)
	lane := NewLane(LaneConfig{FrequencyHz: 500, Name: "state-test"}, synchronizer)

	if lane.State() != StateConstructed {
		t.Fatalf("expected a freshly constructed Lane in StateConstructed, got %v", lane.State())
	}

	startAndWait(t, synchronizer)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if lane.State() == StateRunning {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if lane.State() != StateRunning {
		t.Fatalf("expected the Lane to reach StateRunning, got %v", lane.State())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := synchronizer.Finish(ctx, false); err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}
}
