package event

import (
	"errors"
	"testing"
)

func TestConnectEmitDeliversOnTick(t *testing.T) {
	b := NewBinder()
	var got int
	var gotSender SenderID
	if err := Connect(b, EventID(1), UnspecifiedDestination, func(payload int, sender SenderID) {
		got = payload
		gotSender = sender
	}); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}

	if err := Emit(b, EventID(1), UnspecifiedDestination, 42, SenderID(7)); err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected no delivery before Tick, got %d", got)
	}

	b.Tick()
	if got != 42 || gotSender != 7 {
		t.Fatalf("expected delivery (42, 7), got (%d, %d)", got, gotSender)
	}
}

func TestEmitOnUnknownChannelIsSilentlyDropped(t *testing.T) {
	b := NewBinder()
	if err := Emit(b, EventID(99), UnspecifiedDestination, "unsubscribed", UnspecifiedSender); err != nil {
		t.Fatalf("expected nil error for an emit with no subscribers, got %v", err)
	}
	b.Tick() // must not panic
}

func TestIncompatibleTypeErrorOnConnect(t *testing.T) {
	b := NewBinder()
	if err := Connect(b, EventID(1), UnspecifiedDestination, func(int, SenderID) {}); err != nil {
		t.Fatalf("first Connect returned error: %v", err)
	}

	err := Connect(b, EventID(1), UnspecifiedDestination, func(string, SenderID) {})
	var typeErr *IncompatibleTypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected IncompatibleTypeError, got %v", err)
	}
}

func TestIncompatibleTypeErrorOnEmit(t *testing.T) {
	b := NewBinder()
	if err := Connect(b, EventID(1), UnspecifiedDestination, func(int, SenderID) {}); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}

	err := Emit(b, EventID(1), UnspecifiedDestination, "wrong type", UnspecifiedSender)
	var typeErr *IncompatibleTypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("expected IncompatibleTypeError, got %v", err)
	}
}

func TestHandlerEmitDuringCallIsDeferredToNextTick(t *testing.T) {
	b := NewBinder()
	var observed []int

	if err := Connect(b, EventID(1), UnspecifiedDestination, func(payload int, sender SenderID) {
		observed = append(observed, payload)
		if payload == 1 {
			// Emitting from inside a handler must only be visible on the *next* Tick.
			_ = Emit(b, EventID(1), UnspecifiedDestination, 2, UnspecifiedSender)
		}
	}); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}

	_ = Emit(b, EventID(1), UnspecifiedDestination, 1, UnspecifiedSender)
	b.Tick()
	if len(observed) != 1 || observed[0] != 1 {
		t.Fatalf("expected only the first payload delivered on first Tick, got %v", observed)
	}

	b.Tick()
	if len(observed) != 2 || observed[1] != 2 {
		t.Fatalf("expected the handler-triggered emit delivered on the second Tick, got %v", observed)
	}
}

func TestFIFOOrderPerChannel(t *testing.T) {
	b := NewBinder()
	var observed []int
	if err := Connect(b, EventID(1), UnspecifiedDestination, func(payload int, _ SenderID) {
		observed = append(observed, payload)
	}); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}

	for i := 0; i < 5; i++ {
		_ = Emit(b, EventID(1), UnspecifiedDestination, i, UnspecifiedSender)
	}
	b.Tick()

	for i, value := range observed {
		if value != i {
			t.Fatalf("expected FIFO order 0..4, got %v", observed)
		}
	}
}

func TestDestinationScoping(t *testing.T) {
	b := NewBinder()
	var broadcastHits, scopedHits int
	if err := Connect(b, EventID(1), UnspecifiedDestination, func(int, SenderID) { broadcastHits++ }); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	if err := Connect(b, EventID(1), DestinationID(5), func(int, SenderID) { scopedHits++ }); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}

	_ = Emit(b, EventID(1), DestinationID(5), 1, UnspecifiedSender)
	b.Tick()

	if broadcastHits != 0 {
		t.Fatalf("expected the broadcast channel untouched, got %d hits", broadcastHits)
	}
	if scopedHits != 1 {
		t.Fatalf("expected exactly one scoped delivery, got %d", scopedHits)
	}
}

func TestConnectPayloadAndVoidVariants(t *testing.T) {
	b := NewBinder()
	var payloadOnly int
	if err := ConnectPayload(b, EventID(1), UnspecifiedDestination, func(value int) { payloadOnly = value }); err != nil {
		t.Fatalf("ConnectPayload returned error: %v", err)
	}
	var voidSender SenderID
	if err := ConnectVoid(b, EventID(2), UnspecifiedDestination, func(sender SenderID) { voidSender = sender }); err != nil {
		t.Fatalf("ConnectVoid returned error: %v", err)
	}
	var voidNoSenderHit bool
	if err := ConnectVoidNoSender(b, EventID(3), UnspecifiedDestination, func() { voidNoSenderHit = true }); err != nil {
		t.Fatalf("ConnectVoidNoSender returned error: %v", err)
	}

	_ = Emit(b, EventID(1), UnspecifiedDestination, 9, UnspecifiedSender)
	_ = Emit(b, EventID(2), UnspecifiedDestination, Void{}, SenderID(3))
	_ = Emit(b, EventID(3), UnspecifiedDestination, Void{}, UnspecifiedSender)
	b.Tick()

	if payloadOnly != 9 {
		t.Fatalf("expected payload-only delivery of 9, got %d", payloadOnly)
	}
	if voidSender != 3 {
		t.Fatalf("expected void-with-sender delivery of sender 3, got %d", voidSender)
	}
	if !voidNoSenderHit {
		t.Fatal("expected void-no-sender handler to fire")
	}
}

func TestHandlerPanicDoesNotStopRemainingDelivery(t *testing.T) {
	b := NewBinder()
	var secondHandlerCalls int
	if err := Connect(b, EventID(1), UnspecifiedDestination, func(int, SenderID) {
		panic("boom")
	}); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}
	if err := Connect(b, EventID(1), UnspecifiedDestination, func(int, SenderID) {
		secondHandlerCalls++
	}); err != nil {
		t.Fatalf("Connect returned error: %v", err)
	}

	_ = Emit(b, EventID(1), UnspecifiedDestination, 1, UnspecifiedSender)
	_ = Emit(b, EventID(1), UnspecifiedDestination, 2, UnspecifiedSender)

	// Tick must not panic: invokeCallback recovers per-callback internally.
	b.Tick()

	if secondHandlerCalls != 2 {
		t.Fatalf("expected the second handler to observe both payloads despite the first panicking, got %d calls", secondHandlerCalls)
	}
}
