package broadcast

import "testing"

func TestEventBusBroadcaster_EmitSubscribe(t *testing.T) {
	b := NewEventBusBroadcaster(nil)

	var got []any
	var gotEvent Event
	b.Subscribe("session:started", func(ev Event, args ...any) {
		gotEvent = ev
		got = args
	})

	b.Emit("session:started", "acct-1", 42)

	if gotEvent.ID != "session:started" {
		t.Errorf("expected event id %q, got %q", "session:started", gotEvent.ID)
	}
	if len(got) != 2 || got[0] != "acct-1" || got[1] != 42 {
		t.Errorf("unexpected args: %v", got)
	}
}

func TestEventBusBroadcaster_Unsubscribe(t *testing.T) {
	b := NewEventBusBroadcaster(nil)

	received := 0
	remove := b.Subscribe("topic", func(ev Event, args ...any) {
		received++
	})

	b.Emit("topic")
	remove()
	b.Emit("topic")

	if received != 1 {
		t.Errorf("expected 1 delivery, got %d", received)
	}

	// remove is idempotent
	remove()
}

func TestEventBusBroadcaster_UnsubscribeOne(t *testing.T) {
	b := NewEventBusBroadcaster(nil)

	var first, second, third int
	d1 := b.Subscribe("topic", func(ev Event, args ...any) { first++ })
	d2 := b.Subscribe("topic", func(ev Event, args ...any) { second++ })
	b.Subscribe("topic", func(ev Event, args ...any) { third++ })

	// Removing one subscription must not touch its siblings, even though
	// all three closures share a code pointer.
	d2()
	b.Emit("topic")

	if first != 1 {
		t.Errorf("first subscriber: expected 1 delivery, got %d", first)
	}
	if second != 0 {
		t.Errorf("removed subscriber received %d events", second)
	}
	if third != 1 {
		t.Errorf("third subscriber: expected 1 delivery, got %d", third)
	}

	d1()
	b.Emit("topic")

	if first != 1 {
		t.Errorf("first subscriber after removal: expected 1 delivery, got %d", first)
	}
	if third != 2 {
		t.Errorf("third subscriber: expected 2 deliveries, got %d", third)
	}
}

func TestEventBusBroadcaster_ResubscribeAfterEmpty(t *testing.T) {
	b := NewEventBusBroadcaster(nil)

	first := 0
	remove := b.Subscribe("topic", func(ev Event, args ...any) { first++ })
	remove()

	// The bus-side demux survives the last removal and is reused; a fresh
	// subscription must get exactly one delivery, not zero and not two.
	second := 0
	b.Subscribe("topic", func(ev Event, args ...any) { second++ })
	b.Emit("topic")

	if first != 0 {
		t.Errorf("removed subscriber received %d events", first)
	}
	if second != 1 {
		t.Errorf("new subscriber: expected 1 delivery, got %d", second)
	}
}

func TestEventBusBroadcaster_SharedBus(t *testing.T) {
	b := NewEventBusBroadcaster(nil)

	// Subscribers attached directly to the underlying bus still hear emits.
	direct := 0
	if err := b.Bus().Subscribe("topic", func() { direct++ }); err != nil {
		t.Fatalf("direct subscribe failed: %v", err)
	}

	b.Emit("topic")

	if direct != 1 {
		t.Errorf("expected 1 direct delivery, got %d", direct)
	}
}
