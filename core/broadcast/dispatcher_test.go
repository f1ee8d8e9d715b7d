package broadcast

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestDispatcher_EmitSubscribe(t *testing.T) {
	d := NewDispatcher(nil)

	var got []any
	var gotEvent Event
	d.Subscribe("session:started", func(ev Event, args ...any) {
		gotEvent = ev
		got = args
	})

	d.Emit("session:started", "acct-1", 42)

	if gotEvent.ID != "session:started" {
		t.Errorf("expected event id %q, got %q", "session:started", gotEvent.ID)
	}
	if len(got) != 2 || got[0] != "acct-1" || got[1] != 42 {
		t.Errorf("unexpected args: %v", got)
	}
}

func TestDispatcher_EmitNoSubscribers(t *testing.T) {
	d := NewDispatcher(nil)

	// Must not panic or error.
	d.Emit("nobody:listens", "payload")
}

func TestDispatcher_DeliveryOrder(t *testing.T) {
	d := NewDispatcher(nil)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		d.Subscribe("ordered", func(ev Event, args ...any) {
			order = append(order, i)
		})
	}

	d.Emit("ordered")

	if len(order) != 5 {
		t.Fatalf("expected 5 deliveries, got %d", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Errorf("delivery %d: expected subscriber %d, got %d", i, i, v)
		}
	}
}

func TestDispatcher_Unsubscribe(t *testing.T) {
	d := NewDispatcher(nil)

	received := 0
	remove := d.Subscribe("topic", func(ev Event, args ...any) {
		received++
	})

	d.Emit("topic")
	remove()
	d.Emit("topic")

	if received != 1 {
		t.Errorf("expected 1 delivery, got %d", received)
	}

	// remove is idempotent
	remove()
	if d.Len("topic") != 0 {
		t.Errorf("expected 0 subscribers, got %d", d.Len("topic"))
	}
}

func TestDispatcher_UnsubscribeOne(t *testing.T) {
	d := NewDispatcher(nil)

	var first, second int
	removeFirst := d.Subscribe("topic", func(ev Event, args ...any) { first++ })
	d.Subscribe("topic", func(ev Event, args ...any) { second++ })

	removeFirst()
	d.Emit("topic")

	if first != 0 {
		t.Errorf("removed subscriber received %d events", first)
	}
	if second != 1 {
		t.Errorf("remaining subscriber: expected 1 event, got %d", second)
	}
}

func TestDispatcher_HandlerPanic(t *testing.T) {
	d := NewDispatcher(nil)

	received := 0
	d.Subscribe("topic", func(ev Event, args ...any) {
		panic("test panic")
	})
	d.Subscribe("topic", func(ev Event, args ...any) {
		received++
	})

	d.Emit("topic")

	if received != 1 {
		t.Errorf("expected delivery despite earlier panic, got %d", received)
	}
}

func TestDispatcher_TopicIsolation(t *testing.T) {
	d := NewDispatcher(nil)

	var a, b int
	d.Subscribe("alpha:ping", func(ev Event, args ...any) { a++ })
	d.Subscribe("beta:ping", func(ev Event, args ...any) { b++ })

	d.Emit("alpha:ping")

	if a != 1 || b != 0 {
		t.Errorf("expected alpha=1 beta=0, got alpha=%d beta=%d", a, b)
	}
}

func TestDispatcher_ConcurrentEmit(t *testing.T) {
	d := NewDispatcher(nil)

	var received atomic.Int32
	d.Subscribe("topic", func(ev Event, args ...any) {
		received.Add(1)
	})

	const numEvents = 100
	var wg sync.WaitGroup
	wg.Add(numEvents)
	for i := 0; i < numEvents; i++ {
		go func() {
			defer wg.Done()
			d.Emit("topic")
		}()
	}
	wg.Wait()

	if received.Load() != numEvents {
		t.Errorf("expected %d deliveries, got %d", numEvents, received.Load())
	}
}
