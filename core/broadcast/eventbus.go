package broadcast

import (
	"sync"

	"github.com/asaskevich/EventBus"
)

// EventBusBroadcaster adapts a github.com/asaskevich/EventBus bus to the
// Broadcaster contract, for hosts that already run one. Delivery is
// synchronous (plain Subscribe, never SubscribeAsync).
//
// EventBus deregisters by handler function identity, and every closure built
// from the same source location shares one code pointer, so its Unsubscribe
// cannot tell two subscriptions of the same topic apart. The adapter
// therefore registers exactly one demux handler per identifier on the bus
// and fans out to its own handler table; deregistration only edits the
// table. The demux stays on the bus even when its table empties — the bus
// holds its lock while running handlers, so calling Unsubscribe from a
// removal that fires inside a handler would deadlock.
type EventBusBroadcaster struct {
	bus EventBus.Bus

	mu     sync.Mutex
	topics map[string]*busTopic
	nextID uint64
}

// busTopic is the adapter-side handler table behind one bus subscription.
type busTopic struct {
	order    []uint64
	handlers map[uint64]Handler
}

// NewEventBusBroadcaster wraps bus. If bus is nil, a fresh bus is created.
func NewEventBusBroadcaster(bus EventBus.Bus) *EventBusBroadcaster {
	if bus == nil {
		bus = EventBus.New()
	}
	return &EventBusBroadcaster{
		bus:    bus,
		topics: make(map[string]*busTopic),
	}
}

// Bus exposes the underlying bus so callers can share it with non-registry
// subscribers.
func (b *EventBusBroadcaster) Bus() EventBus.Bus {
	return b.bus
}

// Emit publishes args under id.
func (b *EventBusBroadcaster) Emit(id string, args ...any) {
	b.bus.Publish(id, args...)
}

// Subscribe registers h under id and returns its deregistration function.
func (b *EventBusBroadcaster) Subscribe(id string, h Handler) (remove func()) {
	b.mu.Lock()
	topic := b.topics[id]
	newTopic := topic == nil
	if newTopic {
		topic = &busTopic{handlers: make(map[uint64]Handler)}
		b.topics[id] = topic
	}

	b.nextID++
	subID := b.nextID
	topic.order = append(topic.order, subID)
	topic.handlers[subID] = h
	b.mu.Unlock()

	// The bus lock is held while it runs handlers, so never call into the
	// bus while holding b.mu.
	if newTopic {
		demux := func(args ...any) {
			b.deliver(id, args)
		}
		if err := b.bus.Subscribe(id, demux); err != nil {
			// Subscribe only rejects non-function handlers; demux is always a
			// function. Roll the table entry back all the same.
			b.mu.Lock()
			delete(topic.handlers, subID)
			if len(topic.handlers) == 0 {
				delete(b.topics, id)
			}
			b.mu.Unlock()
			return func() {}
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(id, subID) })
	}
}

// deliver fans a published event out to the handlers registered under id,
// in subscription order. No lock is held while handlers execute.
func (b *EventBusBroadcaster) deliver(id string, args []any) {
	b.mu.Lock()
	var hs []Handler
	if topic := b.topics[id]; topic != nil {
		hs = make([]Handler, 0, len(topic.order))
		for _, subID := range topic.order {
			if h, ok := topic.handlers[subID]; ok {
				hs = append(hs, h)
			}
		}
	}
	b.mu.Unlock()

	ev := Event{ID: id}
	for _, h := range hs {
		h(ev, args...)
	}
}

// unsubscribe drops one handler from the table. The topic entry survives so
// the bus-side demux is reused by later subscriptions to the same id.
func (b *EventBusBroadcaster) unsubscribe(id string, subID uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	topic := b.topics[id]
	if topic == nil {
		return
	}

	delete(topic.handlers, subID)
	for i, v := range topic.order {
		if v == subID {
			topic.order = append(topic.order[:i], topic.order[i+1:]...)
			break
		}
	}
}
