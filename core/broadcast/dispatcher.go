package broadcast

import (
	"log/slog"
	"sync"
)

// subscription is a single registered handler.
type subscription struct {
	id      uint64
	handler Handler
}

// Dispatcher is the in-process synchronous Broadcaster implementation.
// Handlers for an identifier run in registration order. A panicking handler
// is recovered and logged so the remaining handlers and the emitter are
// unaffected.
type Dispatcher struct {
	mu     sync.RWMutex
	topics map[string][]*subscription
	nextID uint64
	logger *slog.Logger
}

// NewDispatcher creates an empty dispatcher.
// If logger is nil, slog.Default() is used.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		topics: make(map[string][]*subscription),
		logger: logger,
	}
}

// Emit delivers args to every current subscriber of id, in registration order.
func (d *Dispatcher) Emit(id string, args ...any) {
	d.mu.RLock()
	// Copy subscriptions so no lock is held while handlers execute.
	subs := make([]*subscription, len(d.topics[id]))
	copy(subs, d.topics[id])
	d.mu.RUnlock()

	ev := Event{ID: id}
	for _, sub := range subs {
		d.deliver(sub, ev, args)
	}
}

func (d *Dispatcher) deliver(sub *subscription, ev Event, args []any) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked", "event", ev.ID, "panic", r)
		}
	}()
	sub.handler(ev, args...)
}

// Subscribe registers h for events emitted under id and returns its
// deregistration function.
func (d *Dispatcher) Subscribe(id string, h Handler) (remove func()) {
	d.mu.Lock()
	d.nextID++
	sub := &subscription{id: d.nextID, handler: h}
	d.topics[id] = append(d.topics[id], sub)
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { d.unsubscribe(id, sub.id) })
	}
}

func (d *Dispatcher) unsubscribe(topic string, subID uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	subs := d.topics[topic]
	for i, sub := range subs {
		if sub.id == subID {
			d.topics[topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(d.topics[topic]) == 0 {
		delete(d.topics, topic)
	}
}

// Len returns the number of current subscribers for id.
func (d *Dispatcher) Len(id string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.topics[id])
}
