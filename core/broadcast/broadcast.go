// Package broadcast provides the host-wide event dispatch primitive: emit by
// string identifier with arbitrary positional arguments, delivered
// synchronously to all current subscribers.
package broadcast

// Event is the dispatcher-supplied event object, delivered to handlers ahead
// of the emitter's own arguments.
type Event struct {
	// ID is the string identifier the event was emitted under.
	ID string
}

// Handler handles one delivered event.
type Handler func(ev Event, args ...any)

// Broadcaster is the dispatch contract consumed by the transponder registry.
type Broadcaster interface {
	// Emit delivers args to every current subscriber of id, synchronously.
	// Fire-and-forget: no return value, and emitting with no subscribers is
	// not an error.
	Emit(id string, args ...any)

	// Subscribe registers h for events emitted under id.
	// Returns a deregistration function; calling it more than once is a no-op.
	Subscribe(id string, h Handler) (remove func())
}
