package transponder

import (
	"sort"
	"sync"
)

// Transponder is the accessor table for one namespace. Instead of
// synthesizing callable properties the way a dynamic host would, accessors
// are looked up by event name (and, for generic callers, by the method key
// the registry was configured with when the transponder was created).
type Transponder struct {
	name        string
	onMethod    string
	raiseMethod string

	mu    sync.RWMutex
	raise map[string]RaiseFunc
	on    map[string]SubscribeFunc
}

func newTransponder(name, onMethod, raiseMethod string) *Transponder {
	return &Transponder{
		name:        name,
		onMethod:    onMethod,
		raiseMethod: raiseMethod,
		raise:       make(map[string]RaiseFunc),
		on:          make(map[string]SubscribeFunc),
	}
}

// define installs (or overwrites) the accessor pair for event.
func (t *Transponder) define(event string, raise RaiseFunc, on SubscribeFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.raise[event] = raise
	t.on[event] = on
}

// Name returns the namespace this transponder was created for.
func (t *Transponder) Name() string {
	return t.name
}

// OnMethod returns the subscribe accessor key captured at creation.
func (t *Transponder) OnMethod() string {
	return t.onMethod
}

// RaiseMethod returns the raise accessor key captured at creation.
func (t *Transponder) RaiseMethod() string {
	return t.raiseMethod
}

// Raise returns the raise accessor for event.
// Returns nil if the pair was never set up.
func (t *Transponder) Raise(event string) RaiseFunc {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.raise[event]
}

// On returns the subscribe accessor for event.
// Returns nil if the pair was never set up.
func (t *Transponder) On(event string) SubscribeFunc {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.on[event]
}

// Method looks an accessor up by its configured method key. The returned
// value is a RaiseFunc or a SubscribeFunc depending on which table the key
// names; ok is false when the key or the event is unknown.
func (t *Transponder) Method(method, event string) (fn any, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	switch method {
	case t.onMethod:
		if f, present := t.on[event]; present {
			return f, true
		}
	case t.raiseMethod:
		if f, present := t.raise[event]; present {
			return f, true
		}
	}
	return nil, false
}

// Events returns the event names with installed accessors, sorted.
func (t *Transponder) Events() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.raise))
	for name := range t.raise {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
