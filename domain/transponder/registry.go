// Package transponder implements the event namespace registry: named
// "namespace:event" publish/subscribe channels addressed through
// per-namespace accessor tables instead of raw identifier strings. The
// registry tracks every live subscription so channels can be enumerated and
// torn down, including automatic teardown when a subscription's owning scope
// is destroyed. Actual event delivery is delegated to an injected
// broadcast.Broadcaster.
package transponder

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"signalry-go/core/broadcast"
	"signalry-go/core/scope"
)

// Separator joins a namespace and an event name into the identifier the
// broadcaster dispatches on. Names must not contain it.
const Separator = ":"

const (
	defaultOnMethod    = "on"
	defaultRaiseMethod = "raise"
)

// Handler receives the arguments an event was raised with. The broadcaster's
// event object is stripped before forwarding.
type Handler func(args ...any)

// RaiseFunc broadcasts its arguments under the pair's event identifier.
// Fire-and-forget: no return value, no error when nobody is subscribed.
type RaiseFunc func(args ...any)

// SubscribeFunc registers h for the pair's event identifier and returns a
// removal function. A nil scope binds the subscription to the registry's
// root scope, which is never auto-removed; a non-nil scope tears the
// subscription down when that scope is destroyed.
type SubscribeFunc func(s *scope.Scope, h Handler) (remove func())

// listener correlates a live subscription with its derived identifier, its
// owning scope and the broadcaster's deregistration callback.
type listener struct {
	handler    Handler
	deregister func()
	eventID    string
	scope      *scope.Scope
}

// Registry is the event namespace registry.
type Registry struct {
	bc   broadcast.Broadcaster
	root *scope.Scope

	mu          sync.Mutex
	onMethod    string
	raiseMethod string
	entries     map[string]*Transponder
	listeners   []*listener

	logger *slog.Logger
}

// Option configures a Registry at construction.
type Option func(*Registry)

// WithLogger sets the registry logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithRootScope sets the scope that one-argument (scope-less) subscriptions
// bind to. Defaults to a fresh root scope owned by the registry.
func WithRootScope(s *scope.Scope) Option {
	return func(r *Registry) { r.root = s }
}

// WithEventMethods sets the initial accessor method keys, equivalent to
// calling SetEventMethods before any SetupEvent.
func WithEventMethods(onName, raiseName string) Option {
	return func(r *Registry) {
		r.onMethod = onName
		r.raiseMethod = raiseName
	}
}

// New creates a registry that delivers through b.
func New(b broadcast.Broadcaster, opts ...Option) *Registry {
	r := &Registry{
		bc:          b,
		onMethod:    defaultOnMethod,
		raiseMethod: defaultRaiseMethod,
		entries:     make(map[string]*Transponder),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.root == nil {
		r.root = scope.New()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// EventID derives the broadcast identifier for a namespace/event pair.
func EventID(namespace, eventName string) string {
	return namespace + Separator + eventName
}

func splitEventID(id string) (namespace, eventName string) {
	namespace, eventName, _ = strings.Cut(id, Separator)
	return namespace, eventName
}

// SetupEvent ensures a transponder exists for namespace and installs the
// raise/on accessor pair for eventName. Re-setup of an existing pair
// overwrites the accessors (last write wins) while listener records created
// through the old accessors stay registered under the same derived
// identifier, since the identifier comes from the names, not from accessor
// identity.
func (r *Registry) SetupEvent(namespace, eventName string) error {
	if err := validateName("namespace", namespace); err != nil {
		return err
	}
	if err := validateName("event name", eventName); err != nil {
		return err
	}

	id := EventID(namespace, eventName)

	r.mu.Lock()
	tp := r.entries[namespace]
	if tp == nil {
		tp = newTransponder(namespace, r.onMethod, r.raiseMethod)
		r.entries[namespace] = tp
	}
	r.mu.Unlock()

	tp.define(eventName, r.newRaise(id), r.newSubscribe(id))

	r.logger.Debug("event pair registered",
		"namespace", namespace, "event", eventName, "id", id)
	return nil
}

func (r *Registry) newRaise(id string) RaiseFunc {
	return func(args ...any) {
		r.bc.Emit(id, args...)
	}
}

func (r *Registry) newSubscribe(id string) SubscribeFunc {
	return func(s *scope.Scope, h Handler) (remove func()) {
		if s == nil {
			s = r.root
		}

		// The broadcaster's event object stops here; handlers see only the
		// arguments the event was raised with.
		cancel := r.bc.Subscribe(id, func(_ broadcast.Event, args ...any) {
			h(args...)
		})

		rec := &listener{handler: h, deregister: cancel, eventID: id, scope: s}

		r.mu.Lock()
		r.listeners = append(r.listeners, rec)
		r.mu.Unlock()

		var once sync.Once
		removeRec := func() {
			once.Do(func() { r.removeRecord(rec) })
		}
		detach := s.OnDestroy(removeRec)

		return func() {
			removeRec()
			detach()
		}
	}
}

// removeRecord drops rec from the listener list and deregisters it from the
// broadcaster. Safe to call for a record that was already removed.
func (r *Registry) removeRecord(rec *listener) {
	r.mu.Lock()
	removed := false
	for i, l := range r.listeners {
		if l == rec {
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			removed = true
			break
		}
	}
	r.mu.Unlock()

	if removed {
		rec.deregister()
	}
}

// Transponder returns the accessor table for namespace, or nil if
// SetupEvent was never called for it (or it was removed).
func (r *Registry) Transponder(namespace string) *Transponder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[namespace]
}

// ListTransponders returns the distinct namespaces that have at least one
// live listener record, in first-seen order. A namespace whose accessors
// exist but whose listeners were all removed is not reported.
func (r *Registry) ListTransponders() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{})
	var names []string
	for _, rec := range r.listeners {
		ns, _ := splitEventID(rec.eventID)
		if _, ok := seen[ns]; ok {
			continue
		}
		seen[ns] = struct{}{}
		names = append(names, ns)
	}
	return names
}

// ListTransmissions returns the event names of all live listener records
// under namespace, in listener-list order. Duplicates appear when an event
// has multiple subscriptions. Unknown namespaces yield an empty result.
func (r *Registry) ListTransmissions(namespace string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var events []string
	for _, rec := range r.listeners {
		ns, ev := splitEventID(rec.eventID)
		if ns == namespace {
			events = append(events, ev)
		}
	}
	return events
}

// RemoveTransmission deregisters and drops every listener record matching
// both namespace and eventName. The accessor pair itself stays installed.
// No-op when nothing matches.
func (r *Registry) RemoveTransmission(namespace, eventName string) {
	r.removeMatching(func(ns, ev string) bool {
		return ns == namespace && ev == eventName
	})
}

// RemoveTransmissions deregisters and drops every listener record under
// namespace. No-op when nothing matches.
func (r *Registry) RemoveTransmissions(namespace string) {
	r.removeMatching(func(ns, _ string) bool {
		return ns == namespace
	})
}

// RemoveTransponder deletes the namespace's accessor table and removes all
// of its listener records. No-op on an unknown namespace.
func (r *Registry) RemoveTransponder(namespace string) {
	r.mu.Lock()
	delete(r.entries, namespace)
	r.mu.Unlock()

	r.RemoveTransmissions(namespace)
}

// removeMatching scans the listener list in reverse order, dropping and
// deregistering every record whose identifier matches.
func (r *Registry) removeMatching(match func(namespace, eventName string) bool) {
	r.mu.Lock()
	var dropped []*listener
	for i := len(r.listeners) - 1; i >= 0; i-- {
		rec := r.listeners[i]
		ns, ev := splitEventID(rec.eventID)
		if match(ns, ev) {
			dropped = append(dropped, rec)
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
		}
	}
	r.mu.Unlock()

	for _, rec := range dropped {
		rec.deregister()
	}
}

// SetEventMethods renames the accessor method keys for subsequently created
// transponders. Existing transponders keep the keys they were created with,
// so call this before the first SetupEvent for consistent naming. Empty
// names leave the corresponding key unchanged.
func (r *Registry) SetEventMethods(onName, raiseName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if onName != "" {
		r.onMethod = onName
	}
	if raiseName != "" {
		r.raiseMethod = raiseName
	}
}

// RootScope returns the scope that scope-less subscriptions bind to.
func (r *Registry) RootScope() *scope.Scope {
	return r.root
}

func validateName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("transponder: %s must not be empty", kind)
	}
	if strings.Contains(name, Separator) {
		return fmt.Errorf("transponder: %s %q must not contain %q", kind, name, Separator)
	}
	return nil
}
