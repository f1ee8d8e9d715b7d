// Package scope provides lifecycle-bound scopes. A scope can be destroyed
// exactly once; interested parties register destroy listeners and use the
// notification to tear down resources tied to the scope's lifetime.
package scope

import "sync"

// Scope is a lifecycle-bound context. Scopes form a tree: destroying a scope
// destroys its children first, then runs the scope's own destroy listeners in
// registration order, then detaches the scope from its parent.
type Scope struct {
	mu        sync.Mutex
	destroyed bool
	nextID    uint64
	listeners []destroyListener
	parent    *Scope
	childID   uint64 // key within parent.children
	children  map[uint64]*Scope
}

type destroyListener struct {
	id uint64
	fn func()
}

// New creates a root scope with no parent.
func New() *Scope {
	return &Scope{}
}

// NewChild creates a scope owned by s. The child is destroyed automatically
// when s is destroyed. A child created from an already-destroyed scope is
// born destroyed.
func (s *Scope) NewChild() *Scope {
	s.mu.Lock()
	defer s.mu.Unlock()

	child := &Scope{parent: s}
	if s.destroyed {
		child.destroyed = true
		child.parent = nil
		return child
	}

	s.nextID++
	child.childID = s.nextID
	if s.children == nil {
		s.children = make(map[uint64]*Scope)
	}
	s.children[child.childID] = child
	return child
}

// OnDestroy registers fn to run when the scope is destroyed. The returned
// remove function deregisters the listener; calling it after destruction is a
// no-op. If the scope is already destroyed, fn runs synchronously and the
// returned remove function does nothing.
func (s *Scope) OnDestroy(fn func()) (remove func()) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		fn()
		return func() {}
	}

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, destroyListener{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				break
			}
		}
	}
}

// Destroy marks the scope destroyed and fires its destroy listeners.
// Children are destroyed before the scope's own listeners run. Destroy is
// idempotent. No internal lock is held while listeners execute.
func (s *Scope) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true

	listeners := s.listeners
	s.listeners = nil

	children := make([]*Scope, 0, len(s.children))
	for _, c := range s.children {
		children = append(children, c)
	}
	s.children = nil

	parent := s.parent
	childID := s.childID
	s.parent = nil
	s.mu.Unlock()

	for _, c := range children {
		c.Destroy()
	}
	for _, l := range listeners {
		l.fn()
	}
	if parent != nil {
		parent.forgetChild(childID)
	}
}

// Destroyed reports whether Destroy has been called.
func (s *Scope) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

func (s *Scope) forgetChild(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.children, id)
}
