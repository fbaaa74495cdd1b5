// Package fsm implements a tick-driven finite state machine.
//
// States are registered under an explicit kind tag chosen by the client
// (typically a small integer enum). Transitions are deferred: a call to
// TransitionTo only records the request, and the swap happens on the next
// call to Update, which runs OnExit on the old state and OnEnter on the new
// one back to back. Only one transition may be pending at a time.
//
// A Machine is not safe for concurrent use; it is meant to be driven from a
// single game-loop goroutine.
package fsm

import (
	"fmt"

	"go.uber.org/zap"
)

// State is a single state of a Machine.
//
// Implementations embed Base, which the machine binds when the state is
// added so the state can reach its machine and the shared parent context.
type State[K comparable, P any] interface {
	// Kind returns the tag the state is registered under.
	Kind() K

	// OnEnter is called once when the state becomes current.
	OnEnter()

	// OnUpdate is called on every tick while the state is current.
	OnUpdate(dt float64)

	// OnExit is called once when the state stops being current,
	// before the next state's OnEnter.
	OnExit()

	bind(m *Machine[K, P])
}

// Base provides the machine and parent references for a State and
// no-op lifecycle hooks. Embed it in concrete states.
type Base[K comparable, P any] struct {
	machine *Machine[K, P]
}

func (b *Base[K, P]) bind(m *Machine[K, P]) {
	b.machine = m
}

// Machine returns the machine the state is registered with, or nil.
func (b *Base[K, P]) Machine() *Machine[K, P] {
	return b.machine
}

// Parent returns the parent context shared by all states of the machine.
func (b *Base[K, P]) Parent() P {
	if b.machine == nil {
		var zero P
		return zero
	}
	return b.machine.parent
}

// OnEnter does nothing.
func (b *Base[K, P]) OnEnter() {}

// OnUpdate does nothing.
func (b *Base[K, P]) OnUpdate(float64) {}

// OnExit does nothing.
func (b *Base[K, P]) OnExit() {}

// Option configures a Machine.
type Option func(*options)

type options struct {
	log *zap.Logger
}

// WithLogger sets the logger used for transition warnings.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// Machine is a finite state machine over states tagged with K, sharing a
// parent context of type P.
type Machine[K comparable, P any] struct {
	parent P
	states map[K]State[K, P]

	current  State[K, P]
	previous State[K, P]
	next     State[K, P]

	transitioning bool

	log *zap.Logger
}

// New creates an empty machine bound to parent.
func New[K comparable, P any](parent P, opts ...Option) *Machine[K, P] {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Machine[K, P]{
		parent: parent,
		states: make(map[K]State[K, P]),
		log:    o.log,
	}
}

// Parent returns the parent context.
func (m *Machine[K, P]) Parent() P {
	return m.parent
}

// AddState registers s under s.Kind(). A state whose kind is already
// registered is ignored.
func (m *Machine[K, P]) AddState(s State[K, P]) {
	if s == nil {
		return
	}
	kind := s.Kind()
	if _, exists := m.states[kind]; exists {
		m.log.Debug("state already registered", zap.String("kind", fmt.Sprint(kind)))
		return
	}
	s.bind(m)
	m.states[kind] = s
}

// State returns the state registered under kind.
func (m *Machine[K, P]) State(kind K) (State[K, P], bool) {
	s, ok := m.states[kind]
	return s, ok
}

// Len returns the number of registered states.
func (m *Machine[K, P]) Len() int {
	return len(m.states)
}

// TransitionTo requests a transition to the state registered under kind.
// It returns false if a transition is already pending.
//
// Transitioning to an unregistered kind is accepted: a warning is logged
// and the machine ends up with no current state after the next Update.
func (m *Machine[K, P]) TransitionTo(kind K) bool {
	if m.transitioning {
		return false
	}
	m.transitioning = true
	m.previous = m.current

	next, ok := m.states[kind]
	if !ok {
		m.log.Warn("transition to unregistered state",
			zap.String("kind", fmt.Sprint(kind)))
	}
	m.next = next
	return true
}

// TransitionToState requests a transition to s. It returns false if s is
// nil, is not the state registered under its kind, or a transition is
// already pending.
func (m *Machine[K, P]) TransitionToState(s State[K, P]) bool {
	if s == nil || m.transitioning {
		return false
	}
	registered, ok := m.states[s.Kind()]
	if !ok || registered != s {
		return false
	}
	m.transitioning = true
	m.previous = m.current
	m.next = s
	return true
}

// Update applies a pending transition, or ticks the current state if no
// transition is pending.
//
// The pending flag is cleared before OnExit/OnEnter run, so those hooks may
// request another transition; it takes effect on the following Update.
func (m *Machine[K, P]) Update(dt float64) {
	if m.transitioning {
		m.transitioning = false
		next := m.next
		m.next = nil

		if m.current != nil {
			m.current.OnExit()
		}
		m.current = next
		if m.current != nil {
			m.current.OnEnter()
		}
		return
	}

	if m.current != nil {
		m.current.OnUpdate(dt)
	}
}

// IsIn reports whether the current state is registered under kind.
func (m *Machine[K, P]) IsIn(kind K) bool {
	return m.current != nil && m.current.Kind() == kind
}

// IsTransitioning reports whether a transition is pending.
func (m *Machine[K, P]) IsTransitioning() bool {
	return m.transitioning
}

// Current returns the current state, or nil.
func (m *Machine[K, P]) Current() State[K, P] {
	return m.current
}

// Previous returns the state that was current when the last transition
// was requested, or nil.
func (m *Machine[K, P]) Previous() State[K, P] {
	return m.previous
}

// Clear drops every registered state and resets the machine. If callExit
// is true, the current state's OnExit runs first. The parent is kept.
func (m *Machine[K, P]) Clear(callExit bool) {
	if callExit && m.current != nil {
		m.current.OnExit()
	}
	for _, s := range m.states {
		s.bind(nil)
	}
	m.current = nil
	m.previous = nil
	m.next = nil
	m.transitioning = false
	m.states = make(map[K]State[K, P])
}
