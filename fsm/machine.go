// Package fsm is a small finite state machine used to drive animation states.
//
// States and transitions are registered up front; a Machine then moves between
// states when events are fired. Registering the same state or the same
// (state, event) pair twice is a setup error.
package fsm

import "fmt"

// Hooks are optional callbacks run around a transition. An OnExit error cancels the
// transition; an OnEnter error is reported after the state has changed.
type Hooks[S comparable] struct {
	OnEnter func(from S) error
	OnExit  func(to S) error
}

type transitionKey[S, E comparable] struct {
	from  S
	event E
}

// Machine is a finite state machine over states S and events E.
type Machine[S, E comparable] struct {
	current     S
	previous    S
	hasPrevious bool
	states      map[S]Hooks[S]
	transitions map[transitionKey[S, E]]S
}

// New creates a machine starting in initial. The initial state is registered with
// no hooks; AddState may attach them later.
func New[S, E comparable](initial S) *Machine[S, E] {
	return &Machine[S, E]{
		current:     initial,
		states:      map[S]Hooks[S]{initial: {}},
		transitions: make(map[transitionKey[S, E]]S),
	}
}

// AddState registers s with its hooks. The initial state may be given hooks once.
func (m *Machine[S, E]) AddState(s S, hooks Hooks[S]) error {
	if existing, ok := m.states[s]; ok {
		if s != m.current || existing.OnEnter != nil || existing.OnExit != nil {
			return &DuplicateRegistrationError{What: "state", Key: fmt.Sprint(s)}
		}
	}
	m.states[s] = hooks
	return nil
}

// AddTransition registers that firing event in state from moves to state to.
func (m *Machine[S, E]) AddTransition(from S, event E, to S) error {
	if _, ok := m.states[from]; !ok {
		return fmt.Errorf("%w: %v", ErrUnknownState, from)
	}
	if _, ok := m.states[to]; !ok {
		return fmt.Errorf("%w: %v", ErrUnknownState, to)
	}
	key := transitionKey[S, E]{from: from, event: event}
	if _, ok := m.transitions[key]; ok {
		return &DuplicateRegistrationError{What: "transition", Key: fmt.Sprintf("%v --%v-->", from, event)}
	}
	m.transitions[key] = to
	return nil
}

// Current returns the current state.
func (m *Machine[S, E]) Current() S {
	return m.current
}

// Previous returns the state before the last transition and whether there was one.
func (m *Machine[S, E]) Previous() (S, bool) {
	return m.previous, m.hasPrevious
}

// Can reports whether event has a transition from the current state.
func (m *Machine[S, E]) Can(event E) bool {
	_, ok := m.transitions[transitionKey[S, E]{from: m.current, event: event}]
	return ok
}

// Fire applies event. It reports false when the current state has no transition
// for event, which is not an error.
func (m *Machine[S, E]) Fire(event E) (bool, error) {
	to, ok := m.transitions[transitionKey[S, E]{from: m.current, event: event}]
	if !ok {
		return false, nil
	}

	from := m.current
	if exit := m.states[from].OnExit; exit != nil {
		if err := exit(to); err != nil {
			return false, fmt.Errorf("exit %v: %w", from, err)
		}
	}
	m.previous, m.hasPrevious = from, true
	m.current = to
	if enter := m.states[to].OnEnter; enter != nil {
		if err := enter(from); err != nil {
			return true, fmt.Errorf("enter %v: %w", to, err)
		}
	}
	return true, nil
}

// States returns the number of registered states.
func (m *Machine[S, E]) States() int {
	return len(m.states)
}
