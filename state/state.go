// Package state implements the bridge connection state machine.
//
// The machine is a pure observer/controller: it holds no sockets and performs
// no I/O. The client consults it before deciding whether to attempt a send or
// fall back to mock data, and transitions it as connects succeed and fail.
// Listener notification is the only sanctioned way external code observes
// connectivity, never polling of socket internals.
package state

import (
	"fmt"
	"sync"
)

// ConnState is the connection lifecycle state.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
	Reconnecting
	Error
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Listener receives every state transition with the reason that caused it.
type Listener func(old, new ConnState, reason string)

// legal enumerates the sanctioned transitions:
//
//	Disconnected --connect attempt--> Connecting --success--> Connected
//	Connected --failure/close--> Disconnected | Error
//	Connected --transient error--> Reconnecting --success--> Connected
//	Reconnecting --exhausted retries--> Error
var legal = map[ConnState][]ConnState{
	Disconnected: {Connecting},
	Connecting:   {Connected, Disconnected, Error},
	Connected:    {Disconnected, Reconnecting, Error},
	Reconnecting: {Connected, Disconnected, Error},
	Error:        {Connecting, Disconnected},
}

// Machine tracks the current connection state and notifies listeners on
// every transition. Safe for concurrent use.
type Machine struct {
	mu        sync.Mutex
	current   ConnState
	listeners []Listener
}

// NewMachine creates a machine in the Disconnected state.
func NewMachine() *Machine {
	return &Machine{current: Disconnected}
}

// Current returns the current state.
func (m *Machine) Current() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// IsConnected reports whether the machine is in the Connected state.
func (m *Machine) IsConnected() bool {
	return m.Current() == Connected
}

// Subscribe registers a listener for all future transitions.
func (m *Machine) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Transition moves the machine to next, notifying listeners with
// (old, next, reason). Illegal transitions are rejected with an error and
// notify nobody; a transition to the current state is a no-op.
func (m *Machine) Transition(next ConnState, reason string) error {
	m.mu.Lock()
	old := m.current
	if old == next {
		m.mu.Unlock()
		return nil
	}
	allowed := false
	for _, s := range legal[old] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		m.mu.Unlock()
		return fmt.Errorf("state: illegal transition %s -> %s", old, next)
	}
	m.current = next
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	// Listeners run outside the lock so they may query the machine.
	for _, l := range listeners {
		l(old, next, reason)
	}
	return nil
}
