// Package connectivity tracks whether the device is online.
//
// A Monitor is fed by whatever native signal the host has (Set), or by a
// probe loop (Watch), and notifies subscribers on every real transition.
package connectivity

import (
	"sync"
)

// Listener receives the new status after a transition.
type Listener func(online bool)

// Monitor is the single source of truth for online status.
type Monitor struct {
	mu        sync.Mutex
	online    bool
	nextID    uint64
	listeners map[uint64]Listener

	// notifyMu serializes deliveries so every subscriber sees transitions in
	// the order they happened.
	notifyMu sync.Mutex
}

// NewMonitor returns a monitor that reports initial until the first Set.
func NewMonitor(initial bool) *Monitor {
	return &Monitor{
		online:    initial,
		listeners: make(map[uint64]Listener),
	}
}

// Online returns the current status.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Set records the observed status and notifies subscribers if it changed.
// It reports whether a transition happened. Repeated reports of the same
// status are ignored.
func (m *Monitor) Set(online bool) bool {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return false
	}
	m.online = online
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	for _, l := range listeners {
		l(online)
	}
	return true
}

// Subscribe registers fn for transitions and returns a function that
// unregisters it. The returned function is safe to call more than once.
// fn must not call Set.
func (m *Monitor) Subscribe(fn Listener) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// Subscribers returns the number of registered listeners.
func (m *Monitor) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}
