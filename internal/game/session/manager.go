package session

import (
	"fmt"
	"sort"
	"sync"
)

// Manager tracks active runs by id.
// All methods are safe for concurrent use.
type Manager struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewManager creates an empty run Manager.
func NewManager() *Manager {
	return &Manager{runs: make(map[string]*Run)}
}

// Add registers r.
//
// Precondition: r must be non-nil.
// Postcondition: Returns an error if a run with the same id is already registered.
func (m *Manager) Add(r *Run) error {
	if r == nil {
		panic("session: Manager.Add precondition violated: run must be non-nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.runs[r.ID()]; exists {
		return fmt.Errorf("run %q already registered", r.ID())
	}
	m.runs[r.ID()] = r
	return nil
}

// Remove abandons and unregisters the run with id, closing its feed.
//
// Postcondition: The run is removed from tracking. Returns an error if not found.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, exists := m.runs[id]
	if !exists {
		return fmt.Errorf("run %q not found", id)
	}
	r.Abandon()
	_ = r.Feed().Close()
	delete(m.runs, id)
	return nil
}

// Get returns the run with id.
//
// Postcondition: Returns (run, true) if found, or (nil, false) otherwise.
func (m *Manager) Get(id string) (*Run, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	return r, ok
}

// IDs returns the ids of all tracked runs in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.runs))
	for id := range m.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of tracked runs.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}
