package memory

import (
	"sync"
)

// InMemoryStore is a naive process-local core.MemoryStore holding a key/value
// map per session. Concurrency: protected by RWMutex. Get returns a shallow
// copy so callers cannot mutate internal state.
type InMemoryStore struct {
	mu     sync.RWMutex
	memory map[string]map[string]any // sessionID -> key -> value
}

// NewInMemoryStore creates a new in-memory memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{memory: make(map[string]map[string]any)}
}

// Get returns a shallow copy of the key/value memory map for the session.
func (m *InMemoryStore) Get(sessionID string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sessionMemory, exists := m.memory[sessionID]
	if !exists {
		return make(map[string]any), nil
	}
	result := make(map[string]any, len(sessionMemory))
	for k, v := range sessionMemory {
		result[k] = v
	}
	return result, nil
}

// Put merges the provided delta map into the session's key/value memory.
func (m *InMemoryStore) Put(sessionID string, delta map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.memory[sessionID]; !exists {
		m.memory[sessionID] = make(map[string]any)
	}
	for k, v := range delta {
		m.memory[sessionID][k] = v
	}
	return nil
}

// ClearAll wipes every session's memory. Used for test isolation before a
// simulation run.
func (m *InMemoryStore) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memory = make(map[string]map[string]any)
}
