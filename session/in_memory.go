package session

import (
	"fmt"
	"sync"

	"github.com/hupe1980/agentdesk/core"
)

// InMemoryStore is a volatile core.SessionStore implementation storing
// sessions in a process local map. It is safe for concurrent access and best
// suited for tests or ephemeral servers. Each returned session is cloned to
// prevent external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

// Create stores a new session for the given customer, overwriting any
// previous session with the same id.
func (s *InMemoryStore) Create(id string, customer core.CustomerContext) (*core.Session, error) {
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := core.NewSession(id, customer)
	s.sessions[id] = sess
	return sess.Clone(), nil
}

// Get returns a clone of an existing session or core.ErrSessionNotFound.
func (s *InMemoryStore) Get(id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	return sess.Clone(), nil
}

// RecordTurn advances the turn counter of an existing session.
func (s *InMemoryStore) RecordTurn(id string, agent string, escalated bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	sess.RecordTurn(agent, escalated)
	return nil
}
