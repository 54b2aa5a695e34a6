package core

import (
	"sync"
	"time"
)

// CustomerContext carries the identity and metadata of the customer behind a
// session. CustomerID is the only required field; session creation fails
// without it.
type CustomerContext struct {
	CustomerID string            `json:"customer_id"`
	Name       string            `json:"name,omitempty"`
	Email      string            `json:"email,omitempty"`
	Tier       string            `json:"tier,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Validate reports whether the required identity fields are present.
func (c CustomerContext) Validate() error {
	if c.CustomerID == "" {
		return ErrMissingIdentity
	}
	return nil
}

// Session is a conversational container tracking the customer context, the
// currently selected agent and mutable key/value state. It is safe for
// concurrent access.
//
// Contract:
//   - State mutations update the Updated timestamp
//   - Clone performs deep copies of maps for safe divergence
type Session struct {
	ID           string          `json:"id"`
	Customer     CustomerContext `json:"customer"`
	CurrentAgent string          `json:"current_agent,omitempty"`
	State        map[string]any  `json:"state"`
	Turns        int             `json:"turns"`
	Escalated    bool            `json:"escalated"`
	Created      time.Time       `json:"created"`
	Updated      time.Time       `json:"updated"`
	mu           sync.RWMutex
}

// NewSession creates a session bound to the given customer context.
func NewSession(id string, customer CustomerContext) *Session {
	now := time.Now().UTC()
	return &Session{ID: id, Customer: customer, State: map[string]any{}, Created: now, Updated: now}
}

// GetState returns the value and existence flag for a state key.
func (s *Session) GetState(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.State[key]
	return v, ok
}

// SetState sets a key/value pair in session state.
func (s *Session) SetState(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State[key] = value
	s.Updated = time.Now().UTC()
}

// RecordTurn advances the turn counter and the current agent, latching the
// escalated flag once set.
func (s *Session) RecordTurn(agent string, escalated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Turns++
	s.CurrentAgent = agent
	if escalated {
		s.Escalated = true
	}
	s.Updated = time.Now().UTC()
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		ID:           s.ID,
		Customer:     s.Customer,
		CurrentAgent: s.CurrentAgent,
		State:        make(map[string]any, len(s.State)),
		Turns:        s.Turns,
		Escalated:    s.Escalated,
		Created:      s.Created,
		Updated:      s.Updated,
	}
	for k, v := range s.State {
		clone.State[k] = v
	}
	return clone
}

// SessionStore persists sessions and their evolving state. Unlike a cache,
// Get is a hard lookup: unknown ids yield ErrSessionNotFound.
type SessionStore interface {
	Create(id string, customer CustomerContext) (*Session, error)
	Get(id string) (*Session, error)
	RecordTurn(id string, agent string, escalated bool) error
}
