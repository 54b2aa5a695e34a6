package trace

import (
	"sync"

	"github.com/hupe1980/agentdesk/core"
)

// InMemoryTracer is a volatile core.Tracer keeping one ordered event slice
// per session in a process local map. It is safe for concurrent access.
// Reads return defensive copies so callers cannot mutate the log.
type InMemoryTracer struct {
	mu     sync.RWMutex
	events map[string][]core.TraceEvent
}

// NewInMemoryTracer constructs an empty in-memory tracer.
func NewInMemoryTracer() *InMemoryTracer {
	return &InMemoryTracer{events: make(map[string][]core.TraceEvent)}
}

// Append adds an event to the session's log, creating the log lazily for
// unknown sessions.
func (t *InMemoryTracer) Append(sessionID string, ev core.TraceEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events[sessionID] = append(t.events[sessionID], ev)
	return nil
}

// Events returns a copy of the session's full event slice in append order.
// An unknown session yields an empty slice, not an error: a session that
// never produced events has an empty trace.
func (t *InMemoryTracer) Events(sessionID string) ([]core.TraceEvent, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	evs := t.events[sessionID]
	out := make([]core.TraceEvent, len(evs))
	copy(out, evs)
	return out, nil
}

// Clear drops every session's log. Used between simulation runs for test
// isolation.
func (t *InMemoryTracer) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = make(map[string][]core.TraceEvent)
}
