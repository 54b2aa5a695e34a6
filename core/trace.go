package core

import (
	"time"

	"github.com/google/uuid"
)

// TraceEventType categorizes entries in a session trace. The set is closed;
// the simulation engine and the judge team switch on these values.
type TraceEventType string

const (
	// TraceMessage records an inbound customer message or outbound reply.
	TraceMessage TraceEventType = "message"
	// TraceRouting records an agent selection made by the router.
	TraceRouting TraceEventType = "routing"
	// TraceTool records a tool invocation performed by an agent.
	TraceTool TraceEventType = "tool"
	// TraceDecision records a non-escalating turn outcome.
	TraceDecision TraceEventType = "decision"
	// TraceEscalation records a hand-off to a human.
	TraceEscalation TraceEventType = "escalation"
)

// TraceEvent is one entry in a session's append-only trace. After emission it
// should be treated as immutable.
type TraceEvent struct {
	ID          string         `json:"id"`
	Type        TraceEventType `json:"type"`
	Agent       string         `json:"agent,omitempty"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// NewTraceEvent constructs a trace event stamped with a fresh id and the
// current UTC time.
func NewTraceEvent(typ TraceEventType, agent, description string) TraceEvent {
	return TraceEvent{
		ID:          NewID(),
		Type:        typ,
		Agent:       agent,
		Description: description,
		Timestamp:   time.Now().UTC(),
	}
}

// Tracer is the per-session append-only event log. Reads return defensive
// copies; appends never fail for known sessions and create the log lazily
// for unknown ones.
type Tracer interface {
	Append(sessionID string, ev TraceEvent) error
	Events(sessionID string) ([]TraceEvent, error)
	Clear()
}

// NewID generates a unique identifier for sessions and trace events.
func NewID() string { return uuid.NewString() }
