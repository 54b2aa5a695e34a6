package simulation

import (
	"time"

	"github.com/hupe1980/agentdesk/core"
)

// Status is the lifecycle state of a scenario. Transitions only move
// pending -> running -> terminal; a terminal scenario never reverts except
// via re-registration with a fresh pending status.
type Status string

const (
	// StatusPending marks a registered but never executed scenario.
	StatusPending Status = "pending"
	// StatusRunning marks a scenario currently being replayed.
	StatusRunning Status = "running"
	// StatusPassed marks a scenario whose outcome matched expectations.
	StatusPassed Status = "passed"
	// StatusFailed marks a scenario whose outcome mismatched expectations.
	StatusFailed Status = "failed"
	// StatusWarning is part of the status vocabulary consumed by dashboards.
	// No engine path currently assigns it; see DESIGN.md.
	StatusWarning Status = "warning"
	// StatusError marks a scenario whose execution raised an error.
	StatusError Status = "error"
)

// Terminal reports whether the status is a completed state.
func (s Status) Terminal() bool {
	switch s {
	case StatusPassed, StatusFailed, StatusWarning, StatusError:
		return true
	}
	return false
}

// TurnInput is one scripted customer message with an optional expected
// intent label (informational only; intent classification is delegated to
// the model).
type TurnInput struct {
	Message        string `json:"message" yaml:"message"`
	ExpectedIntent string `json:"expected_intent,omitempty" yaml:"expected_intent,omitempty"`
}

// ExpectedOutcome declares what a correct replay of the scenario looks like.
type ExpectedOutcome struct {
	Escalated            bool     `json:"escalated" yaml:"escalated"`
	AgentSequence        []string `json:"agent_sequence,omitempty" yaml:"agent_sequence,omitempty"`
	ToolsUsed            []string `json:"tools_used,omitempty" yaml:"tools_used,omitempty"`
	FinalMessageContains []string `json:"final_message_contains,omitempty" yaml:"final_message_contains,omitempty"`
}

// ActualOutcome captures what actually happened during one replay. Produced
// exactly once per run and treated as immutable afterward.
type ActualOutcome struct {
	Escalated     bool              `json:"escalated"`
	AgentSequence []string          `json:"agent_sequence,omitempty"`
	ToolsUsed     []string          `json:"tools_used,omitempty"`
	TraceEvents   []core.TraceEvent `json:"trace_events,omitempty"`
	FinalMessage  string            `json:"final_message"`
	SessionID     string            `json:"session_id"`
}

// Scenario is a scripted multi-turn conversation with an expected outcome,
// used as a regression/acceptance test for the runtime. Mutated only by the
// engine that runs it; never deleted within a process lifetime. Engine
// accessors return snapshot clones, never the live pointer.
type Scenario struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Inputs      []TurnInput     `json:"inputs" yaml:"inputs"`
	Expected    ExpectedOutcome `json:"expected" yaml:"expected"`
	Actual      *ActualOutcome  `json:"actual,omitempty" yaml:"-"`
	Status      Status          `json:"status" yaml:"-"`

	RegisteredAt time.Time     `json:"registered_at" yaml:"-"`
	ExecutedAt   time.Time     `json:"executed_at,omitempty" yaml:"-"`
	Duration     time.Duration `json:"duration,omitempty" yaml:"-"`
}

// clone returns a copy safe for independent mutation. The engine clones on
// registration and again in every accessor, under its lock, so live state is
// never shared with callers.
func (s *Scenario) clone() *Scenario {
	c := *s
	c.Inputs = append([]TurnInput(nil), s.Inputs...)
	c.Expected.AgentSequence = append([]string(nil), s.Expected.AgentSequence...)
	c.Expected.ToolsUsed = append([]string(nil), s.Expected.ToolsUsed...)
	c.Expected.FinalMessageContains = append([]string(nil), s.Expected.FinalMessageContains...)
	if s.Actual != nil {
		a := *s.Actual
		a.AgentSequence = append([]string(nil), s.Actual.AgentSequence...)
		a.ToolsUsed = append([]string(nil), s.Actual.ToolsUsed...)
		a.TraceEvents = append([]core.TraceEvent(nil), s.Actual.TraceEvents...)
		c.Actual = &a
	}
	return &c
}
