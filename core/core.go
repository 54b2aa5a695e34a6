package core

import "context"

// Reply is the outcome of one conversational turn: the agent's textual
// answer plus whether the turn handed the conversation off to a human.
type Reply struct {
	Message   string `json:"message"`
	Escalated bool   `json:"escalated"`
}

// RouteDecision is the router's verdict for one inbound message: either the
// name of the agent that should handle it, or an escalation with Agent left
// empty.
type RouteDecision struct {
	Agent    string `json:"agent,omitempty"`
	Escalate bool   `json:"escalate"`
	Reason   string `json:"reason,omitempty"`
}

// Router selects an agent for an inbound message given the current session
// state. Implementations may be keyword heuristics or model-backed intent
// classifiers; the runtime only depends on this contract.
type Router interface {
	Route(sess *Session, message string) (RouteDecision, error)
}

// AgentExecutor invokes a named agent for one turn. It wraps the chat
// capability and any tools; errors from the underlying model propagate
// unmodified (the runtime performs no retries).
type AgentExecutor interface {
	Execute(ctx context.Context, sess *Session, agent string, message string) (Reply, error)
}

// MemoryStore is process-wide key/value session memory. ClearAll wipes every
// session's memory and exists for test isolation between simulation runs.
type MemoryStore interface {
	Get(sessionID string) (map[string]any, error)
	Put(sessionID string, delta map[string]any) error
	ClearAll()
}
