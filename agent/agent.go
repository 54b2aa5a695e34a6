package agent

import (
	"context"

	"github.com/hupe1980/agentdesk/core"
)

// Agent handles one conversational turn for the customer. Implementations
// receive the session snapshot for context and must return the reply plus
// whether the turn escalated to a human.
//
// Implementations must:
//   - Respect context cancellation
//   - Propagate chat-capability errors unmodified (no retries)
//   - Be safe for concurrent use across sessions
type Agent interface {
	Name() string
	Description() string
	Handle(ctx context.Context, sess *core.Session, message string) (core.Reply, error)
}

// baseAgent carries the identity shared by all agent implementations.
type baseAgent struct {
	name        string
	description string
}

func (b baseAgent) Name() string        { return b.name }
func (b baseAgent) Description() string { return b.description }
