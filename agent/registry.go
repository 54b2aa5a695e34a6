package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentdesk/core"
)

// ErrAgentNotFound is returned when an executor is asked for an agent name
// that was never registered.
var ErrAgentNotFound = fmt.Errorf("agent not found")

// Registry holds the agent roster and implements core.AgentExecutor. It is
// safe for concurrent registration and execution.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// Register adds an agent to the roster, overwriting any previous agent with
// the same name.
func (r *Registry) Register(a Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.Name()] = a
}

// Get returns the named agent or nil.
func (r *Registry) Get(name string) Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.agents[name]
}

// Names returns the registered agent names (unspecified order).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	return names
}

// Execute implements core.AgentExecutor.
func (r *Registry) Execute(ctx context.Context, sess *core.Session, agent string, message string) (core.Reply, error) {
	a := r.Get(agent)
	if a == nil {
		return core.Reply{}, fmt.Errorf("%w: %s", ErrAgentNotFound, agent)
	}
	return a.Handle(ctx, sess, message)
}
