// Package runtime implements the session runtime: session creation and
// per-message dispatch. Each turn selects an agent through the Router,
// invokes it through the AgentExecutor, records trace events, updates
// session memory and reports whether the turn escalated to a human.
package runtime
