// Package agent contains the conversational workers of agentdesk: the Agent
// contract, a model-backed implementation that drives the chat capability and
// executes tool calls, a keyword Router for agent selection, and a Registry
// that exposes the roster as a core.AgentExecutor to the runtime.
package agent
