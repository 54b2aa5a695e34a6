// Package core defines the shared vocabulary of the agentdesk framework:
// sessions, trace events, replies and the capability contracts (Router,
// AgentExecutor, Tracer, MemoryStore) that the session runtime and the
// simulation harness are built against. Higher level packages depend on
// core; core depends on nothing but the standard library and uuid.
package core
