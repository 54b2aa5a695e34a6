package runtime

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/logging"
	"github.com/hupe1980/agentdesk/memory"
	"github.com/hupe1980/agentdesk/session"
	"github.com/hupe1980/agentdesk/trace"
)

// EscalationMessage is the runtime's reply when the router hands a
// conversation to a human before any agent runs.
const EscalationMessage = "I'm connecting you with a human support representative now."

// Options configures a Runtime instance. Any unset service is initialized
// with an in-memory implementation; Router and Executor are required.
type Options struct {
	// SessionStore persists sessions. Defaults to in-memory.
	SessionStore core.SessionStore

	// Tracer records per-session trace events. Defaults to in-memory.
	Tracer core.Tracer

	// MemoryStore holds cross-turn session memory. Defaults to in-memory.
	MemoryStore core.MemoryStore

	// Logger defaults to NoOp.
	Logger logging.Logger
}

// Runtime owns session lifecycle and message dispatch. It performs no retries
// anywhere: an error from the router, the executor or the underlying chat
// capability propagates to the caller uncaught.
type Runtime struct {
	sessions core.SessionStore
	tracer   core.Tracer
	memory   core.MemoryStore
	router   core.Router
	executor core.AgentExecutor
	logger   logging.Logger
}

// New creates a Runtime with the given router and executor capabilities.
func New(router core.Router, executor core.AgentExecutor, optFns ...func(o *Options)) *Runtime {
	opts := Options{
		SessionStore: session.NewInMemoryStore(),
		Tracer:       trace.NewInMemoryTracer(),
		MemoryStore:  memory.NewInMemoryStore(),
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runtime{
		sessions: opts.SessionStore,
		tracer:   opts.Tracer,
		memory:   opts.MemoryStore,
		router:   router,
		executor: executor,
		logger:   opts.Logger,
	}
}

// Tracer exposes the runtime's trace log as an opaque read handle for the
// simulation engine.
func (r *Runtime) Tracer() core.Tracer { return r.tracer }

// StartSession creates a new session for the given customer. It fails with
// core.ErrMissingIdentity if required identity fields are absent.
func (r *Runtime) StartSession(customer core.CustomerContext) (string, error) {
	if err := customer.Validate(); err != nil {
		return "", err
	}
	id := core.NewID()
	if _, err := r.sessions.Create(id, customer); err != nil {
		return "", err
	}
	r.logger.Info("session started", "session_id", id, "customer_id", customer.CustomerID)
	return id, nil
}

// HandleMessage dispatches one customer message: route, invoke, trace, update
// memory. It fails with core.ErrSessionNotFound for unknown session ids.
func (r *Runtime) HandleMessage(ctx context.Context, sessionID, text string) (core.Reply, error) {
	sess, err := r.sessions.Get(sessionID)
	if err != nil {
		return core.Reply{}, err
	}

	if err := r.tracer.Append(sessionID, core.NewTraceEvent(core.TraceMessage, "", text)); err != nil {
		return core.Reply{}, err
	}

	dec, err := r.router.Route(sess, text)
	if err != nil {
		return core.Reply{}, err
	}
	if dec.Escalate {
		return r.escalate(sessionID, "", dec.Reason)
	}

	ev := core.NewTraceEvent(core.TraceRouting, dec.Agent, fmt.Sprintf("routed to %s", dec.Agent))
	ev.Data = map[string]any{"reason": dec.Reason}
	if err := r.tracer.Append(sessionID, ev); err != nil {
		return core.Reply{}, err
	}

	reply, err := r.executor.Execute(ctx, sess, dec.Agent, text)
	if err != nil {
		return core.Reply{}, err
	}

	if reply.Escalated {
		if _, err := r.escalate(sessionID, dec.Agent, "agent escalated"); err != nil {
			return core.Reply{}, err
		}
		return reply, nil
	}

	decision := core.NewTraceEvent(core.TraceDecision, dec.Agent, "turn resolved by agent")
	if err := r.tracer.Append(sessionID, decision); err != nil {
		return core.Reply{}, err
	}
	if err := r.finishTurn(sessionID, dec.Agent, false, text); err != nil {
		return core.Reply{}, err
	}
	return reply, nil
}

// escalate records the escalation trace event and closes out the turn.
func (r *Runtime) escalate(sessionID, agent, reason string) (core.Reply, error) {
	ev := core.NewTraceEvent(core.TraceEscalation, agent, "escalated to human")
	ev.Data = map[string]any{"reason": reason}
	if err := r.tracer.Append(sessionID, ev); err != nil {
		return core.Reply{}, err
	}
	if err := r.finishTurn(sessionID, agent, true, ""); err != nil {
		return core.Reply{}, err
	}
	r.logger.Info("session escalated", "session_id", sessionID, "reason", reason)
	return core.Reply{Message: EscalationMessage, Escalated: true}, nil
}

// finishTurn records the turn on the session and refreshes session memory.
func (r *Runtime) finishTurn(sessionID, agent string, escalated bool, lastMessage string) error {
	if err := r.sessions.RecordTurn(sessionID, agent, escalated); err != nil {
		return err
	}
	delta := map[string]any{"last_agent": agent, "escalated": escalated}
	if lastMessage != "" {
		delta["last_message"] = lastMessage
	}
	return r.memory.Put(sessionID, delta)
}
