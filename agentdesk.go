// Package agentdesk wires the customer-service runtime, the simulation
// engine and the judge team into one self-testing assembly. A Desk owns the
// full stack for a process: the HTTP server and the CLI are thin layers over
// it.
package agentdesk

import (
	"context"
	"errors"
	"sync"

	"github.com/hupe1980/agentdesk/agent"
	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/judge"
	"github.com/hupe1980/agentdesk/logging"
	"github.com/hupe1980/agentdesk/memory"
	"github.com/hupe1980/agentdesk/metric"
	"github.com/hupe1980/agentdesk/model"
	"github.com/hupe1980/agentdesk/runtime"
	"github.com/hupe1980/agentdesk/session"
	"github.com/hupe1980/agentdesk/simulation"
	"github.com/hupe1980/agentdesk/tool"
	"github.com/hupe1980/agentdesk/trace"
)

// RosterBuilder constructs the router and the agent roster for one runtime
// instance. It receives the instance's tracer so model agents can record tool
// invocations into the same trace the simulation engine reads.
type RosterBuilder func(tracer core.Tracer) (core.Router, core.AgentExecutor)

// Options configures a Desk.
type Options struct {
	// Logger defaults to NoOp.
	Logger logging.Logger

	// Metrics is optional; nil disables instrumentation.
	Metrics *metric.Metrics

	// Roster defaults to DefaultRoster, the scripted customer-service trio.
	Roster RosterBuilder

	// Scenarios registered by InitScenarios. Defaults to the builtin suite.
	Scenarios []*simulation.Scenario
}

// Desk is the top-level assembly: one runtime under test, the simulation
// engine replaying scenarios against it and the judge team scoring the
// results. Simulation batches rebuild the runtime (fresh sessions, fresh
// traces, cleared memory) so runs cannot contaminate each other; the engine
// and the judge team live for the whole process and accumulate history.
type Desk struct {
	mu       sync.Mutex
	rt       *runtime.Runtime
	sessions core.SessionStore

	mem    core.MemoryStore
	engine *simulation.Engine
	team   *judge.Team

	roster    RosterBuilder
	scenarios []*simulation.Scenario
	logger    logging.Logger
	metrics   *metric.Metrics
}

// New assembles a Desk and boots its first runtime.
func New(optFns ...func(o *Options)) *Desk {
	opts := Options{
		Logger:    logging.NoOpLogger{},
		Roster:    DefaultRoster,
		Scenarios: simulation.BuiltinScenarios(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	d := &Desk{
		mem:       memory.NewInMemoryStore(),
		roster:    opts.Roster,
		scenarios: opts.Scenarios,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
	d.engine = simulation.NewEngine(func(o *simulation.Options) {
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})
	d.team = judge.NewTeam(d.engine, func(o *judge.Options) {
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})
	d.ResetRuntime()
	return d
}

// Engine returns the simulation engine.
func (d *Desk) Engine() *simulation.Engine { return d.engine }

// Team returns the judge team.
func (d *Desk) Team() *judge.Team { return d.team }

// Runtime returns the current runtime instance. The pointer is invalidated by
// the next ResetRuntime call.
func (d *Desk) Runtime() *runtime.Runtime {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rt
}

// InitScenarios registers the configured scenario suite and returns how many
// scenarios are now registered. Re-initialization resets every scenario to
// pending.
func (d *Desk) InitScenarios() int {
	for _, s := range d.scenarios {
		d.engine.RegisterScenario(s)
	}
	return len(d.engine.Scenarios())
}

// ResetRuntime tears the runtime down and builds a fresh one: cleared shared
// memory, empty session store, empty trace log, new roster. The engine and
// the judge team are re-pointed at the new instance.
func (d *Desk) ResetRuntime() {
	tracer := trace.NewInMemoryTracer()
	sessions := session.NewInMemoryStore()
	router, executor := d.roster(tracer)

	rt := runtime.New(router, executor, func(o *runtime.Options) {
		o.Tracer = tracer
		o.SessionStore = sessions
		o.MemoryStore = d.mem
		o.Logger = d.logger
	})

	d.mu.Lock()
	d.mem.ClearAll()
	d.rt = rt
	d.sessions = sessions
	d.mu.Unlock()

	d.engine.SetTracer(tracer)
	d.team.BindRuntime(tracer, d.mem, executor)
	d.logger.Info("runtime rebuilt")
}

// Executor adapts the current runtime into the simulation engine's turn
// function. Runtime sessions are created on demand under the engine's session
// id so traces recorded by the runtime are visible to the engine.
func (d *Desk) Executor() simulation.ExecutorFunc {
	return func(ctx context.Context, sessionID, message string) (core.Reply, error) {
		d.mu.Lock()
		rt, sessions := d.rt, d.sessions
		d.mu.Unlock()

		if _, err := sessions.Get(sessionID); err != nil {
			if !errors.Is(err, core.ErrSessionNotFound) {
				return core.Reply{}, err
			}
			customer := core.CustomerContext{
				CustomerID: "sim-" + sessionID,
				Name:       "Simulated Customer",
				Tier:       "standard",
			}
			if _, err := sessions.Create(sessionID, customer); err != nil {
				return core.Reply{}, err
			}
		}
		return rt.HandleMessage(ctx, sessionID, message)
	}
}

// RunAll rebuilds the runtime and replays every registered scenario against
// it sequentially.
func (d *Desk) RunAll(ctx context.Context) []simulation.RunResult {
	d.ResetRuntime()
	return d.engine.RunAll(ctx, d.Executor())
}

// Evaluate runs the full gate flow in one call: rebuild, replay all
// scenarios, judge them and reach consensus.
func (d *Desk) Evaluate(ctx context.Context) (*judge.ConsensusVerdict, error) {
	d.InitScenarios()
	d.RunAll(ctx)
	d.team.RunIntegrationChecks()

	s := d.team.StartSession()
	if err := d.team.JudgeAllScenarios(s.ID); err != nil {
		return nil, err
	}
	return d.team.ReachConsensus(s.ID)
}

// DefaultRoster builds the stock scripted customer-service trio: a front-desk
// support agent with order lookup, a billing specialist that escalates
// unresolved disputes and a technical specialist. Fully deterministic, no
// network, usable in CI.
func DefaultRoster(tracer core.Tracer) (core.Router, core.AgentExecutor) {
	lookup := tool.NewLookupOrder(nil)
	escalate := tool.NewEscalateToHuman()

	support := model.NewScriptedModel("support-scripted").
		AddRule("order", model.Response{
			Content: "I checked for you. Your order status: in transit, arriving within 2 business days.",
			ToolCalls: []model.ToolCall{
				{ID: "call_lookup", Name: "lookup_order", Arguments: `{"order_id":"ORD-1001"}`},
			},
		})

	billing := model.NewScriptedModel("billing-scripted").
		AddRule("not acceptable", model.Response{
			Content: "I understand. I'm escalating this to a human billing specialist right away.",
			ToolCalls: []model.ToolCall{
				{ID: "call_escalate", Name: tool.EscalateToHumanName, Arguments: `{"reason":"billing dispute unresolved"}`},
			},
		}).
		AddRule("dispute", model.Response{
			Content: "I see the disputed charge on your invoice. Let me walk you through it.",
		}).
		AddRule("refund", model.Response{
			Content: "Your refund has been initiated and will post within 3-5 business days.",
		})

	technical := model.NewScriptedModel("technical-scripted").
		AddRule("reset", model.Response{
			Content: "Done. I've sent the password reset link to your email on file.",
		}).
		AddRule("login", model.Response{
			Content: "I can help you regain access. Want me to send a password reset link?",
		}).
		AddRule("crash", model.Response{
			Content: "Sorry about that. Let's troubleshoot: update to the latest version and restart the app.",
		})

	registry := agent.NewRegistry()
	registry.Register(agent.NewModelAgent(
		"support",
		"Front-desk agent handling general inquiries and order status.",
		"You are the front-desk support agent. Resolve general questions and look up orders.",
		support,
		func(o *agent.ModelAgentOptions) {
			o.Tools = []tool.Tool{lookup, escalate}
			o.Tracer = tracer
		},
	))
	registry.Register(agent.NewModelAgent(
		"billing",
		"Billing specialist handling invoices, refunds and disputes.",
		"You are the billing specialist. Handle refunds and invoice questions; escalate unresolved disputes.",
		billing,
		func(o *agent.ModelAgentOptions) {
			o.Tools = []tool.Tool{escalate}
			o.Tracer = tracer
		},
	))
	registry.Register(agent.NewModelAgent(
		"technical",
		"Technical specialist handling errors, outages and account access.",
		"You are the technical specialist. Diagnose technical problems and guide customers through fixes.",
		technical,
		func(o *agent.ModelAgentOptions) {
			o.Tools = []tool.Tool{escalate}
			o.Tracer = tracer
		},
	))

	return agent.NewKeywordRouter("support"), registry
}
