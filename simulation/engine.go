package simulation

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/logging"
	"github.com/hupe1980/agentdesk/metric"
)

var (
	// ErrScenarioNotFound is returned for scenario ids that were never
	// registered.
	ErrScenarioNotFound = fmt.Errorf("scenario not found")

	// ErrTimelineNotFound is returned when a scenario has no stored timeline
	// (it was never run).
	ErrTimelineNotFound = fmt.Errorf("timeline not found")
)

// ExecutorFunc drives one conversational turn of the system under test. It is
// the engine's single suspension point: typically a closure around the
// session runtime, possibly backed by a live model call.
type ExecutorFunc func(ctx context.Context, sessionID, message string) (core.Reply, error)

// Options configures an Engine.
type Options struct {
	// Tracer is the read handle used to fetch the session trace accumulated
	// while the executor ran. Nil yields empty traces.
	Tracer core.Tracer

	// Logger defaults to NoOp.
	Logger logging.Logger

	// Metrics is optional; nil disables instrumentation.
	Metrics *metric.Metrics
}

// Engine registers scenarios, replays them through an injected executor and
// scores the outcome. Scenarios are replayed strictly sequentially by the
// drivers in this repository; accessors hand out snapshot copies so
// concurrent readers (dashboard, judge) never observe a scenario while a run
// mutates it.
type Engine struct {
	mu        sync.RWMutex
	scenarios map[string]*Scenario
	order     []string // registration order, for stable listings
	timelines map[string]*Timeline

	tracer  core.Tracer
	logger  logging.Logger
	metrics *metric.Metrics
}

// NewEngine creates a simulation engine.
func NewEngine(optFns ...func(o *Options)) *Engine {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{
		scenarios: make(map[string]*Scenario),
		timelines: make(map[string]*Timeline),
		tracer:    opts.Tracer,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// SetTracer swaps the trace read handle. The run-all drivers build a fresh
// runtime (and with it a fresh tracer) per run.
func (e *Engine) SetTracer(t core.Tracer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracer = t
}

// RegisterScenario stores a copy of the scenario keyed by id with a fresh
// pending status, silently overwriting any previous registration. The caller
// keeps ownership of its own pointer.
func (e *Engine) RegisterScenario(s *Scenario) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.scenarios[s.ID]; !exists {
		e.order = append(e.order, s.ID)
	}
	c := s.clone()
	c.Status = StatusPending
	c.Actual = nil
	c.RegisteredAt = time.Now().UTC()
	e.scenarios[c.ID] = c
	e.logger.Info("scenario registered", "scenario_id", c.ID, "name", c.Name)
}

// Scenario returns a snapshot of the scenario for an id or
// ErrScenarioNotFound.
func (e *Engine) Scenario(id string) (*Scenario, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.scenarios[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, id)
	}
	return s.clone(), nil
}

// Scenarios returns snapshots of all registered scenarios in registration
// order.
func (e *Engine) Scenarios() []*Scenario {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Scenario, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.scenarios[id].clone())
	}
	return out
}

// Timeline returns the stored timeline for a scenario id or
// ErrTimelineNotFound.
func (e *Engine) Timeline(scenarioID string) (*Timeline, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	tl, ok := e.timelines[scenarioID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTimelineNotFound, scenarioID)
	}
	return tl, nil
}

// RunSimulation replays one scenario through the executor. Inputs are fed in
// order; as soon as a turn escalates the remaining inputs are skipped (the
// conversation has been handed to a human; replaying further scripted turns
// would be meaningless). Executor errors abort this scenario only and
// propagate to the caller after the scenario is marked with StatusError.
//
// Duration is wall-clock elapsed time, not simulated time: executors that
// respond instantly produce near-zero durations.
func (e *Engine) RunSimulation(ctx context.Context, scenarioID string, executor ExecutorFunc) (*Scenario, error) {
	e.mu.Lock()
	s, ok := e.scenarios[scenarioID]
	if !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, scenarioID)
	}
	s.Status = StatusRunning
	e.mu.Unlock()

	e.logger.Info("scenario run started", "scenario_id", scenarioID)

	sessionID := core.NewID()
	start := time.Now()
	tl := &Timeline{ScenarioID: scenarioID}

	escalated := false
	finalMessage := ""
	for _, input := range s.Inputs {
		tl.addEvent(core.TraceMessage, "", input.Message, map[string]any{
			"expected_intent": input.ExpectedIntent,
		})

		reply, err := executor(ctx, sessionID, input.Message)
		if err != nil {
			e.finishRun(s, tl, sessionID, escalated, finalMessage, start, StatusError)
			e.logger.Error("scenario run errored", "scenario_id", scenarioID, "error", err)
			return nil, fmt.Errorf("scenario %s: %w", scenarioID, err)
		}
		finalMessage = reply.Message

		if reply.Escalated {
			escalated = true
			tl.addEvent(core.TraceEscalation, "", "turn escalated to human", nil)
			break // early exit: later inputs are skipped, not failed
		}
		tl.addEvent(core.TraceDecision, "", "turn handled", nil)
	}

	status := e.evaluate(s, escalated, finalMessage)
	e.finishRun(s, tl, sessionID, escalated, finalMessage, start, status)
	e.logger.Info("scenario run finished",
		"scenario_id", scenarioID,
		"status", string(status),
		"quality_score", tl.FinalState.QualityScore,
	)

	e.mu.RLock()
	snap := s.clone()
	e.mu.RUnlock()
	return snap, nil
}

// evaluate applies the pass/fail policy: the escalation flag must match
// exactly and every expected substring must appear case-insensitively in the
// final reply. Any mismatch fails the scenario.
func (e *Engine) evaluate(s *Scenario, escalated bool, finalMessage string) Status {
	if escalated != s.Expected.Escalated {
		return StatusFailed
	}
	lowered := strings.ToLower(finalMessage)
	for _, want := range s.Expected.FinalMessageContains {
		if !strings.Contains(lowered, strings.ToLower(want)) {
			return StatusFailed
		}
	}
	return StatusPassed
}

// finishRun records the actual outcome, computes the quality score and stores
// the timeline (last write wins per scenario id).
func (e *Engine) finishRun(s *Scenario, tl *Timeline, sessionID string, escalated bool, finalMessage string, start time.Time, status Status) {
	traceEvents := e.sessionTrace(sessionID)
	agents, tools := summarizeTrace(traceEvents)
	duration := time.Since(start)

	tl.FinalState = FinalState{
		Resolved:       !escalated && status == StatusPassed,
		Escalated:      escalated,
		ToolsUsed:      tools,
		AgentsInvolved: agents,
		Duration:       duration,
		QualityScore:   qualityScore(s.Expected.Escalated, escalated, len(traceEvents)),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	s.Actual = &ActualOutcome{
		Escalated:     escalated,
		AgentSequence: agents,
		ToolsUsed:     tools,
		TraceEvents:   traceEvents,
		FinalMessage:  finalMessage,
		SessionID:     sessionID,
	}
	s.Status = status
	s.ExecutedAt = time.Now().UTC()
	s.Duration = duration
	e.timelines[s.ID] = tl
	e.metrics.ObserveScenarioRun(string(status))
}

func (e *Engine) sessionTrace(sessionID string) []core.TraceEvent {
	e.mu.RLock()
	tracer := e.tracer
	e.mu.RUnlock()
	if tracer == nil {
		return nil
	}
	evs, err := tracer.Events(sessionID)
	if err != nil {
		e.logger.Warn("failed to fetch session trace", "session_id", sessionID, "error", err)
		return nil
	}
	return evs
}

// summarizeTrace extracts the agent sequence (routing events, deduplicating
// consecutive repeats) and the tool list from a session trace.
func summarizeTrace(events []core.TraceEvent) (agents, tools []string) {
	for _, ev := range events {
		switch ev.Type {
		case core.TraceRouting:
			if n := len(agents); n == 0 || agents[n-1] != ev.Agent {
				agents = append(agents, ev.Agent)
			}
		case core.TraceTool:
			if name, ok := ev.Data["tool"].(string); ok {
				tools = append(tools, name)
			}
		}
	}
	return agents, tools
}

// qualityScore computes the 0..100 replay quality score. Missed escalations
// are penalized more heavily than false ones: failing to hand off an unhappy
// customer is the costlier mistake.
func qualityScore(expectedEscalation, actualEscalation bool, traceEventCount int) int {
	score := 100
	if actualEscalation && !expectedEscalation {
		score -= 30
	}
	if expectedEscalation && !actualEscalation {
		score -= 40
	}
	if traceEventCount <= 3 {
		score += 5
	}
	if traceEventCount > 10 {
		score -= 10
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Verdict is a scored assessment of one executed scenario, decomposed into
// four dimensions, each 0..100.
type Verdict struct {
	ScenarioID         string   `json:"scenario_id"`
	Accuracy           int      `json:"accuracy"`
	Efficiency         int      `json:"efficiency"`
	Appropriateness    int      `json:"appropriateness"`
	EscalationHandling int      `json:"escalation_handling"`
	OverallScore       int      `json:"overall_score"`
	Issues             []string `json:"issues,omitempty"`
	Suggestions        []string `json:"suggestions,omitempty"`
}

// slowScenario is the duration beyond which the efficiency dimension is
// penalized.
const slowScenario = 5000 * time.Millisecond

// JudgeScenario scores one executed scenario across the four verdict
// dimensions using independent heuristics. It fails if the scenario or its
// timeline is absent.
func (e *Engine) JudgeScenario(scenarioID string) (*Verdict, error) {
	e.mu.RLock()
	live, ok := e.scenarios[scenarioID]
	if !ok {
		e.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, scenarioID)
	}
	tl, ok := e.timelines[scenarioID]
	if !ok {
		e.mu.RUnlock()
		return nil, fmt.Errorf("%w: %s", ErrTimelineNotFound, scenarioID)
	}
	s := live.clone()
	e.mu.RUnlock()

	v := &Verdict{
		ScenarioID:         scenarioID,
		Accuracy:           100,
		Efficiency:         100,
		Appropriateness:    85,
		EscalationHandling: 90,
	}

	if s.Status == StatusFailed {
		v.Accuracy = 40
		v.Issues = append(v.Issues, "scenario outcome did not match expectations")
	}
	if tl.FinalState.Duration > slowScenario {
		v.Efficiency -= 20
		v.Suggestions = append(v.Suggestions, "reduce turn latency; scenario exceeded 5s")
	}
	if routingCount(s) > 3 {
		v.Appropriateness -= 30
		v.Issues = append(v.Issues, "conversation bounced between agents more than 3 times")
	}
	if s.Expected.Escalated && (s.Actual == nil || !s.Actual.Escalated) {
		v.EscalationHandling = 20
		v.Issues = append(v.Issues, "expected escalation never happened")
	}

	mean := float64(v.Accuracy+v.Efficiency+v.Appropriateness+v.EscalationHandling) / 4
	v.OverallScore = int(math.Round(mean))
	return v, nil
}

func routingCount(s *Scenario) int {
	if s.Actual == nil {
		return 0
	}
	n := 0
	for _, ev := range s.Actual.TraceEvents {
		if ev.Type == core.TraceRouting {
			n++
		}
	}
	return n
}

// RunResult is the in-line outcome record of one scenario inside a run-all
// batch; executor errors are captured here instead of aborting the batch.
type RunResult struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	Score  int    `json:"score,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RunAll replays every registered scenario strictly sequentially, isolating
// per-scenario failures as RunResult entries.
func (e *Engine) RunAll(ctx context.Context, executor ExecutorFunc) []RunResult {
	scenarios := e.Scenarios()
	results := make([]RunResult, 0, len(scenarios))
	for _, s := range scenarios {
		run, err := e.RunSimulation(ctx, s.ID, executor)
		if err != nil {
			results = append(results, RunResult{ID: s.ID, Status: StatusError, Error: err.Error()})
			continue
		}
		score := 0
		if tl, tlErr := e.Timeline(s.ID); tlErr == nil {
			score = tl.FinalState.QualityScore
		}
		results = append(results, RunResult{ID: run.ID, Status: run.Status, Score: score})
	}
	return results
}
