package judge

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/logging"
	"github.com/hupe1980/agentdesk/metric"
	"github.com/hupe1980/agentdesk/simulation"
)

var (
	// ErrSessionNotFound is returned for judge session ids that were never
	// started.
	ErrSessionNotFound = fmt.Errorf("judge session not found")

	// ErrNoActiveSession is returned when an operation requires an active
	// judge session and none exists.
	ErrNoActiveSession = fmt.Errorf("no active judge session")
)

// Judge is one member of the fixed evaluation roster. Weights are declared
// policy metadata; consensus aggregation does not currently apply them (see
// DESIGN.md) but they are exported in every report so the policy stays
// visible.
type Judge struct {
	Name   string  `json:"name"`
	Role   string  `json:"role"`
	Weight float64 `json:"weight"`
}

// Roster returns the five-judge evaluation panel.
func Roster() []Judge {
	return []Judge{
		{Name: "Accuracy Judge", Role: "accuracy", Weight: 0.30},
		{Name: "Safety Judge", Role: "safety", Weight: 0.25},
		{Name: "Efficiency Judge", Role: "efficiency", Weight: 0.15},
		{Name: "Experience Judge", Role: "experience", Weight: 0.20},
		{Name: "Integration Judge", Role: "integration", Weight: 0.10},
	}
}

// SessionStatus is the lifecycle state of a judge session.
type SessionStatus string

const (
	// SessionActive marks a session accepting judgments.
	SessionActive SessionStatus = "active"
	// SessionCompleted marks a session whose consensus has been reached.
	SessionCompleted SessionStatus = "completed"
	// SessionFailed marks a session aborted by an unrecoverable error.
	SessionFailed SessionStatus = "failed"
)

// Session is one judging round. FinalVerdict is set exactly once, at the
// same instant ConsensusReached flips true; a completed session is immutable.
// Team accessors return snapshot clones, never the live pointer.
type Session struct {
	ID               string            `json:"id"`
	StartedAt        time.Time         `json:"started_at"`
	CompletedAt      time.Time         `json:"completed_at,omitempty"`
	Status           SessionStatus     `json:"status"`
	ScenarioIDs      []string          `json:"scenario_ids,omitempty"`
	ConsensusReached bool              `json:"consensus_reached"`
	FinalVerdict     *ConsensusVerdict `json:"final_verdict,omitempty"`
}

// clone returns a copy safe to read while the team keeps mutating the
// original. FinalVerdict is shared: it is never modified once set.
func (s *Session) clone() *Session {
	c := *s
	c.ScenarioIDs = append([]string(nil), s.ScenarioIDs...)
	return &c
}

// Options configures a Team.
type Options struct {
	// Logger defaults to NoOp.
	Logger logging.Logger

	// Metrics is optional; nil disables instrumentation.
	Metrics *metric.Metrics

	// Tracer, Memory and Executor are the runtime handles probed by
	// RunIntegrationChecks. Leaving one nil fails its check.
	Tracer   core.Tracer
	Memory   core.MemoryStore
	Executor core.AgentExecutor
}

// Team runs judging rounds against a simulation engine. Sessions accumulate
// for the process lifetime (no eviction); identifiers come from a monotonic
// counter so "latest" is well defined under any insertion rate.
type Team struct {
	mu       sync.RWMutex
	engine   *simulation.Engine
	judges   []Judge
	sessions map[string]*Session
	order    []string // insertion order backing LatestSession
	verdicts map[string]*simulation.Verdict

	lastChecks []IntegrationCheck

	tracer   core.Tracer
	memory   core.MemoryStore
	executor core.AgentExecutor

	seq     atomic.Uint64
	logger  logging.Logger
	metrics *metric.Metrics
}

// NewTeam creates a judge team bound to a simulation engine.
func NewTeam(engine *simulation.Engine, optFns ...func(o *Options)) *Team {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Team{
		engine:   engine,
		judges:   Roster(),
		sessions: make(map[string]*Session),
		verdicts: make(map[string]*simulation.Verdict),
		tracer:   opts.Tracer,
		memory:   opts.Memory,
		executor: opts.Executor,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Judges returns the fixed roster.
func (t *Team) Judges() []Judge { return t.judges }

// BindRuntime swaps the runtime handles probed by RunIntegrationChecks. The
// run-all drivers rebuild the runtime per batch, so the team must follow the
// current instance to keep its checks honest.
func (t *Team) BindRuntime(tracer core.Tracer, mem core.MemoryStore, executor core.AgentExecutor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracer = tracer
	t.memory = mem
	t.executor = executor
}

// StartSession creates a new active judge session and returns a snapshot of
// it.
func (t *Team) StartSession() *Session {
	id := fmt.Sprintf("judge_%06d", t.seq.Add(1))
	s := &Session{ID: id, StartedAt: time.Now().UTC(), Status: SessionActive}

	t.mu.Lock()
	t.sessions[id] = s
	t.order = append(t.order, id)
	t.mu.Unlock()

	t.logger.Info("judge session started", "judge_session_id", id)
	return s.clone()
}

// find returns the live session for internal mutation.
func (t *Team) find(id string) (*Session, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Session returns a snapshot of a judge session by id or ErrSessionNotFound.
func (t *Team) Session(id string) (*Session, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s.clone(), nil
}

// LatestSession returns a snapshot of the most recently started session, or
// nil if none exists.
func (t *Team) LatestSession() *Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.order) == 0 {
		return nil
	}
	return t.sessions[t.order[len(t.order)-1]].clone()
}

// JudgeAllScenarios judges every scenario that has been executed at least
// once (status not pending). Per-scenario judging failures are logged and
// skipped so one bad scenario does not abort the batch. Re-judging refreshes
// the stored verdicts; a scenario id is recorded on the session only once.
func (t *Team) JudgeAllScenarios(sessionID string) error {
	s, err := t.find(sessionID)
	if err != nil {
		return err
	}

	judged := 0
	for _, sc := range t.engine.Scenarios() {
		if sc.Status == simulation.StatusPending {
			continue
		}
		verdict, err := t.engine.JudgeScenario(sc.ID)
		if err != nil {
			t.logger.Warn("skipping scenario judgment", "scenario_id", sc.ID, "error", err)
			continue
		}
		t.mu.Lock()
		t.verdicts[sc.ID] = verdict
		if !containsID(s.ScenarioIDs, sc.ID) {
			s.ScenarioIDs = append(s.ScenarioIDs, sc.ID)
		}
		judged++
		t.mu.Unlock()
	}

	t.logger.Info("scenarios judged", "judge_session_id", sessionID, "count", judged)
	return nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Verdict returns the stored verdict for a scenario id, if any.
func (t *Team) Verdict(scenarioID string) (*simulation.Verdict, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.verdicts[scenarioID]
	return v, ok
}
