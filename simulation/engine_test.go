package simulation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// replies builds an executor returning canned replies per call index.
func replies(rs ...core.Reply) ExecutorFunc {
	i := 0
	return func(_ context.Context, _, _ string) (core.Reply, error) {
		if i >= len(rs) {
			return rs[len(rs)-1], nil
		}
		r := rs[i]
		i++
		return r, nil
	}
}

func scene001() *Scenario {
	for _, s := range BuiltinScenarios() {
		if s.ID == "SCENE-001" {
			return s
		}
	}
	return nil
}

func scene006() *Scenario {
	for _, s := range BuiltinScenarios() {
		if s.ID == "SCENE-006" {
			return s
		}
	}
	return nil
}

func TestRunSimulation_UnknownScenario(t *testing.T) {
	e := NewEngine()
	_, err := e.RunSimulation(context.Background(), "nope", replies(core.Reply{}))
	require.ErrorIs(t, err, ErrScenarioNotFound)
}

func TestRunSimulation_OrderStatusPasses(t *testing.T) {
	e := NewEngine()
	e.RegisterScenario(scene001())

	s, err := e.RunSimulation(context.Background(), "SCENE-001",
		replies(core.Reply{Message: "I can help with your order status."}))
	require.NoError(t, err)

	assert.Equal(t, StatusPassed, s.Status)
	require.NotNil(t, s.Actual)
	assert.False(t, s.Actual.Escalated)

	tl, err := e.Timeline("SCENE-001")
	require.NoError(t, err)
	assert.Equal(t, 100, tl.FinalState.QualityScore)
	assert.True(t, tl.FinalState.Resolved)
}

func TestRunSimulation_ExplicitHumanRequestPasses(t *testing.T) {
	e := NewEngine()
	e.RegisterScenario(scene006())

	calls := 0
	executor := func(_ context.Context, _, _ string) (core.Reply, error) {
		calls++
		return core.Reply{Message: "I am escalating this to our team.", Escalated: true}, nil
	}

	s, err := e.RunSimulation(context.Background(), "SCENE-006", executor)
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, s.Status)

	// early exit: the second scripted input is skipped, not failed
	assert.Equal(t, 1, calls)

	tl, _ := e.Timeline("SCENE-006")
	require.Len(t, tl.Events, 2)
	assert.Equal(t, core.TraceEscalation, tl.Events[1].Type)
}

func TestRunSimulation_MissedEscalationFails(t *testing.T) {
	e := NewEngine()
	e.RegisterScenario(scene006())

	s, err := e.RunSimulation(context.Background(), "SCENE-006",
		replies(core.Reply{Message: "All set, anything else?"}))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, s.Status)

	// missed escalation costs 40; the short trace bonus brings it to 65
	tl, _ := e.Timeline("SCENE-006")
	assert.Equal(t, 65, tl.FinalState.QualityScore)
}

func TestRunSimulation_FalseEscalationFails(t *testing.T) {
	e := NewEngine()
	e.RegisterScenario(scene001())

	s, err := e.RunSimulation(context.Background(), "SCENE-001",
		replies(core.Reply{Message: "Connecting you with a human.", Escalated: true}))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, s.Status)

	tl, _ := e.Timeline("SCENE-001")
	assert.Equal(t, 75, tl.FinalState.QualityScore)
}

func TestRunSimulation_SubstringMatchIsCaseInsensitive(t *testing.T) {
	e := NewEngine()
	e.RegisterScenario(scene001())

	s, err := e.RunSimulation(context.Background(), "SCENE-001",
		replies(core.Reply{Message: "Your ORDER is on its way; STATUS: shipped."}))
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, s.Status)
}

func TestRunSimulation_MissingSubstringFails(t *testing.T) {
	e := NewEngine()
	e.RegisterScenario(scene001())

	s, err := e.RunSimulation(context.Background(), "SCENE-001",
		replies(core.Reply{Message: "Your package is on its way."}))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, s.Status)
}

func TestRunSimulation_ExecutorErrorMarksScenario(t *testing.T) {
	e := NewEngine()
	e.RegisterScenario(scene001())

	wantErr := errors.New("model down")
	_, err := e.RunSimulation(context.Background(), "SCENE-001",
		func(context.Context, string, string) (core.Reply, error) { return core.Reply{}, wantErr })
	require.ErrorIs(t, err, wantErr)

	s, _ := e.Scenario("SCENE-001")
	assert.Equal(t, StatusError, s.Status)
}

func TestRunSimulation_TerminalStatusAlways(t *testing.T) {
	e := NewEngine()
	for _, s := range BuiltinScenarios() {
		e.RegisterScenario(s)
	}
	for _, r := range e.RunAll(context.Background(), replies(core.Reply{Message: "hello"})) {
		s, err := e.Scenario(r.ID)
		require.NoError(t, err)
		assert.True(t, s.Status.Terminal(), "scenario %s left in %s", r.ID, s.Status)
	}
}

func TestRunSimulation_QualityScoreBounds(t *testing.T) {
	e := NewEngine()
	for _, s := range BuiltinScenarios() {
		e.RegisterScenario(s)
	}
	e.RunAll(context.Background(), replies(core.Reply{Message: "generic reply"}))
	for _, s := range e.Scenarios() {
		tl, err := e.Timeline(s.ID)
		require.NoError(t, err)
		score := tl.FinalState.QualityScore
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
	}
}

func TestRunSimulation_TraceSummarized(t *testing.T) {
	tracer := trace.NewInMemoryTracer()
	e := NewEngine(func(o *Options) { o.Tracer = tracer })
	e.RegisterScenario(scene001())

	executor := func(_ context.Context, sessionID, _ string) (core.Reply, error) {
		_ = tracer.Append(sessionID, core.NewTraceEvent(core.TraceMessage, "", "inbound"))
		routed := core.NewTraceEvent(core.TraceRouting, "support", "routed to support")
		_ = tracer.Append(sessionID, routed)
		toolEv := core.NewTraceEvent(core.TraceTool, "support", "tool lookup_order invoked")
		toolEv.Data = map[string]any{"tool": "lookup_order"}
		_ = tracer.Append(sessionID, toolEv)
		return core.Reply{Message: "order status: shipped"}, nil
	}

	s, err := e.RunSimulation(context.Background(), "SCENE-001", executor)
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, s.Status)
	assert.Equal(t, []string{"support"}, s.Actual.AgentSequence)
	assert.Equal(t, []string{"lookup_order"}, s.Actual.ToolsUsed)
	require.Len(t, s.Actual.TraceEvents, 3)
}

func TestJudgeScenario(t *testing.T) {
	e := NewEngine()
	e.RegisterScenario(scene001())
	e.RegisterScenario(scene006())

	// judging before any run fails on the missing timeline
	_, err := e.JudgeScenario("SCENE-001")
	require.ErrorIs(t, err, ErrTimelineNotFound)

	_, err = e.JudgeScenario("ghost")
	require.ErrorIs(t, err, ErrScenarioNotFound)

	_, _ = e.RunSimulation(context.Background(), "SCENE-001",
		replies(core.Reply{Message: "I can help with your order status."}))
	_, _ = e.RunSimulation(context.Background(), "SCENE-006",
		replies(core.Reply{Message: "All set, anything else?"})) // misses the escalation

	passed, err := e.JudgeScenario("SCENE-001")
	require.NoError(t, err)
	assert.Equal(t, 100, passed.Accuracy)
	assert.Equal(t, 100, passed.Efficiency)
	assert.Equal(t, 85, passed.Appropriateness)
	assert.Equal(t, 90, passed.EscalationHandling)
	assert.Equal(t, 94, passed.OverallScore) // round(375/4)

	failed, err := e.JudgeScenario("SCENE-006")
	require.NoError(t, err)
	assert.Equal(t, 40, failed.Accuracy)
	assert.Equal(t, 20, failed.EscalationHandling)
	assert.NotEmpty(t, failed.Issues)
}

func TestRunAll_IsolatesErrors(t *testing.T) {
	e := NewEngine()
	e.RegisterScenario(scene001())
	e.RegisterScenario(scene006())

	executor := func(_ context.Context, _, message string) (core.Reply, error) {
		if message == "I want to talk to a human, not a bot." {
			return core.Reply{}, fmt.Errorf("boom")
		}
		return core.Reply{Message: "I can help with your order status."}, nil
	}

	results := e.RunAll(context.Background(), executor)
	require.Len(t, results, 2)
	assert.Equal(t, StatusPassed, results[0].Status)
	assert.Equal(t, 100, results[0].Score)
	assert.Equal(t, StatusError, results[1].Status)
	assert.Contains(t, results[1].Error, "boom")
}

func TestRegisterScenario_OverwriteResetsStatus(t *testing.T) {
	e := NewEngine()
	e.RegisterScenario(scene001())
	_, _ = e.RunSimulation(context.Background(), "SCENE-001",
		replies(core.Reply{Message: "I can help with your order status."}))

	s, _ := e.Scenario("SCENE-001")
	require.Equal(t, StatusPassed, s.Status)

	e.RegisterScenario(scene001())
	s, _ = e.Scenario("SCENE-001")
	assert.Equal(t, StatusPending, s.Status)
	assert.Nil(t, s.Actual)
	assert.Len(t, e.Scenarios(), 1)
}

func TestScenarioAccessors_ReturnSnapshots(t *testing.T) {
	e := NewEngine()
	e.RegisterScenario(scene001())

	before := e.Scenarios()[0]
	require.Equal(t, StatusPending, before.Status)

	_, err := e.RunSimulation(context.Background(), "SCENE-001",
		replies(core.Reply{Message: "I can help with your order status."}))
	require.NoError(t, err)

	// the snapshot taken before the run is not retroactively mutated
	assert.Equal(t, StatusPending, before.Status)
	assert.Nil(t, before.Actual)

	// and mutating a snapshot does not leak into engine state
	after, err := e.Scenario("SCENE-001")
	require.NoError(t, err)
	require.Equal(t, StatusPassed, after.Status)
	after.Status = StatusError
	after.Actual.FinalMessage = "tampered"

	current, err := e.Scenario("SCENE-001")
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, current.Status)
	assert.NotEqual(t, "tampered", current.Actual.FinalMessage)
}

func TestEngine_ConcurrentReadersDuringRuns(t *testing.T) {
	e := NewEngine()
	for _, s := range BuiltinScenarios() {
		e.RegisterScenario(s)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			e.RunAll(context.Background(), replies(core.Reply{Message: "order status refund troubleshoot reset"}))
		}
	}()

	// dashboard-style readers while runs mutate engine state
	for {
		select {
		case <-done:
			return
		default:
		}
		for _, s := range e.Scenarios() {
			_ = s.Status
			_ = s.Duration
			if s.Actual != nil {
				_ = s.Actual.FinalMessage
			}
			if tl, err := e.Timeline(s.ID); err == nil {
				_ = tl.FinalState.QualityScore
			}
		}
	}
}

func TestParseScenarios(t *testing.T) {
	raw := []byte(`
scenarios:
  - id: SCENE-101
    name: order status inquiry
    inputs:
      - message: "Where is my order?"
        expected_intent: order_status
    expected:
      escalated: false
      final_message_contains: ["order"]
`)
	scenarios, err := ParseScenarios(raw)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)
	assert.Equal(t, "SCENE-101", scenarios[0].ID)
	assert.Equal(t, []string{"order"}, scenarios[0].Expected.FinalMessageContains)

	_, err = ParseScenarios([]byte("scenarios:\n  - name: missing id\n"))
	require.Error(t, err)
}
