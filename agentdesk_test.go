package agentdesk

import (
	"context"
	"strings"
	"testing"

	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/judge"
	"github.com/hupe1980/agentdesk/runtime"
	"github.com/hupe1980/agentdesk/simulation"
	"github.com/hupe1980/agentdesk/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDesk_RunAll(t *testing.T) {
	desk := New()
	require.Equal(t, 6, desk.InitScenarios())

	results := desk.RunAll(context.Background())
	require.Len(t, results, 6)
	for _, r := range results {
		assert.Equal(t, simulation.StatusPassed, r.Status, "scenario %s", r.ID)
		assert.Greater(t, r.Score, 0, "scenario %s", r.ID)
	}
}

func TestDesk_RunAllIsolation(t *testing.T) {
	desk := New()
	desk.InitScenarios()

	first := desk.Runtime()
	desk.RunAll(context.Background())
	second := desk.Runtime()

	// every batch gets a fresh runtime
	assert.NotSame(t, first, second)

	desk.RunAll(context.Background())
	assert.NotSame(t, second, desk.Runtime())
}

func TestDesk_Evaluate(t *testing.T) {
	desk := New()

	verdict, err := desk.Evaluate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, judge.RecommendShip, verdict.Recommendation)
	assert.Equal(t, 100.0, verdict.PassRate)
	assert.Empty(t, verdict.Issues)

	sess := desk.Team().LatestSession()
	require.NotNil(t, sess)
	assert.True(t, sess.ConsensusReached)
}

func TestDefaultRoster_OrderLookup(t *testing.T) {
	tracer := trace.NewInMemoryTracer()
	router, executor := DefaultRoster(tracer)
	rt := runtime.New(router, executor, func(o *runtime.Options) { o.Tracer = tracer })

	id, err := rt.StartSession(core.CustomerContext{CustomerID: "c-1", Name: "Dana"})
	require.NoError(t, err)

	reply, err := rt.HandleMessage(context.Background(), id, "What's the status of my order ORD-1001?")
	require.NoError(t, err)
	assert.False(t, reply.Escalated)
	assert.Contains(t, strings.ToLower(reply.Message), "order status")

	events, err := tracer.Events(id)
	require.NoError(t, err)
	var tools []string
	for _, ev := range events {
		if ev.Type == core.TraceTool {
			tools = append(tools, ev.Data["tool"].(string))
		}
	}
	assert.Equal(t, []string{"lookup_order"}, tools)
}

func TestDefaultRoster_DisputeEscalates(t *testing.T) {
	tracer := trace.NewInMemoryTracer()
	router, executor := DefaultRoster(tracer)
	rt := runtime.New(router, executor, func(o *runtime.Options) { o.Tracer = tracer })

	id, err := rt.StartSession(core.CustomerContext{CustomerID: "c-2"})
	require.NoError(t, err)

	reply, err := rt.HandleMessage(context.Background(), id, "My invoice is wrong and I dispute this charge.")
	require.NoError(t, err)
	assert.False(t, reply.Escalated)

	reply, err = rt.HandleMessage(context.Background(), id, "No, that explanation is not acceptable.")
	require.NoError(t, err)
	assert.True(t, reply.Escalated)
	assert.Contains(t, strings.ToLower(reply.Message), "escalating")
}
