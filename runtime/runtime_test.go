package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/agentdesk/agent"
	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/memory"
	"github.com/hupe1980/agentdesk/model"
	"github.com/hupe1980/agentdesk/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRuntime(t *testing.T, scripted *model.ScriptedModel) (*Runtime, *memory.InMemoryStore) {
	t.Helper()
	reg := agent.NewRegistry()
	for _, name := range []string{"support", "billing", "technical"} {
		reg.Register(agent.NewModelAgent(name, name+" agent", "You are the "+name+" agent.", scripted))
	}
	mem := memory.NewInMemoryStore()
	rt := New(agent.NewKeywordRouter("support"), reg, func(o *Options) {
		o.MemoryStore = mem
	})
	return rt, mem
}

func TestRuntime_StartSession(t *testing.T) {
	rt, _ := newTestRuntime(t, model.NewScriptedModel("test"))

	id, err := rt.StartSession(core.CustomerContext{CustomerID: "c1", Name: "Ada"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = rt.StartSession(core.CustomerContext{})
	require.ErrorIs(t, err, core.ErrMissingIdentity)
}

func TestRuntime_HandleMessage_UnknownSession(t *testing.T) {
	rt, _ := newTestRuntime(t, model.NewScriptedModel("test"))
	_, err := rt.HandleMessage(context.Background(), "no-such-session", "hello")
	require.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestRuntime_HandleMessage_ResolvedTurn(t *testing.T) {
	scripted := model.NewScriptedModel("test")
	scripted.AddRule("order status", model.Response{Content: "I can help with your order status."})
	rt, mem := newTestRuntime(t, scripted)

	id, err := rt.StartSession(core.CustomerContext{CustomerID: "c1"})
	require.NoError(t, err)

	reply, err := rt.HandleMessage(context.Background(), id, "what is my order status?")
	require.NoError(t, err)
	assert.False(t, reply.Escalated)
	assert.Equal(t, "I can help with your order status.", reply.Message)

	// trace: message, routing, decision
	evs, err := rt.Tracer().Events(id)
	require.NoError(t, err)
	require.Len(t, evs, 3)
	assert.Equal(t, core.TraceMessage, evs[0].Type)
	assert.Equal(t, core.TraceRouting, evs[1].Type)
	assert.Equal(t, core.TraceDecision, evs[2].Type)

	// memory updated
	m, _ := mem.Get(id)
	assert.Equal(t, "support", m["last_agent"])
	assert.Equal(t, false, m["escalated"])
}

func TestRuntime_HandleMessage_RouterEscalation(t *testing.T) {
	rt, _ := newTestRuntime(t, model.NewScriptedModel("test"))
	id, _ := rt.StartSession(core.CustomerContext{CustomerID: "c1"})

	reply, err := rt.HandleMessage(context.Background(), id, "I need to speak to a real person")
	require.NoError(t, err)
	assert.True(t, reply.Escalated)
	assert.Equal(t, EscalationMessage, reply.Message)

	evs, _ := rt.Tracer().Events(id)
	require.Len(t, evs, 2)
	assert.Equal(t, core.TraceEscalation, evs[1].Type)
}

func TestRuntime_HandleMessage_AgentEscalation(t *testing.T) {
	m := &escalatingModel{}
	reg := agent.NewRegistry()
	reg.Register(agent.NewModelAgent("support", "front desk", "", m, func(o *agent.ModelAgentOptions) {
		o.Tools = []tool.Tool{tool.NewEscalateToHuman()}
	}))
	rt := New(agent.NewKeywordRouter("support"), reg)

	id, _ := rt.StartSession(core.CustomerContext{CustomerID: "c1"})
	reply, err := rt.HandleMessage(context.Background(), id, "this is hopeless")
	require.NoError(t, err)
	assert.True(t, reply.Escalated)
	assert.Equal(t, "I am escalating this to our team.", reply.Message)

	evs, _ := rt.Tracer().Events(id)
	// message, routing, escalation
	require.Len(t, evs, 3)
	assert.Equal(t, core.TraceEscalation, evs[2].Type)
}

func TestRuntime_HandleMessage_ModelErrorPropagates(t *testing.T) {
	wantErr := errors.New("model down")
	reg := agent.NewRegistry()
	reg.Register(agent.NewModelAgent("support", "front desk", "", &failingModel{err: wantErr}))
	rt := New(agent.NewKeywordRouter("support"), reg)

	id, _ := rt.StartSession(core.CustomerContext{CustomerID: "c1"})
	_, err := rt.HandleMessage(context.Background(), id, "hello")
	require.ErrorIs(t, err, wantErr)
}

// escalatingModel always calls the escalation tool then apologizes.
type escalatingModel struct{ calls int }

func (m *escalatingModel) Chat(_ context.Context, req model.Request) (*model.Response, error) {
	m.calls++
	if m.calls == 1 {
		return &model.Response{
			ToolCalls:    []model.ToolCall{{ID: "c1", Name: tool.EscalateToHumanName, Arguments: `{"reason":"stuck"}`}},
			FinishReason: "tool_calls",
		}, nil
	}
	return &model.Response{Content: "I am escalating this to our team.", FinishReason: "stop"}, nil
}

func (m *escalatingModel) Info() model.Info {
	return model.Info{Name: "escalating", Provider: "test", SupportsTools: true}
}

type failingModel struct{ err error }

func (m *failingModel) Chat(context.Context, model.Request) (*model.Response, error) {
	return nil, m.err
}
func (m *failingModel) Info() model.Info { return model.Info{Name: "failing", Provider: "test"} }
