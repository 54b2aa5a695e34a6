package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Model = (*ScriptedModel)(nil)

func TestScriptedModel_RuleMatching(t *testing.T) {
	m := NewScriptedModel("test").
		AddRule("refund", Response{Content: "refund started"}).
		AddRule("order", Response{Content: "order shipped"})

	tests := []struct {
		name    string
		message string
		want    string
	}{
		{name: "first match wins", message: "refund for my order", want: "refund started"},
		{name: "case insensitive", message: "STATUS OF MY ORDER?", want: "order shipped"},
		{name: "fallback", message: "hello there", want: "[test] I can help with that."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := m.Chat(context.Background(), Request{
				Messages: []Message{{Role: "user", Content: tt.message}},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Content)
			assert.Equal(t, "stop", resp.FinishReason)
		})
	}
}

func TestScriptedModel_MatchesLastUserMessage(t *testing.T) {
	m := NewScriptedModel("test").
		AddRule("order", Response{Content: "order reply"}).
		AddRule("refund", Response{Content: "refund reply"})

	resp, err := m.Chat(context.Background(), Request{
		Messages: []Message{
			{Role: "user", Content: "where is my order?"},
			{Role: "assistant", Content: "order reply"},
			{Role: "user", Content: "actually I want a refund"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "refund reply", resp.Content)
}

func TestScriptedModel_ToolCallsFireOnce(t *testing.T) {
	m := NewScriptedModel("test").AddRule("order", Response{
		Content:   "order is in transit",
		ToolCalls: []ToolCall{{ID: "c1", Name: "lookup_order", Arguments: `{"order_id":"1"}`}},
	})

	first, err := m.Chat(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "check my order"}},
	})
	require.NoError(t, err)
	require.Len(t, first.ToolCalls, 1)

	// after the tool result the same rule matches again, but content-only
	second, err := m.Chat(context.Background(), Request{
		Messages: []Message{
			{Role: "user", Content: "check my order"},
			{Role: "assistant", ToolCalls: first.ToolCalls},
			{Role: "tool", Content: "in transit", ToolCallID: "c1"},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, second.ToolCalls)
	assert.Equal(t, "order is in transit", second.Content)
}

func TestScriptedModel_NoUserMessage(t *testing.T) {
	m := NewScriptedModel("test")
	_, err := m.Chat(context.Background(), Request{})
	require.Error(t, err)
}

func TestScriptedModel_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewScriptedModel("test")
	_, err := m.Chat(ctx, Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.ErrorIs(t, err, context.Canceled)
}
