package model

import (
	"context"
	"fmt"
	"strings"
)

// Message is one entry of the conversation passed to the model. Role is one
// of "user", "assistant" or "tool"; tool messages carry the ToolCallID they
// answer.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider
// branching.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"` // JSON string of arguments
}

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset
// expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by agents.
type Request struct {
	Instructions string           `json:"instructions"`
	Messages     []Message        `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the single assistant turn returned by a model.
type Response struct {
	Content      string      `json:"content"`
	ToolCalls    []ToolCall  `json:"tool_calls,omitempty"`
	FinishReason string      `json:"finish_reason,omitempty"` // "stop", "tool_calls", ...
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "scripted", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal chat interface required by agents. A failing call
// returns an error unmodified; the framework performs no retries.
type Model interface {
	Chat(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// scriptRule pairs a case-insensitive trigger substring with the canned
// response returned when the last user message contains it.
type scriptRule struct {
	trigger string
	resp    Response
}

// ScriptedModel is a deterministic in-memory Model for tests, simulations and
// local gate runs. Rules are evaluated in registration order against the last
// user message; the first match wins.
type ScriptedModel struct {
	info     Info
	rules    []scriptRule
	fallback Response
}

// NewScriptedModel constructs a ScriptedModel with tool support enabled and a
// generic fallback response.
func NewScriptedModel(name string) *ScriptedModel {
	return &ScriptedModel{
		info:     Info{Name: name, Provider: "scripted", SupportsTools: true},
		fallback: Response{Content: fmt.Sprintf("[%s] I can help with that.", name), FinishReason: "stop"},
	}
}

// AddRule registers a canned response triggered by a case-insensitive
// substring of the last user message.
func (m *ScriptedModel) AddRule(trigger string, resp Response) *ScriptedModel {
	m.rules = append(m.rules, scriptRule{trigger: strings.ToLower(trigger), resp: resp})
	return m
}

// SetFallback overrides the response used when no rule matches.
func (m *ScriptedModel) SetFallback(resp Response) *ScriptedModel {
	m.fallback = resp
	return m
}

// Chat implements Model. A rule's tool calls fire once per turn: when the
// conversation already ends with a tool result, the matched response is
// returned content-only so agents terminate their tool loop deterministically.
func (m *ScriptedModel) Chat(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var last string
	for _, msg := range req.Messages {
		if msg.Role == "user" {
			last = msg.Content
		}
	}
	if last == "" {
		return nil, fmt.Errorf("no user message provided")
	}
	toolsDelivered := req.Messages[len(req.Messages)-1].Role == "tool"

	lowered := strings.ToLower(last)
	for _, rule := range m.rules {
		if strings.Contains(lowered, rule.trigger) {
			resp := rule.resp
			if toolsDelivered {
				resp.ToolCalls = nil
			}
			if resp.FinishReason == "" {
				resp.FinishReason = "stop"
			}
			return &resp, nil
		}
	}
	resp := m.fallback
	return &resp, nil
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }
