package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/logging"
	"github.com/hupe1980/agentdesk/model"
	"github.com/hupe1980/agentdesk/tool"
)

// maxToolRounds bounds the tool-call loop so a model that keeps requesting
// tools cannot spin forever.
const maxToolRounds = 4

// ModelAgentOptions configures a ModelAgent.
type ModelAgentOptions struct {
	// Tools available to the model for this agent.
	Tools []tool.Tool
	// Tracer records tool invocations. Nil disables tool tracing.
	Tracer core.Tracer
	// Logger defaults to NoOp.
	Logger logging.Logger
}

// ModelAgent drives the chat capability for one named agent. It sends the
// customer message with the agent's instructions and tool definitions,
// executes any requested tool calls, and feeds results back to the model
// until it produces a plain reply.
//
// Escalation is detected from a call to the escalate_to_human tool; the
// runtime additionally escalates on router decisions, so the two paths
// compose.
type ModelAgent struct {
	baseAgent
	instructions string
	model        model.Model
	opts         ModelAgentOptions
}

// NewModelAgent constructs a model-backed agent.
func NewModelAgent(name, description, instructions string, m model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelAgent{
		baseAgent:    baseAgent{name: name, description: description},
		instructions: instructions,
		model:        m,
		opts:         opts,
	}
}

// Handle implements Agent. Errors from the chat capability propagate to the
// caller uncaught; tool execution failures are returned to the model as tool
// results so it can recover or apologize.
func (a *ModelAgent) Handle(ctx context.Context, sess *core.Session, message string) (core.Reply, error) {
	messages := []model.Message{{Role: "user", Content: message}}
	req := model.Request{
		Instructions: a.buildInstructions(sess),
		Messages:     messages,
		Tools:        tool.Definitions(a.opts.Tools),
	}

	escalated := false
	for round := 0; ; round++ {
		resp, err := a.model.Chat(ctx, req)
		if err != nil {
			return core.Reply{}, err
		}
		if len(resp.ToolCalls) == 0 || round >= maxToolRounds {
			return core.Reply{Message: resp.Content, Escalated: escalated}, nil
		}

		req.Messages = append(req.Messages, model.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, tc := range resp.ToolCalls {
			if tc.Name == tool.EscalateToHumanName {
				escalated = true
			}
			result := a.executeToolCall(ctx, sess, tc)
			req.Messages = append(req.Messages, model.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}
}

// buildInstructions prepends customer context to the agent's system prompt.
func (a *ModelAgent) buildInstructions(sess *core.Session) string {
	var b strings.Builder
	b.WriteString(a.instructions)
	if sess != nil {
		fmt.Fprintf(&b, "\n\nCustomer: %s (id %s", sess.Customer.Name, sess.Customer.CustomerID)
		if sess.Customer.Tier != "" {
			fmt.Fprintf(&b, ", tier %s", sess.Customer.Tier)
		}
		b.WriteString(")")
	}
	return b.String()
}

// executeToolCall runs one tool call and renders its result (or error) as a
// string for the tool message. Failures are not fatal for the turn.
func (a *ModelAgent) executeToolCall(ctx context.Context, sess *core.Session, tc model.ToolCall) string {
	t := a.findTool(tc.Name)
	if t == nil {
		a.opts.Logger.Warn("model requested unknown tool", "agent", a.name, "tool", tc.Name)
		return fmt.Sprintf("error: unknown tool %q", tc.Name)
	}

	var args map[string]any
	if tc.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
			return fmt.Sprintf("error: invalid tool arguments: %v", err)
		}
	}

	result, err := t.Call(ctx, args)
	a.traceToolCall(sess, tc.Name, err)
	if err != nil {
		a.opts.Logger.Warn("tool execution failed", "agent", a.name, "tool", tc.Name, "error", err)
		return fmt.Sprintf("error: %v", err)
	}

	switch v := result.(type) {
	case string:
		return v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}

func (a *ModelAgent) findTool(name string) tool.Tool {
	for _, t := range a.opts.Tools {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

func (a *ModelAgent) traceToolCall(sess *core.Session, toolName string, err error) {
	if a.opts.Tracer == nil || sess == nil {
		return
	}
	ev := core.NewTraceEvent(core.TraceTool, a.name, fmt.Sprintf("tool %s invoked", toolName))
	ev.Data = map[string]any{"tool": toolName, "success": err == nil}
	if appendErr := a.opts.Tracer.Append(sess.ID, ev); appendErr != nil {
		a.opts.Logger.Warn("failed to trace tool call", "error", appendErr)
	}
}
