package tool

import (
	"context"
	"fmt"
)

// EscalateToHumanName is the tool name agents call to hand the conversation
// off to a human operator. The runtime treats any call to this tool as an
// escalation for the turn.
const EscalateToHumanName = "escalate_to_human"

// NewEscalateToHuman returns the hand-off tool. The tool itself only records
// the reason; the actual transfer is the runtime's responsibility.
func NewEscalateToHuman() *FunctionTool {
	return NewFunctionTool(
		EscalateToHumanName,
		"Escalate the conversation to a human support representative. Use when the customer explicitly asks for a person or the issue cannot be resolved automatically.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"reason": map[string]any{
					"type":        "string",
					"description": "Why the conversation needs a human",
				},
			},
			"required": []string{"reason"},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			reason, _ := args["reason"].(string)
			return map[string]any{"escalated": true, "reason": reason}, nil
		},
	)
}

// OrderLookupFunc resolves an order id to a status description.
type OrderLookupFunc func(ctx context.Context, orderID string) (string, error)

// NewLookupOrder returns an order status tool backed by the given lookup
// function. A nil lookup yields a canned in-memory responder suitable for
// demos and simulations.
func NewLookupOrder(lookup OrderLookupFunc) *FunctionTool {
	if lookup == nil {
		lookup = func(_ context.Context, orderID string) (string, error) {
			return fmt.Sprintf("Order %s is in transit and expected within 2 business days.", orderID), nil
		}
	}
	return NewFunctionTool(
		"lookup_order",
		"Look up the current status of a customer's order by order id.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"order_id": map[string]any{
					"type":        "string",
					"description": "The customer's order identifier",
				},
			},
			"required": []string{"order_id"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			orderID, _ := args["order_id"].(string)
			if orderID == "" {
				return nil, NewToolError("lookup_order", "order_id is required", "VALIDATION_ERROR")
			}
			return lookup(ctx, orderID)
		},
	)
}
