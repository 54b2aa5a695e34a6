package tool

import "context"

// FunctionTool is a generic adapter that exposes a plain Go function as a
// tool. It has no internal mutable state after construction and is safe for
// concurrent use by multiple goroutines.
//
// Errors returned by the wrapped function are normalized: a *ToolError passes
// through unchanged, anything else is wrapped with the EXECUTION_ERROR code.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool from explicit schema and function.
//
//	lookup := NewFunctionTool(
//	  "lookup_order",
//	  "Look up the status of a customer's order",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "order_id": map[string]any{"type": "string"},
//	    },
//	    "required": []string{"order_id"},
//	  },
//	  func(ctx context.Context, args map[string]any) (any, error) { ... },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *FunctionTool {
	return &FunctionTool{name: name, description: description, parameters: parameters, fn: fn}
}

// Name implements Tool.
func (t *FunctionTool) Name() string { return t.name }

// Description implements Tool.
func (t *FunctionTool) Description() string { return t.description }

// Parameters implements Tool.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call implements Tool.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	result, err := t.fn(ctx, args)
	if err != nil {
		if te, ok := err.(*ToolError); ok {
			return nil, te
		}
		return nil, NewToolError(t.name, err.Error(), "EXECUTION_ERROR")
	}
	return result, nil
}
