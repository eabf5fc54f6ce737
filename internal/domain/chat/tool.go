package chat

import "errors"

// ToolCall is a fully materialised tool invocation requested by the model.
// The ID correlates the call with its streamed fragments and eventual result.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// NewToolCall validates and builds a ToolCall.
func NewToolCall(id, name string, arguments map[string]any) (ToolCall, error) {
	if id == "" {
		return ToolCall{}, errors.New("tool call id is required")
	}
	if name == "" {
		return ToolCall{}, errors.New("tool call name is required")
	}
	return ToolCall{ID: id, Name: name, Arguments: arguments}, nil
}

// ToolResult is the outcome of executing a ToolCall. The result value is
// opaque to the domain; it is serialised as-is on the wire.
type ToolResult struct {
	CallID string
	Name   string
	Result any
}

// NewToolResult validates and builds a ToolResult.
func NewToolResult(callID, name string, result any) (ToolResult, error) {
	if callID == "" {
		return ToolResult{}, errors.New("tool result call id is required")
	}
	return ToolResult{CallID: callID, Name: name, Result: result}, nil
}

// ToolDescriptor describes a registered tool as advertised to the model.
type ToolDescriptor struct {
	Name        string
	Description string
	InputSchema map[string]any
}
