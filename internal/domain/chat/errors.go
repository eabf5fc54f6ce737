package chat

import (
	"errors"
	"fmt"
)

// ErrToolNotFound indicates the requested tool name is not registered.
var ErrToolNotFound = errors.New("tool not found")

// ProviderError is a generic upstream LLM provider failure.
type ProviderError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm provider error %d: %s", e.StatusCode, e.Message)
	}
	return "llm provider error: " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// RateLimitError indicates the provider rejected the request for exceeding
// its rate limits. It is kept distinct from ProviderError so the boundary
// can answer 429 instead of 502.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return "llm provider rate limited: " + e.Message
}

// ToolExecutionError wraps a tool's own failure, preserving the tool name
// and the original cause.
type ToolExecutionError struct {
	Tool  string
	Cause error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Cause)
}

func (e *ToolExecutionError) Unwrap() error { return e.Cause }

// MalformedArgumentsError indicates a tool call's accumulated argument text
// did not parse as JSON when the stream terminated. Not retried.
type MalformedArgumentsError struct {
	CallID string
	Tool   string
	Cause  error
}

func (e *MalformedArgumentsError) Error() string {
	return fmt.Sprintf("malformed arguments for tool call %s (%s): %v", e.CallID, e.Tool, e.Cause)
}

func (e *MalformedArgumentsError) Unwrap() error { return e.Cause }
