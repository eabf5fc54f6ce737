// Package broadcast defines the port for fanning out stream events to
// observers (WebSocket clients, message queues). Broadcasting is
// best-effort: failures are logged by adapters and never interrupt the
// stream that produced the event.
package broadcast

import (
	"context"

	"github.com/google/uuid"

	"github.com/Strob0t/ChatRelay/internal/domain/chat"
)

// Event type constants used in envelope Type fields.
const (
	TypeTextDelta           = "stream.text_delta"
	TypeToolCallStarted     = "stream.toolcall.started"
	TypeToolCallArgument    = "stream.toolcall.argument"
	TypeToolCallCompleted   = "stream.toolcall.completed"
	TypeToolResultAvailable = "stream.toolcall.result"
	TypeCompletionFinished  = "stream.finished"
)

// Envelope wraps one stream event for transport to observers.
type Envelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Broadcaster delivers envelopes to connected observers.
type Broadcaster interface {
	Publish(ctx context.Context, env Envelope)
}

// NewEnvelope converts a domain stream event to a transport envelope.
func NewEnvelope(ev chat.Event) Envelope {
	env := Envelope{ID: uuid.NewString()}
	switch e := ev.(type) {
	case chat.TextDelta:
		env.Type = TypeTextDelta
		env.Payload = map[string]any{"content": e.Content}
	case chat.ToolCallStarted:
		env.Type = TypeToolCallStarted
		env.Payload = map[string]any{"call_id": e.CallID, "tool_name": e.ToolName}
	case chat.ToolCallArgumentChunk:
		env.Type = TypeToolCallArgument
		env.Payload = map[string]any{"call_id": e.CallID, "chunk": e.Chunk}
	case chat.ToolCallCompleted:
		env.Type = TypeToolCallCompleted
		env.Payload = map[string]any{
			"call_id":   e.ToolCall.ID,
			"tool_name": e.ToolCall.Name,
			"arguments": e.ToolCall.Arguments,
		}
	case chat.ToolResultAvailable:
		env.Type = TypeToolResultAvailable
		env.Payload = map[string]any{
			"call_id":   e.ToolResult.CallID,
			"tool_name": e.ToolResult.Name,
			"result":    e.ToolResult.Result,
		}
	case chat.CompletionFinished:
		env.Type = TypeCompletionFinished
		env.Payload = map[string]any{
			"finish_reason": string(e.FinishReason),
			"usage": map[string]int{
				"prompt_tokens":     e.Usage.PromptTokens,
				"completion_tokens": e.Usage.CompletionTokens,
				"total_tokens":      e.Usage.TotalTokens,
			},
		}
	}
	return env
}

// Multi fans a publish out to several broadcasters.
type Multi []Broadcaster

// Publish delivers the envelope to every broadcaster in order.
func (m Multi) Publish(ctx context.Context, env Envelope) {
	for _, b := range m {
		b.Publish(ctx, env)
	}
}
