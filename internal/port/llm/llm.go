// Package llm defines the provider port (interface) for streaming chat
// completions from an upstream model vendor.
package llm

import (
	"context"

	"github.com/Strob0t/ChatRelay/internal/domain/chat"
)

// Event is one of the low-level events a provider stream yields. The set
// is closed: TextDelta, ToolCallDelta, Finished.
type Event interface {
	providerEvent()
}

// TextDelta is an incremental chunk of generated text.
type TextDelta struct {
	Content string
}

// ToolCallDelta is a fragment of a streaming tool call. Index identifies
// which concurrently-streaming call the fragment belongs to. ID is set
// only on the fragment that opens a call; ArgumentsChunk carries a piece
// of the call's argument text.
type ToolCallDelta struct {
	Index          int
	ID             string
	Name           string
	ArgumentsChunk string
}

// Finished is the terminal event of every provider stream. It occurs
// exactly once, last.
type Finished struct {
	FinishReason     chat.FinishReason
	PromptTokens     int
	CompletionTokens int
}

func (TextDelta) providerEvent()     {}
func (ToolCallDelta) providerEvent() {}
func (Finished) providerEvent()      {}

// Stream is a single-pass sequence of provider events. Recv blocks until
// the next event is available and returns io.EOF after Finished. Close
// releases the underlying connection; it is safe to call at any point.
type Stream interface {
	Recv() (Event, error)
	Close() error
}

// Provider streams chat completions. Implementations must surface
// transport, auth and rate-limit failures through the chat error taxonomy
// (*chat.ProviderError, *chat.RateLimitError).
type Provider interface {
	StreamCompletion(ctx context.Context, messages []chat.Message, tools []chat.ToolDescriptor) (Stream, error)
}
