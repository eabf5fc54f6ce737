// Package vercel renders domain events as Vercel AI data stream protocol
// lines (version 1). The mapping is stateless: each event becomes at most
// one line, and events with no wire representation yield an empty string.
package vercel

import (
	"encoding/json"
	"fmt"

	"github.com/Strob0t/ChatRelay/internal/domain/chat"
)

type toolCallPayload struct {
	ToolCallID string         `json:"toolCallId"`
	ToolName   string         `json:"toolName"`
	Args       map[string]any `json:"args"`
}

type toolResultPayload struct {
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`
	Result     any    `json:"result"`
}

type finishPayload struct {
	FinishReason string       `json:"finishReason"`
	Usage        usagePayload `json:"usage"`
	IsContinued  bool         `json:"isContinued"`
}

type usagePayload struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
}

// FormatEvent renders one domain event as a protocol line including the
// trailing newline. Events the protocol does not transmit return "".
func FormatEvent(ev chat.Event) (string, error) {
	switch e := ev.(type) {
	case chat.TextDelta:
		return encodeLine("0", e.Content)

	case chat.ToolCallCompleted:
		return encodeLine("9", toolCallPayload{
			ToolCallID: e.ToolCall.ID,
			ToolName:   e.ToolCall.Name,
			Args:       e.ToolCall.Arguments,
		})

	case chat.ToolResultAvailable:
		return encodeLine("a", toolResultPayload{
			ToolCallID: e.ToolResult.CallID,
			ToolName:   e.ToolResult.Name,
			Result:     e.ToolResult.Result,
		})

	case chat.CompletionFinished:
		return encodeLine("e", finishPayload{
			FinishReason: string(e.FinishReason),
			Usage: usagePayload{
				PromptTokens:     e.Usage.PromptTokens,
				CompletionTokens: e.Usage.CompletionTokens,
			},
			IsContinued: false,
		})

	case chat.ToolCallStarted, chat.ToolCallArgumentChunk:
		// Internal observability events with no wire representation.
		return "", nil

	default:
		return "", fmt.Errorf("unknown event type %T", ev)
	}
}

func encodeLine(tag string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s line: %w", tag, err)
	}
	return tag + ":" + string(data) + "\n", nil
}
