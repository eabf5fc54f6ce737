package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Strob0t/ChatRelay/internal/domain/chat"
)

// Wire types for the chat completions request.

type chatRequest struct {
	Model         string         `json:"model"`
	Messages      []wireMessage  `json:"messages"`
	Tools         []wireTool     `json:"tools,omitempty"`
	Stream        bool           `json:"stream"`
	StreamOptions wireStreamOpts `json:"stream_options"`
}

type wireStreamOpts struct {
	IncludeUsage bool `json:"include_usage"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    any            `json:"content,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireTool struct {
	Type     string      `json:"type"`
	Function wireToolDef `json:"function"`
}

type wireToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

func buildRequest(model string, messages []chat.Message, tools []chat.ToolDescriptor) (*chatRequest, error) {
	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	wire := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		wm, err := toWireMessage(m)
		if err != nil {
			return nil, err
		}
		wire = append(wire, wm)
	}
	req := &chatRequest{
		Model:         model,
		Messages:      wire,
		Stream:        true,
		StreamOptions: wireStreamOpts{IncludeUsage: true},
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, wireTool{
			Type: "function",
			Function: wireToolDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return req, nil
}

func toWireMessage(m chat.Message) (wireMessage, error) {
	switch {
	case m.Role == chat.RoleTool:
		return wireMessage{
			Role:       "tool",
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}, nil

	case m.Role == chat.RoleAssistant && len(m.ToolCalls) > 0:
		wm := wireMessage{Role: "assistant"}
		if m.Content != "" {
			wm.Content = m.Content
		}
		for _, tc := range m.ToolCalls {
			args, err := json.Marshal(tc.Arguments)
			if err != nil {
				return wireMessage{}, fmt.Errorf("marshal tool call %s arguments: %w", tc.ID, err)
			}
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: wireFunction{
					Name:      tc.Name,
					Arguments: string(args),
				},
			})
		}
		return wm, nil

	default:
		parts := []contentPart{{Type: "text", Text: m.Content}}
		for _, att := range m.Attachments {
			if strings.HasPrefix(att.ContentType, "image") {
				parts = append(parts, contentPart{
					Type:     "image_url",
					ImageURL: &imageURL{URL: att.URL},
				})
			}
		}
		return wireMessage{Role: string(m.Role), Content: parts}, nil
	}
}
