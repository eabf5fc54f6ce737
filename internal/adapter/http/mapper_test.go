package http

import (
	"testing"

	"github.com/Strob0t/ChatRelay/internal/domain/chat"
)

func TestToDomainMessagesPlain(t *testing.T) {
	messages, err := toDomainMessages([]ClientMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
	})
	if err != nil {
		t.Fatalf("toDomainMessages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if messages[0].Role != chat.RoleSystem || messages[1].Role != chat.RoleUser {
		t.Fatalf("roles = %v, %v", messages[0].Role, messages[1].Role)
	}
}

func TestToDomainMessagesExpandsToolResults(t *testing.T) {
	messages, err := toDomainMessages([]ClientMessage{
		{Role: "user", Content: "weather in berlin?"},
		{
			Role:    "assistant",
			Content: "",
			ToolInvocations: []ToolInvocation{{
				State:      InvocationStateResult,
				ToolCallID: "call_1",
				ToolName:   "get_current_weather",
				Args:       map[string]any{"latitude": 52.52, "longitude": 13.41},
				Result:     map[string]any{"temperature_2m": 21.5},
			}},
		},
	})
	if err != nil {
		t.Fatalf("toDomainMessages: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3 (assistant expanded)", len(messages))
	}

	assistant := messages[1]
	if assistant.Role != chat.RoleAssistant || len(assistant.ToolCalls) != 1 {
		t.Fatalf("assistant = %#v", assistant)
	}
	if assistant.ToolCalls[0].ID != "call_1" {
		t.Fatalf("tool call = %#v", assistant.ToolCalls[0])
	}

	toolMsg := messages[2]
	if toolMsg.Role != chat.RoleTool || toolMsg.ToolCallID != "call_1" {
		t.Fatalf("tool message = %#v", toolMsg)
	}
	if toolMsg.Content != `{"temperature_2m":21.5}` {
		t.Fatalf("tool message content = %q", toolMsg.Content)
	}
}

func TestToDomainMessagesSkipsPartialCalls(t *testing.T) {
	messages, err := toDomainMessages([]ClientMessage{
		{
			Role:    "assistant",
			Content: "thinking",
			ToolInvocations: []ToolInvocation{{
				State:      InvocationStatePartialCall,
				ToolCallID: "call_1",
				ToolName:   "get_current_weather",
			}},
		},
	})
	if err != nil {
		t.Fatalf("toDomainMessages: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(messages))
	}
	if len(messages[0].ToolCalls) != 0 {
		t.Fatalf("partial call should not produce tool calls: %#v", messages[0].ToolCalls)
	}
}

func TestToDomainMessagesAttachments(t *testing.T) {
	messages, err := toDomainMessages([]ClientMessage{
		{
			Role:    "user",
			Content: "what is this?",
			Attachments: []ClientAttachment{
				{ContentType: "image/png", URL: "https://example.com/cat.png"},
			},
		},
	})
	if err != nil {
		t.Fatalf("toDomainMessages: %v", err)
	}
	if len(messages[0].Attachments) != 1 || messages[0].Attachments[0].URL != "https://example.com/cat.png" {
		t.Fatalf("attachments = %#v", messages[0].Attachments)
	}
}

func TestToDomainMessagesInvalidRole(t *testing.T) {
	if _, err := toDomainMessages([]ClientMessage{{Role: "robot", Content: "x"}}); err == nil {
		t.Fatal("expected error for invalid role")
	}
}
