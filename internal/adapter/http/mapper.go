package http

import (
	"encoding/json"
	"fmt"

	"github.com/Strob0t/ChatRelay/internal/domain/chat"
)

// toDomainMessages converts the client history to domain messages. A
// message carrying result-state tool invocations expands into the
// assistant message plus one tool message per result, so the output may
// be longer than the input.
func toDomainMessages(clientMessages []ClientMessage) ([]chat.Message, error) {
	var messages []chat.Message

	for i, cm := range clientMessages {
		role, err := chat.ParseRole(cm.Role)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}

		var opts []chat.MessageOption

		if len(cm.Attachments) > 0 {
			attachments := make([]chat.Attachment, 0, len(cm.Attachments))
			for _, a := range cm.Attachments {
				att, err := chat.NewAttachment(a.ContentType, a.URL)
				if err != nil {
					return nil, fmt.Errorf("message %d: %w", i, err)
				}
				attachments = append(attachments, att)
			}
			opts = append(opts, chat.WithAttachments(attachments...))
		}

		if role == chat.RoleAssistant && len(cm.ToolInvocations) > 0 {
			var calls []chat.ToolCall
			for _, inv := range cm.ToolInvocations {
				if inv.State != InvocationStateCall && inv.State != InvocationStateResult {
					continue
				}
				call, err := chat.NewToolCall(inv.ToolCallID, inv.ToolName, inv.Args)
				if err != nil {
					return nil, fmt.Errorf("message %d invocation %s: %w", i, inv.ToolCallID, err)
				}
				calls = append(calls, call)
			}
			if len(calls) > 0 {
				opts = append(opts, chat.WithToolCalls(calls...))
			}
		}

		msg, err := chat.NewMessage(role, cm.Content, opts...)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		messages = append(messages, msg)

		for _, inv := range cm.ToolInvocations {
			if inv.State != InvocationStateResult {
				continue
			}
			result, err := json.Marshal(inv.Result)
			if err != nil {
				return nil, fmt.Errorf("message %d result %s: %w", i, inv.ToolCallID, err)
			}
			toolMsg, err := chat.NewMessage(chat.RoleTool, string(result), chat.WithToolCallID(inv.ToolCallID))
			if err != nil {
				return nil, fmt.Errorf("message %d result %s: %w", i, inv.ToolCallID, err)
			}
			messages = append(messages, toolMsg)
		}
	}

	return messages, nil
}
