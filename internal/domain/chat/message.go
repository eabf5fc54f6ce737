// Package chat defines the domain model for streaming chat completions:
// messages, tool calls, and the stream event variants produced by the
// orchestrator.
package chat

import "errors"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ParseRole converts a wire-level role string to a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return Role(s), nil
	}
	return "", errors.New("invalid role: " + s)
}

// Attachment is a file or image referenced by a message.
type Attachment struct {
	ContentType string
	URL         string
}

// NewAttachment validates and builds an Attachment.
func NewAttachment(contentType, url string) (Attachment, error) {
	if contentType == "" {
		return Attachment{}, errors.New("attachment content type is required")
	}
	if url == "" {
		return Attachment{}, errors.New("attachment url is required")
	}
	return Attachment{ContentType: contentType, URL: url}, nil
}

// Message is a single entry in a conversation history. Messages are
// immutable after construction; build them with NewMessage so the role
// invariants hold.
type Message struct {
	Role        Role
	Content     string
	Attachments []Attachment
	// ToolCallID correlates a tool-role message with the call it answers.
	ToolCallID string
	// ToolCalls carries the calls an assistant message requested.
	ToolCalls []ToolCall
}

// MessageOption customises a Message under construction.
type MessageOption func(*Message)

// WithAttachments sets the message attachments.
func WithAttachments(atts ...Attachment) MessageOption {
	return func(m *Message) { m.Attachments = atts }
}

// WithToolCallID marks the message as answering the given tool call.
func WithToolCallID(id string) MessageOption {
	return func(m *Message) { m.ToolCallID = id }
}

// WithToolCalls attaches requested tool calls to an assistant message.
func WithToolCalls(calls ...ToolCall) MessageOption {
	return func(m *Message) { m.ToolCalls = calls }
}

// NewMessage builds a validated Message. Content may be empty only for
// assistant messages (an assistant turn can consist of tool calls alone),
// and tool messages must reference the call they answer.
func NewMessage(role Role, content string, opts ...MessageOption) (Message, error) {
	if _, err := ParseRole(string(role)); err != nil {
		return Message{}, err
	}
	m := Message{Role: role, Content: content}
	for _, opt := range opts {
		opt(&m)
	}
	if m.Content == "" && m.Role != RoleAssistant {
		return Message{}, errors.New("message content is required")
	}
	if m.Role == RoleTool && m.ToolCallID == "" {
		return Message{}, errors.New("tool messages require a tool call id")
	}
	return m, nil
}

// IsToolResponse reports whether the message answers a tool call.
func (m Message) IsToolResponse() bool {
	return m.Role == RoleTool
}

// HasAttachments reports whether the message carries attachments.
func (m Message) HasAttachments() bool {
	return len(m.Attachments) > 0
}
