package http

// DTOs matching the frontend AI SDK message format. Field names are part
// of the wire contract and must not change.

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages []ClientMessage `json:"messages"`
}

// ClientMessage is one entry of the client's conversation history.
type ClientMessage struct {
	Role            string             `json:"role"`
	Content         string             `json:"content"`
	Attachments     []ClientAttachment `json:"experimental_attachments,omitempty"`
	ToolInvocations []ToolInvocation   `json:"toolInvocations,omitempty"`
}

// ClientAttachment references a file or image by URL.
type ClientAttachment struct {
	ContentType string `json:"contentType"`
	URL         string `json:"url"`
}

// Tool invocation states used by the AI SDK.
const (
	InvocationStateCall        = "call"
	InvocationStatePartialCall = "partial-call"
	InvocationStateResult      = "result"
)

// ToolInvocation is a tool call the client has already observed,
// possibly with its result.
type ToolInvocation struct {
	State      string         `json:"state"`
	ToolCallID string         `json:"toolCallId"`
	ToolName   string         `json:"toolName"`
	Args       map[string]any `json:"args"`
	Result     any            `json:"result"`
}

// ToolInfo describes one registered tool in GET /api/tools responses.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}
