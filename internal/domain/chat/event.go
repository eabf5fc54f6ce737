package chat

// Event is one of the closed set of stream events produced while a chat
// completion runs. The set is fixed: consumers switch over the concrete
// types and handle every variant.
type Event interface {
	// event is a marker that keeps the variant set closed to this package.
	event()
}

// TextDelta is an incremental chunk of assistant text.
type TextDelta struct {
	Content string
}

// ToolCallStarted fires as soon as a streaming tool call receives its id.
type ToolCallStarted struct {
	CallID   string
	ToolName string
}

// ToolCallArgumentChunk is an incremental fragment of a tool call's
// argument text, in arrival order.
type ToolCallArgumentChunk struct {
	CallID string
	Chunk  string
}

// ToolCallCompleted carries a tool call with fully parsed arguments. It
// fires once per call, after the provider stream has terminated.
type ToolCallCompleted struct {
	ToolCall ToolCall
}

// ToolResultAvailable carries a tool's execution result. It follows the
// call's ToolCallCompleted immediately.
type ToolResultAvailable struct {
	ToolResult ToolResult
}

// FinishReason is the provider's reason for ending a completion.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishToolCalls     FinishReason = "tool_calls"
	FinishLength        FinishReason = "length"
	FinishContentFilter FinishReason = "content_filter"
)

// UsageStats is the token accounting for one completion. TotalTokens is
// always PromptTokens + CompletionTokens; upstream totals are not trusted.
type UsageStats struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// NewUsageStats computes usage from the reported prompt and completion
// counts.
func NewUsageStats(promptTokens, completionTokens int) UsageStats {
	return UsageStats{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}

// CompletionFinished is the final event of every successful stream.
type CompletionFinished struct {
	FinishReason FinishReason
	Usage        UsageStats
}

func (TextDelta) event()             {}
func (ToolCallStarted) event()       {}
func (ToolCallArgumentChunk) event() {}
func (ToolCallCompleted) event()     {}
func (ToolResultAvailable) event()   {}
func (CompletionFinished) event()    {}
