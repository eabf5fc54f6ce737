// Package toolexec defines the tool executor port (interface).
package toolexec

import (
	"context"

	"github.com/Strob0t/ChatRelay/internal/domain/chat"
)

// Executor resolves and runs tool calls against a registry of tools.
type Executor interface {
	// Tools returns a read-only snapshot of the registered tool set, in
	// registration order.
	Tools() []chat.ToolDescriptor

	// Execute runs the named tool with the call's arguments. It fails with
	// chat.ErrToolNotFound when the name is unregistered and with
	// *chat.ToolExecutionError when the tool itself fails.
	Execute(ctx context.Context, call chat.ToolCall) (chat.ToolResult, error)
}
