// Package tools implements the tool executor port with an in-process
// registry of callable tools.
package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/Strob0t/ChatRelay/internal/domain/chat"
)

// Tool is a callable unit the model can invoke. Arguments arrive already
// decoded from the model's JSON payload.
type Tool interface {
	Descriptor() chat.ToolDescriptor
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Registry maps tool names to implementations and validates arguments
// against each tool's input schema before dispatch.
type Registry struct {
	mu    sync.RWMutex
	order []string
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register inserts a tool when its name is not in use. Registration order
// is preserved by Tools.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("tool is nil")
	}
	desc := t.Descriptor()
	if desc.Name == "" {
		return fmt.Errorf("tool name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[desc.Name]; exists {
		return fmt.Errorf("tool %s already registered", desc.Name)
	}
	r.tools[desc.Name] = t
	r.order = append(r.order, desc.Name)
	return nil
}

// Tools returns the descriptors of all registered tools in registration
// order.
func (r *Registry) Tools() []chat.ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descs := make([]chat.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		descs = append(descs, r.tools[name].Descriptor())
	}
	return descs
}

// Execute dispatches a resolved tool call to the registered tool. An
// unknown name yields chat.ErrToolNotFound; a validation or call failure
// yields *chat.ToolExecutionError.
func (r *Registry) Execute(ctx context.Context, call chat.ToolCall) (chat.ToolResult, error) {
	r.mu.RLock()
	t, exists := r.tools[call.Name]
	r.mu.RUnlock()
	if !exists {
		return chat.ToolResult{}, fmt.Errorf("tool %q: %w", call.Name, chat.ErrToolNotFound)
	}

	if err := validateArgs(call.Arguments, t.Descriptor().InputSchema); err != nil {
		return chat.ToolResult{}, &chat.ToolExecutionError{Tool: call.Name, Cause: err}
	}

	out, err := t.Call(ctx, call.Arguments)
	if err != nil {
		return chat.ToolResult{}, &chat.ToolExecutionError{Tool: call.Name, Cause: err}
	}
	return chat.NewToolResult(call.ID, call.Name, out)
}
