package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/ChatRelay/internal/domain/chat"
	"github.com/Strob0t/ChatRelay/internal/port/toolexec"
)

// registerTools mirrors every registry descriptor as an MCP tool whose
// handler dispatches through the same executor the chat stream uses.
func (s *Server) registerTools(executor toolexec.Executor) {
	if executor == nil {
		return
	}
	var serverTools []mcpserver.ServerTool
	for _, desc := range executor.Tools() {
		schema, err := json.Marshal(desc.InputSchema)
		if err != nil {
			continue
		}
		serverTools = append(serverTools, mcpserver.ServerTool{
			Tool:    mcplib.NewToolWithRawSchema(desc.Name, desc.Description, schema),
			Handler: toolHandler(executor, desc.Name),
		})
	}
	s.mcpServer.AddTools(serverTools...)
}

func toolHandler(executor toolexec.Executor, name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
		call, err := chat.NewToolCall("mcp-"+uuid.NewString(), name, req.GetArguments())
		if err != nil {
			return mcplib.NewToolResultErrorFromErr("invalid tool call", err), nil
		}
		res, err := executor.Execute(ctx, call)
		if err != nil {
			if errors.Is(err, chat.ErrToolNotFound) {
				return mcplib.NewToolResultError("tool not registered: " + name), nil
			}
			return mcplib.NewToolResultErrorFromErr("tool execution failed", err), nil
		}
		data, err := json.Marshal(res.Result)
		if err != nil {
			return mcplib.NewToolResultErrorFromErr("marshal tool result", err), nil
		}
		return mcplib.NewToolResultText(string(data)), nil
	}
}
