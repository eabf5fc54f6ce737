// Package mcp exposes the registered tool set over the Model Context
// Protocol, so MCP-compatible agents can call the same tools the chat
// stream uses.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/ChatRelay/internal/port/toolexec"
)

// ServerConfig holds MCP server settings.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
}

// Server serves the tool registry over streamable HTTP.
type Server struct {
	cfg        ServerConfig
	mcpServer  *mcpserver.MCPServer
	httpServer *mcpserver.StreamableHTTPServer
}

// NewServer builds an MCP server advertising every tool the executor
// knows about.
func NewServer(cfg ServerConfig, executor toolexec.Executor) *Server {
	ms := mcpserver.NewMCPServer(cfg.Name, cfg.Version,
		mcpserver.WithToolCapabilities(false),
	)
	s := &Server{
		cfg:       cfg,
		mcpServer: ms,
	}
	s.registerTools(executor)
	s.httpServer = mcpserver.NewStreamableHTTPServer(ms)
	return s
}

// MCPServer exposes the underlying server, mainly for tests.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Start begins serving in the background.
func (s *Server) Start() error {
	go func() {
		if err := s.httpServer.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mcp server failed", "error", err)
		}
	}()
	slog.Info("mcp server started", "addr", s.cfg.Addr)
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
