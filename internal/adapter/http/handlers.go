// Package http provides the HTTP boundary: DTO decoding, the streaming
// chat endpoint, and tool listing.
package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Strob0t/ChatRelay/internal/port/toolexec"
	"github.com/Strob0t/ChatRelay/internal/service"

	"github.com/Strob0t/ChatRelay/internal/adapter/vercel"
)

const defaultBodyLimit = 1 << 20 // 1 MiB

// Handlers bundles the dependencies of all HTTP handlers.
type Handlers struct {
	chat     *service.ChatService
	executor toolexec.Executor
}

// NewHandlers creates the handler set.
func NewHandlers(chat *service.ChatService, executor toolexec.Executor) *Handlers {
	return &Handlers{chat: chat, executor: executor}
}

// HandleChat streams a chat completion as Vercel AI data stream protocol
// lines. Errors before the first event map to an HTTP status; errors
// mid-stream terminate the response body.
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[ChatRequest](w, r, defaultBodyLimit)
	if !ok {
		return
	}

	messages, err := toDomainMessages(req.Messages)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stream, err := h.chat.Stream(r.Context(), messages)
	if err != nil {
		writeStreamError(w, err)
		return
	}
	defer func() { _ = stream.Close() }()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("x-vercel-ai-data-stream", "v1")
	w.WriteHeader(http.StatusOK)

	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			// The status line is already sent. Log and cut the body so
			// the client sees a truncated stream.
			slog.Error("chat stream failed", "error", err)
			return
		}

		line, err := vercel.FormatEvent(ev)
		if err != nil {
			slog.Error("format stream event", "error", err)
			return
		}
		if line == "" {
			continue
		}
		if _, err := io.WriteString(w, line); err != nil {
			return
		}
		flusher.Flush()
	}
}

// ListTools returns the registered tool descriptors in registration
// order.
func (h *Handlers) ListTools(w http.ResponseWriter, _ *http.Request) {
	descs := h.executor.Tools()
	infos := make([]ToolInfo, 0, len(descs))
	for _, d := range descs {
		infos = append(infos, ToolInfo{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": infos})
}

// Healthz reports liveness.
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
