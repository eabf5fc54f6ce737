package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Strob0t/ChatRelay/internal/domain/chat"
)

// readJSON decodes a JSON request body, holding it to a byte limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request, limit int64) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeStreamError maps a stream establishment failure to an HTTP
// status. Mid-stream failures cannot use this; by then the 200 and
// part of the body are already on the wire.
func writeStreamError(w http.ResponseWriter, err error) {
	var rateLimit *chat.RateLimitError
	var provider *chat.ProviderError
	switch {
	case errors.As(err, &rateLimit):
		writeError(w, http.StatusTooManyRequests, rateLimit.Message)
	case errors.As(err, &provider):
		slog.Error("provider rejected stream", "error", err)
		writeError(w, http.StatusBadGateway, "upstream provider failure")
	default:
		slog.Error("stream establishment failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
