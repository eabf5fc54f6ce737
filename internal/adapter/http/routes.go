package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/ChatRelay/internal/adapter/ws"
)

// MountRoutes registers all API routes on the given chi router. hub may
// be nil when the WebSocket observer endpoint is disabled.
func MountRoutes(r chi.Router, h *Handlers, hub *ws.Hub) {
	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		r.Post("/chat", h.HandleChat)
		r.Get("/tools", h.ListTools)
	})

	if hub != nil {
		r.Get("/ws", hub.HandleWS)
	}
}
