// Package ops serves the console's operational surface: health, metrics,
// and a read-only JSON view of the session directory for dashboards and
// headless deployments.
package ops

import (
	"encoding/json"
	"net/http"

	"github.com/guardline/operator-console/internal/console"
)

// Handler serves the ops endpoints from the console's published state.
type Handler struct {
	console *console.Console
}

// NewHandler creates an ops handler.
func NewHandler(c *console.Console) *Handler {
	return &Handler{console: c}
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready. The console is ready when the messaging
// transport is connected.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.console.StatusSnapshot().Connected {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "messaging transport not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Sessions handles GET /api/v1/sessions: the directory ordered by last
// activity, most recent first.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.console.SessionsSnapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// Status handles GET /api/v1/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.console.StatusSnapshot())
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
