package handlers

import (
	"net/http"
	"time"

	"github.com/pagepulse/pagepulse-stack/common/httputil"
	"github.com/pagepulse/pagepulse-stack/common/messaging"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	bus messaging.Client
}

// NewHealthHandler constructs the probe handler.
func NewHealthHandler(bus messaging.Client) *HealthHandler {
	return &HealthHandler{bus: bus}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready, reporting per-dependency connectivity.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	bus := "connected"
	if h.bus != nil && !h.bus.IsConnected() {
		bus = "disconnected"
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"nats":      bus,
		"redis":     "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
