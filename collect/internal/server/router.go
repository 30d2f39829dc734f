// Package server assembles the collect HTTP routes.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pagepulse/pagepulse-stack/collect/internal/handlers"
	"github.com/pagepulse/pagepulse-stack/common/middleware"
)

// NewRouter constructs a ServeMux with the collect API routes registered.
func NewRouter(events *handlers.EventHandler, tracking *handlers.TrackingHandler, health *handlers.HealthHandler) http.Handler {
	mux := http.NewServeMux()

	// Event ingestion
	mux.HandleFunc("POST /api/receive_data", events.ReceiveData)

	// Tracking id management
	mux.HandleFunc("POST /api/tracking-ids/sync", tracking.Sync)
	mux.HandleFunc("POST /api/tracking-ids/register", tracking.Register)
	mux.HandleFunc("DELETE /api/tracking-ids/{id}", tracking.Unregister)
	mux.HandleFunc("GET /api/tracking-ids", tracking.List)
	mux.HandleFunc("GET /api/tracking-ids/count", tracking.Count)
	mux.HandleFunc("GET /api/tracking-ids/validate/{id}", tracking.Validate)

	// Probes and metrics
	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /ready", health.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
