package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pagepulse/pagepulse-stack/collect/internal/registry"
	"github.com/pagepulse/pagepulse-stack/common/httputil"
	"github.com/pagepulse/pagepulse-stack/common/logging"
)

// TrackingHandler manages tracking id registrations over HTTP. The site
// management system of record calls these endpoints to keep the registry
// in sync.
type TrackingHandler struct {
	registry          *registry.Registry
	logger            *logging.Logger
	validationEnabled bool
}

// NewTrackingHandler constructs the tracking id management handler.
func NewTrackingHandler(reg *registry.Registry, logger *logging.Logger, validationEnabled bool) *TrackingHandler {
	return &TrackingHandler{
		registry:          reg,
		logger:            logger,
		validationEnabled: validationEnabled,
	}
}

// Sync handles POST /api/tracking-ids/sync. The payload is
// {"tracking_ids": ["id1", ...]}; ids are added to the registry without
// removing existing entries.
func (h *TrackingHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TrackingIDs []string `json:"tracking_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || len(payload.TrackingIDs) == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "tracking_ids array is required")
		return
	}

	n, err := h.registry.RegisterBulk(r.Context(), payload.TrackingIDs)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to sync tracking ids", logging.Err(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to sync tracking ids")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"message":   "Synced tracking IDs",
		"count":     n,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Register handles POST /api/tracking-ids/register with payload
// {"tracking_id": "id"}.
func (h *TrackingHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TrackingID string `json:"tracking_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.TrackingID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "tracking_id is required")
		return
	}

	if err := h.registry.Register(r.Context(), payload.TrackingID); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to register tracking id",
			logging.TrackingID(payload.TrackingID), logging.Err(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to register tracking id")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"message":     "Tracking ID registered",
		"tracking_id": payload.TrackingID,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Unregister handles DELETE /api/tracking-ids/{id}.
func (h *TrackingHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	trackingID := r.PathValue("id")
	if trackingID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "tracking id path parameter is required")
		return
	}

	if err := h.registry.Unregister(r.Context(), trackingID); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to unregister tracking id",
			logging.TrackingID(trackingID), logging.Err(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to unregister tracking id")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"message":     "Tracking ID unregistered",
		"tracking_id": trackingID,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

// List handles GET /api/tracking-ids.
func (h *TrackingHandler) List(w http.ResponseWriter, r *http.Request) {
	ids, err := h.registry.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list tracking ids", logging.Err(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list tracking ids")
		return
	}
	if ids == nil {
		ids = []string{}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"tracking_ids": ids,
		"count":        len(ids),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Count handles GET /api/tracking-ids/count.
func (h *TrackingHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.registry.Count(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to count tracking ids", logging.Err(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to count tracking ids")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"count":              count,
		"validation_enabled": h.validationEnabled,
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	})
}

// Validate handles GET /api/tracking-ids/validate/{id}.
func (h *TrackingHandler) Validate(w http.ResponseWriter, r *http.Request) {
	trackingID := r.PathValue("id")
	if trackingID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "tracking id path parameter is required")
		return
	}

	valid, err := h.registry.IsRegistered(r.Context(), trackingID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to validate tracking id",
			logging.TrackingID(trackingID), logging.Err(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to validate tracking id")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"tracking_id": trackingID,
		"is_valid":    valid,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}
