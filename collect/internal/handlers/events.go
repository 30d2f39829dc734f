// Package handlers exposes the HTTP surface of the collect service.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/pagepulse/pagepulse-stack/collect/internal/metrics"
	"github.com/pagepulse/pagepulse-stack/collect/internal/service"
	"github.com/pagepulse/pagepulse-stack/common/httputil"
	"github.com/pagepulse/pagepulse-stack/common/logging"
)

// EventHandler receives tracker payloads and feeds them to the ingestion
// pipeline.
type EventHandler struct {
	service     *service.Service
	logger      *logging.Logger
	maxBodySize int64
}

// NewEventHandler constructs the ingestion endpoint handler.
func NewEventHandler(svc *service.Service, logger *logging.Logger, maxBodySize int64) *EventHandler {
	return &EventHandler{
		service:     svc,
		logger:      logger,
		maxBodySize: maxBodySize,
	}
}

type ingestResponse struct {
	Status    string `json:"status"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
}

// ReceiveData handles POST /api/receive_data. The body may be a single
// event object or an array of event objects.
func (h *EventHandler) ReceiveData(w http.ResponseWriter, r *http.Request) {
	clientIP := httputil.GetClientIP(r)

	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxBodySize+1))
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("400").Inc()
		httputil.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	if int64(len(body)) > h.maxBodySize {
		metrics.RequestsTotal.WithLabelValues("413").Inc()
		httputil.WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	metrics.RequestBytesTotal.Add(float64(len(body)))

	summary, err := h.service.Ingest(r.Context(), body, clientIP)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRateLimited):
			metrics.RequestsTotal.WithLabelValues("429").Inc()
			httputil.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
		case errors.Is(err, service.ErrUnauthorized):
			metrics.RequestsTotal.WithLabelValues("403").Inc()
			httputil.WriteError(w, http.StatusForbidden, "tracking id not authorized")
		case errors.Is(err, service.ErrInvalidFormat):
			metrics.RequestsTotal.WithLabelValues("400").Inc()
			httputil.WriteError(w, http.StatusBadRequest, "request body must be a JSON object or array")
		default:
			h.logger.ErrorContext(r.Context(), "ingestion failed",
				logging.ClientIP(clientIP), logging.Err(err))
			metrics.RequestsTotal.WithLabelValues("500").Inc()
			httputil.WriteError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	metrics.RequestsTotal.WithLabelValues("200").Inc()
	httputil.WriteJSON(w, http.StatusOK, ingestResponse{
		Status:    "success",
		Processed: summary.Processed,
		Skipped:   summary.Skipped,
	})
}
