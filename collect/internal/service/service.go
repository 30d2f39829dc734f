// Package service implements the ingestion pipeline: admission control,
// batch authorization, per-item normalization and publishing.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pagepulse/pagepulse-stack/collect/internal/metrics"
	"github.com/pagepulse/pagepulse-stack/collect/internal/normalizer"
	"github.com/pagepulse/pagepulse-stack/collect/internal/ratelimit"
	"github.com/pagepulse/pagepulse-stack/common/logging"
	"github.com/pagepulse/pagepulse-stack/common/messaging"
)

// Sentinel errors mapped to HTTP status codes by the handler layer.
var (
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrUnauthorized  = errors.New("tracking id not authorized")
	ErrInvalidFormat = errors.New("request body must be a JSON object or array")
)

// Summary is the aggregate outcome of one ingestion batch.
type Summary struct {
	Processed int
	Skipped   int
}

// Authorizer gates a batch by its tracking id.
type Authorizer interface {
	IsAuthorized(ctx context.Context, trackingID string) bool
}

// Service orchestrates the ingestion pipeline for one request at a time.
type Service struct {
	limiter   ratelimit.Limiter
	registry  Authorizer
	publisher messaging.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// New wires the ingestion service.
func New(limiter ratelimit.Limiter, reg Authorizer, publisher messaging.Publisher, logger *slog.Logger) *Service {
	return &Service{
		limiter:   limiter,
		registry:  reg,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Ingest runs the pipeline for one request body. The body may be a single
// JSON object or an array of objects; a single object is treated as a
// one-element batch. Authorization is decided once per batch from the
// first item's tracking id. Each item is then normalized and published
// independently; failures skip the item without aborting the batch.
func (s *Service) Ingest(ctx context.Context, body []byte, clientIP string) (Summary, error) {
	allowed, err := s.limiter.Allow(ctx, clientIP)
	if err != nil {
		s.logger.WarnContext(ctx, "rate limiter unavailable, rejecting request",
			logging.ClientIP(clientIP), logging.Err(err))
		metrics.RateLimitHits.Inc()
		return Summary{}, ErrRateLimited
	}
	if !allowed {
		metrics.RateLimitHits.Inc()
		return Summary{}, ErrRateLimited
	}

	items, invalid, err := decodeBatch(body)
	if err != nil {
		return Summary{}, err
	}
	if invalid > 0 {
		metrics.EventsSkipped.WithLabelValues("invalid_item").Add(float64(invalid))
	}
	if len(items) == 0 {
		return Summary{Skipped: invalid}, nil
	}

	trackingID := normalizer.TrackingID(items[0])
	if !s.registry.IsAuthorized(ctx, trackingID) {
		metrics.AuthRejections.Inc()
		return Summary{}, fmt.Errorf("%w: %s", ErrUnauthorized, trackingID)
	}

	summary := Summary{Skipped: invalid}
	for _, item := range items {
		if s.publishItem(ctx, item, clientIP) {
			summary.Processed++
		} else {
			summary.Skipped++
		}
	}
	return summary, nil
}

func (s *Service) publishItem(ctx context.Context, item map[string]any, clientIP string) bool {
	res := normalizer.Normalize(item, clientIP, s.now())
	if res.Dropped {
		s.logger.DebugContext(ctx, "event dropped during normalization",
			"reason", res.Reason, logging.ClientIP(clientIP))
		metrics.EventsSkipped.WithLabelValues(res.Reason).Inc()
		return false
	}

	payload, err := json.Marshal(res.Envelope)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to serialize envelope",
			logging.EventType(res.Envelope.EventType), logging.Err(err))
		metrics.EventsSkipped.WithLabelValues("serialization_error").Inc()
		return false
	}

	start := time.Now()
	err = s.publisher.Publish(ctx, messaging.EventSubject(res.Topic), payload)
	metrics.PublishDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event",
			logging.Topic(res.Topic), logging.Err(err))
		metrics.PublishErrors.Inc()
		metrics.EventsSkipped.WithLabelValues("publish_error").Inc()
		return false
	}

	metrics.EventsProcessed.WithLabelValues(res.Topic).Inc()
	return true
}

// decodeBatch parses the request body as either a single event object or
// an array of event objects. Non-object array elements are skipped, not
// fatal: only a body that is neither object nor array rejects the request.
// The second return value counts the skipped elements.
func decodeBatch(body []byte) ([]map[string]any, int, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, 0, ErrInvalidFormat
	}

	switch v := raw.(type) {
	case map[string]any:
		return []map[string]any{v}, 0, nil
	case []any:
		items := make([]map[string]any, 0, len(v))
		invalid := 0
		for _, el := range v {
			obj, ok := el.(map[string]any)
			if !ok {
				invalid++
				continue
			}
			items = append(items, obj)
		}
		return items, invalid, nil
	default:
		return nil, 0, ErrInvalidFormat
	}
}
