package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagepulse_collect_requests_total",
			Help: "Total number of ingestion requests received",
		},
		[]string{"status"},
	)

	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagepulse_collect_events_processed_total",
			Help: "Total number of events published to the bus",
		},
		[]string{"topic"},
	)

	EventsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagepulse_collect_events_skipped_total",
			Help: "Total number of events dropped during normalization or publish",
		},
		[]string{"reason"},
	)

	RequestBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagepulse_collect_request_bytes_total",
			Help: "Total bytes of event payload data received",
		},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagepulse_collect_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	// Authorization metrics
	AuthRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagepulse_collect_auth_rejections_total",
			Help: "Total number of requests rejected for unregistered tracking ids",
		},
	)

	// Publish metrics
	PublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pagepulse_collect_publish_duration_seconds",
			Help:    "Duration of message bus publish operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagepulse_collect_publish_errors_total",
			Help: "Total number of message bus publish errors",
		},
	)
)
