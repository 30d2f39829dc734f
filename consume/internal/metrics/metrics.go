package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagepulse_consume_messages_total",
			Help: "Total number of messages consumed per topic group",
		},
		[]string{"group"},
	)

	MessagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagepulse_consume_messages_failed_total",
			Help: "Total number of messages that failed mapping or persistence",
		},
		[]string{"group"},
	)

	RecordsInserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagepulse_consume_records_inserted_total",
			Help: "Total number of typed records written to the analytics store",
		},
		[]string{"table"},
	)

	InsertDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pagepulse_consume_insert_duration_seconds",
			Help:    "Duration of analytics store inserts in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	InsertErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagepulse_consume_insert_errors_total",
			Help: "Total number of analytics store insert errors",
		},
		[]string{"table"},
	)

	BatchSubEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagepulse_consume_batch_sub_events_total",
			Help: "Total number of sub-events unpacked from periodic batches",
		},
		[]string{"kind"},
	)
)
