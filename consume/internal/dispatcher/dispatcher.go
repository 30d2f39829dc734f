// Package dispatcher demultiplexes canonical event envelopes into typed
// analytics records, one handler per topic group.
//
// Handlers always return nil: a malformed message or a sink failure is
// logged and the message is considered consumed. Redelivering would not
// fix a mapping error and blocking retries would grow consumer lag.
package dispatcher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pagepulse/pagepulse-stack/common/events"
	"github.com/pagepulse/pagepulse-stack/common/logging"
	"github.com/pagepulse/pagepulse-stack/common/messaging"
	"github.com/pagepulse/pagepulse-stack/consume/internal/metrics"
	"github.com/pagepulse/pagepulse-stack/consume/internal/records"
)

// Sink persists typed records. Each insert is independent; the dispatcher
// never wraps multiple inserts in a transaction.
type Sink interface {
	InsertPageEvent(ctx context.Context, rec *records.PageEvent) error
	InsertSession(ctx context.Context, rec *records.Session) error
	InsertInteractionEvent(ctx context.Context, rec *records.InteractionEvent) error
	InsertFormEvent(ctx context.Context, rec *records.FormEvent) error
	InsertEcommerceEvent(ctx context.Context, rec *records.EcommerceEvent) error
	InsertVideoEvent(ctx context.Context, rec *records.VideoEvent) error
	InsertScrollEvent(ctx context.Context, rec *records.ScrollEvent) error
	InsertMouseEvent(ctx context.Context, rec *records.MouseEvent) error
}

// Dispatcher owns the per-topic-group message handlers.
type Dispatcher struct {
	sink   Sink
	logger *slog.Logger
	now    func() time.Time
}

// New wires a dispatcher over the given sink.
func New(sink Sink, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		sink:   sink,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ownerID resolves the event owner, preferring the envelope field and
// falling back to the data mapping. The anonymous sentinel is not a
// stored owner.
func ownerID(env *events.Envelope) string {
	if env.TrackingID != "" && env.TrackingID != events.AnonymousTrackingID {
		return env.TrackingID
	}
	return events.StringOr(env.Data, "", "tracking_id")
}

// Group binds a durable consumer name to its topics and handler.
type Group struct {
	Name    string
	Topics  []string
	Handler messaging.MessageHandler
}

// Groups returns every dispatcher consumer group. Topic sets are disjoint,
// so each message is handled by exactly one group.
func (d *Dispatcher) Groups() []Group {
	return []Group{
		{messaging.ConsumerPageEvents, messaging.PageTopics, d.HandlePageEvent},
		{messaging.ConsumerInteractionEvents, messaging.InteractionTopics, d.HandleInteractionEvent},
		{messaging.ConsumerFormEvents, messaging.FormTopics, d.HandleFormEvent},
		{messaging.ConsumerEcommerceEvents, messaging.EcommerceTopics, d.HandleEcommerceEvent},
		{messaging.ConsumerVideoEvents, messaging.VideoTopics, d.HandleVideoEvent},
		{messaging.ConsumerScrollEvents, messaging.ScrollTopics, d.HandleScrollEvent},
		{messaging.ConsumerMouseEvents, messaging.MouseTopics, d.HandleMouseEvent},
		{messaging.ConsumerPeriodicEvents, messaging.PeriodicTopics, d.HandlePeriodicEvents},
	}
}

// parseEnvelope decodes a bus message into an envelope, guaranteeing a
// non-nil data map.
func (d *Dispatcher) parseEnvelope(msg *messaging.Message) (*events.Envelope, bool) {
	var env events.Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		d.logger.Error("failed to parse envelope",
			"subject", msg.Subject, logging.Err(err))
		return nil, false
	}
	if env.Data == nil {
		env.Data = map[string]any{}
	}
	return &env, true
}

// recordTime derives the storage timestamp: envelope timestamp first,
// then a timestamp field inside data, then the current time.
func (d *Dispatcher) recordTime(env *events.Envelope) time.Time {
	if ts, ok := events.ParseTime(env.Timestamp); ok {
		return ts
	}
	if s, ok := events.GetString(env.Data, "timestamp"); ok {
		if ts, ok := events.ParseTime(s); ok {
			return ts
		}
	}
	return d.now()
}

func (d *Dispatcher) fail(group string, msg string, args ...any) error {
	d.logger.Error(msg, args...)
	metrics.MessagesFailed.WithLabelValues(group).Inc()
	return nil
}
