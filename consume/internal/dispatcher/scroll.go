package dispatcher

import (
	"context"

	"github.com/pagepulse/pagepulse-stack/common/events"
	"github.com/pagepulse/pagepulse-stack/common/logging"
	"github.com/pagepulse/pagepulse-stack/common/messaging"
	"github.com/pagepulse/pagepulse-stack/consume/internal/metrics"
	"github.com/pagepulse/pagepulse-stack/consume/internal/records"
)

// HandleScrollEvent maps scroll_depth messages into scroll_events rows.
func (d *Dispatcher) HandleScrollEvent(ctx context.Context, msg *messaging.Message) error {
	env, ok := d.parseEnvelope(msg)
	if !ok {
		metrics.MessagesFailed.WithLabelValues(messaging.ConsumerScrollEvents).Inc()
		return nil
	}
	metrics.MessagesConsumed.WithLabelValues(messaging.ConsumerScrollEvents).Inc()

	eventType := env.EventType
	if eventType == "" {
		eventType = events.TypeScrollDepth
	}

	data := env.Data
	rec := &records.ScrollEvent{
		Timestamp:     d.recordTime(env),
		SessionID:     events.StringOr(data, "", "session_id"),
		UserID:        events.StringOr(data, "", "user_id"),
		TrackingID:    ownerID(env),
		PageURL:       events.PageURL(data),
		EventType:     eventType,
		DepthPercent:  events.IntPtr(data, "depth_percent", "depthPercent", "depth"),
		ScrollTop:     events.IntPtr(data, "scroll_top", "scrollTop"),
		ScrollPercent: events.IntPtr(data, "scroll_percent", "scrollPercent"),
	}

	if err := d.sink.InsertScrollEvent(ctx, rec); err != nil {
		return d.fail(messaging.ConsumerScrollEvents, "failed to insert scroll event",
			logging.EventType(eventType), logging.Err(err))
	}
	return nil
}
