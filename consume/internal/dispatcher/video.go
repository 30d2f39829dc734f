package dispatcher

import (
	"context"

	"github.com/pagepulse/pagepulse-stack/common/events"
	"github.com/pagepulse/pagepulse-stack/common/logging"
	"github.com/pagepulse/pagepulse-stack/common/messaging"
	"github.com/pagepulse/pagepulse-stack/consume/internal/metrics"
	"github.com/pagepulse/pagepulse-stack/consume/internal/records"
)

// HandleVideoEvent maps the video_events topic into video_events rows.
// The event type retains the tracker's alias (play, pause, progress_50...).
func (d *Dispatcher) HandleVideoEvent(ctx context.Context, msg *messaging.Message) error {
	env, ok := d.parseEnvelope(msg)
	if !ok {
		metrics.MessagesFailed.WithLabelValues(messaging.ConsumerVideoEvents).Inc()
		return nil
	}
	metrics.MessagesConsumed.WithLabelValues(messaging.ConsumerVideoEvents).Inc()

	data := env.Data
	rec := &records.VideoEvent{
		Timestamp:     d.recordTime(env),
		SessionID:     events.StringOr(data, "", "session_id"),
		UserID:        events.StringOr(data, "", "user_id"),
		TrackingID:    ownerID(env),
		PageURL:       events.PageURL(data),
		EventType:     env.EventType,
		VideoSrc:      events.StringOr(data, "unknown", "video_src", "src"),
		VideoDuration: events.FloatPtr(data, "video_duration", "duration"),
		CurrentTime:   events.FloatPtr(data, "current_time", "currentTime"),
	}

	if err := d.sink.InsertVideoEvent(ctx, rec); err != nil {
		return d.fail(messaging.ConsumerVideoEvents, "failed to insert video event",
			logging.EventType(env.EventType), logging.Err(err))
	}
	return nil
}
