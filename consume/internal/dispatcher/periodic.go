package dispatcher

import (
	"context"
	"time"

	"github.com/pagepulse/pagepulse-stack/common/events"
	"github.com/pagepulse/pagepulse-stack/common/logging"
	"github.com/pagepulse/pagepulse-stack/common/messaging"
	"github.com/pagepulse/pagepulse-stack/consume/internal/metrics"
	"github.com/pagepulse/pagepulse-stack/consume/internal/records"
)

// HandlePeriodicEvents unpacks one periodic batch into typed records.
// The batch's data may carry up to five sub-event arrays; each element is
// combined with the parent's session/tracking/user/url/timestamp and
// inserted through the same category mappings as the dedicated handlers.
// Each sub-event is processed independently; one failure never aborts the
// rest of the batch.
func (d *Dispatcher) HandlePeriodicEvents(ctx context.Context, msg *messaging.Message) error {
	env, ok := d.parseEnvelope(msg)
	if !ok {
		metrics.MessagesFailed.WithLabelValues(messaging.ConsumerPeriodicEvents).Inc()
		return nil
	}
	metrics.MessagesConsumed.WithLabelValues(messaging.ConsumerPeriodicEvents).Inc()

	data := env.Data
	parent := batchContext{
		trackingID: ownerID(env),
		sessionID:  events.StringOr(data, "", "session_id"),
		userID:     events.StringOr(data, "", "user_id"),
		url:        events.PageURL(data),
		timestamp:  d.recordTime(env),
	}

	if clicks, ok := events.GetSlice(data, "linkClicks"); ok {
		for _, el := range clicks {
			d.unpackInteraction(ctx, el, events.TypeLinkClick, parent)
		}
	}
	if videos, ok := events.GetSlice(data, "videoEvents"); ok {
		for _, el := range videos {
			d.unpackVideo(ctx, el, parent)
		}
	}
	if clicks, ok := events.GetSlice(data, "mouseClicks"); ok {
		for _, el := range clicks {
			d.unpackInteraction(ctx, el, events.TypeMouseClick, parent)
		}
	}
	if scrolls, ok := events.GetSlice(data, "scrollEvents"); ok {
		for _, el := range scrolls {
			d.unpackScroll(ctx, el, parent)
		}
	}
	if forms, ok := events.GetSlice(data, "formEvents"); ok {
		for _, el := range forms {
			d.unpackForm(ctx, el, parent)
		}
	}
	return nil
}

// batchContext carries the parent envelope fields shared by every
// sub-event in a periodic batch.
type batchContext struct {
	trackingID string
	sessionID  string
	userID     string
	url        string
	timestamp  time.Time
}

func asObject(el any) (map[string]any, bool) {
	obj, ok := el.(map[string]any)
	return obj, ok
}

func (d *Dispatcher) unpackInteraction(ctx context.Context, el any, eventType string, parent batchContext) {
	sub, ok := asObject(el)
	if !ok {
		d.logger.Warn("skipping non-object sub-event", logging.EventType(eventType))
		return
	}

	rec := &records.InteractionEvent{
		Timestamp:  parent.timestamp,
		SessionID:  parent.sessionID,
		UserID:     parent.userID,
		TrackingID: parent.trackingID,
		EventType:  eventType,
		PageURL:    events.StringOr(sub, parent.url, "url"),
		Element:    events.StringOr(sub, "", "element"),
		X:          events.IntPtr(sub, "x"),
		Y:          events.IntPtr(sub, "y"),
	}

	if err := d.sink.InsertInteractionEvent(ctx, rec); err != nil {
		d.logger.Error("failed to insert batched interaction event",
			logging.EventType(eventType), logging.Err(err))
		metrics.InsertErrors.WithLabelValues("interaction_events").Inc()
		return
	}
	metrics.BatchSubEvents.WithLabelValues(eventType).Inc()
}

func (d *Dispatcher) unpackVideo(ctx context.Context, el any, parent batchContext) {
	sub, ok := asObject(el)
	if !ok {
		d.logger.Warn("skipping non-object sub-event", logging.EventType(events.TypeVideoPlay))
		return
	}

	eventType := events.StringOr(sub, events.TypeVideoPlay, "type", "event_type")
	rec := &records.VideoEvent{
		Timestamp:     parent.timestamp,
		SessionID:     parent.sessionID,
		UserID:        parent.userID,
		TrackingID:    parent.trackingID,
		PageURL:       parent.url,
		EventType:     eventType,
		VideoSrc:      events.StringOr(sub, "unknown", "video_src", "src"),
		VideoDuration: events.FloatPtr(sub, "duration"),
		CurrentTime:   events.FloatPtr(sub, "currentTime"),
	}

	if err := d.sink.InsertVideoEvent(ctx, rec); err != nil {
		d.logger.Error("failed to insert batched video event",
			logging.EventType(eventType), logging.Err(err))
		metrics.InsertErrors.WithLabelValues("video_events").Inc()
		return
	}
	metrics.BatchSubEvents.WithLabelValues("video").Inc()
}

func (d *Dispatcher) unpackScroll(ctx context.Context, el any, parent batchContext) {
	sub, ok := asObject(el)
	if !ok {
		d.logger.Warn("skipping non-object sub-event", logging.EventType(events.TypeScrollDepth))
		return
	}

	rec := &records.ScrollEvent{
		Timestamp:     parent.timestamp,
		SessionID:     parent.sessionID,
		UserID:        parent.userID,
		TrackingID:    parent.trackingID,
		PageURL:       parent.url,
		EventType:     events.TypeScrollDepth,
		DepthPercent:  events.IntPtr(sub, "depth"),
		ScrollTop:     events.IntPtr(sub, "scrollTop"),
		ScrollPercent: events.IntPtr(sub, "scrollPercent"),
	}

	if err := d.sink.InsertScrollEvent(ctx, rec); err != nil {
		d.logger.Error("failed to insert batched scroll event", logging.Err(err))
		metrics.InsertErrors.WithLabelValues("scroll_events").Inc()
		return
	}
	metrics.BatchSubEvents.WithLabelValues("scroll").Inc()
}

func (d *Dispatcher) unpackForm(ctx context.Context, el any, parent batchContext) {
	sub, ok := asObject(el)
	if !ok {
		d.logger.Warn("skipping non-object sub-event", logging.EventType(events.TypeFormInput))
		return
	}

	eventType := events.StringOr(sub, events.TypeFormInput, "type", "event_type")
	rec := &records.FormEvent{
		Timestamp:  parent.timestamp,
		SessionID:  parent.sessionID,
		UserID:     parent.userID,
		TrackingID: parent.trackingID,
		PageURL:    parent.url,
		EventType:  eventType,
		FormID:     events.StringOr(sub, "", "form_id", "formId"),
		FormName:   "default_form",
	}

	if err := d.sink.InsertFormEvent(ctx, rec); err != nil {
		d.logger.Error("failed to insert batched form event",
			logging.EventType(eventType), logging.Err(err))
		metrics.InsertErrors.WithLabelValues("form_events").Inc()
		return
	}
	metrics.BatchSubEvents.WithLabelValues("form").Inc()
}
