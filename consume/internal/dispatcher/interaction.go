package dispatcher

import (
	"context"

	"github.com/pagepulse/pagepulse-stack/common/events"
	"github.com/pagepulse/pagepulse-stack/common/logging"
	"github.com/pagepulse/pagepulse-stack/common/messaging"
	"github.com/pagepulse/pagepulse-stack/consume/internal/metrics"
	"github.com/pagepulse/pagepulse-stack/consume/internal/records"
)

// HandleInteractionEvent maps click and download topics into
// interaction_events rows.
func (d *Dispatcher) HandleInteractionEvent(ctx context.Context, msg *messaging.Message) error {
	env, ok := d.parseEnvelope(msg)
	if !ok {
		metrics.MessagesFailed.WithLabelValues(messaging.ConsumerInteractionEvents).Inc()
		return nil
	}
	metrics.MessagesConsumed.WithLabelValues(messaging.ConsumerInteractionEvents).Inc()

	data := env.Data
	rec := &records.InteractionEvent{
		Timestamp:    d.recordTime(env),
		SessionID:    events.StringOr(data, "", "session_id"),
		UserID:       events.StringOr(data, "", "user_id"),
		TrackingID:   ownerID(env),
		EventType:    env.EventType,
		PageURL:      events.PageURL(data),
		X:            events.IntPtr(data, "x"),
		Y:            events.IntPtr(data, "y"),
		Element:      events.StringOr(data, "", "element"),
		ElementID:    events.StringPtr(data, "element_id"),
		ElementClass: events.StringPtr(data, "element_class"),
		ButtonText:   events.StringPtr(data, "button_text"),
		ButtonType:   events.StringPtr(data, "button_type"),
		LinkURL:      events.StringPtr(data, "link_url"),
		LinkText:     events.StringPtr(data, "link_text"),
		FileName:     events.StringPtr(data, "file_name"),
		IsExternal:   events.BoolPtr(data, "is_external"),
		Target:       events.StringPtr(data, "target"),
	}

	if err := d.sink.InsertInteractionEvent(ctx, rec); err != nil {
		return d.fail(messaging.ConsumerInteractionEvents, "failed to insert interaction event",
			logging.EventType(env.EventType), logging.Err(err))
	}
	return nil
}

// HandleMouseEvent maps mouse_move messages into mouse_events rows.
func (d *Dispatcher) HandleMouseEvent(ctx context.Context, msg *messaging.Message) error {
	env, ok := d.parseEnvelope(msg)
	if !ok {
		metrics.MessagesFailed.WithLabelValues(messaging.ConsumerMouseEvents).Inc()
		return nil
	}
	metrics.MessagesConsumed.WithLabelValues(messaging.ConsumerMouseEvents).Inc()

	data := env.Data
	x, _ := events.GetInt(data, "x")
	y, _ := events.GetInt(data, "y")
	rec := &records.MouseEvent{
		Timestamp:  d.recordTime(env),
		SessionID:  events.StringOr(data, "", "session_id"),
		UserID:     events.StringOr(data, "", "user_id"),
		TrackingID: ownerID(env),
		PageURL:    events.PageURL(data),
		X:          x,
		Y:          y,
	}

	if err := d.sink.InsertMouseEvent(ctx, rec); err != nil {
		return d.fail(messaging.ConsumerMouseEvents, "failed to insert mouse event", logging.Err(err))
	}
	return nil
}
