package dispatcher

import (
	"context"

	"github.com/pagepulse/pagepulse-stack/common/events"
	"github.com/pagepulse/pagepulse-stack/common/logging"
	"github.com/pagepulse/pagepulse-stack/common/messaging"
	"github.com/pagepulse/pagepulse-stack/consume/internal/metrics"
	"github.com/pagepulse/pagepulse-stack/consume/internal/records"
)

// HandleFormEvent maps form topics into form_events rows.
func (d *Dispatcher) HandleFormEvent(ctx context.Context, msg *messaging.Message) error {
	env, ok := d.parseEnvelope(msg)
	if !ok {
		metrics.MessagesFailed.WithLabelValues(messaging.ConsumerFormEvents).Inc()
		return nil
	}
	metrics.MessagesConsumed.WithLabelValues(messaging.ConsumerFormEvents).Inc()

	data := env.Data
	rec := &records.FormEvent{
		Timestamp:     d.recordTime(env),
		SessionID:     events.StringOr(data, "", "session_id"),
		UserID:        events.StringOr(data, "", "user_id"),
		TrackingID:    ownerID(env),
		PageURL:       events.PageURL(data),
		EventType:     env.EventType,
		FormID:        events.StringOr(data, "", "form_id"),
		FormName:      events.StringOr(data, "default_form", "form_name"),
		FormAction:    events.StringPtr(data, "form_action"),
		FormMethod:    events.StringPtr(data, "form_method"),
		FieldName:     events.StringPtr(data, "field_name"),
		FieldType:     events.StringPtr(data, "field_type"),
		FieldCount:    events.IntPtr(data, "field_count"),
		ValueLength:   events.IntPtr(data, "value_length"),
		HasFileUpload: events.BoolPtr(data, "has_file_upload"),
		Success:       events.BoolPtr(data, "success"),
	}

	if err := d.sink.InsertFormEvent(ctx, rec); err != nil {
		return d.fail(messaging.ConsumerFormEvents, "failed to insert form event",
			logging.EventType(env.EventType), logging.Err(err))
	}
	return nil
}
