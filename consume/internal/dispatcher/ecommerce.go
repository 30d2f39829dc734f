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

// HandleEcommerceEvent maps commerce topics into ecommerce_events rows.
// Unlike the other groups it requires a tracking id in the payload:
// commerce rows without an owner are useless for revenue attribution.
func (d *Dispatcher) HandleEcommerceEvent(ctx context.Context, msg *messaging.Message) error {
	env, ok := d.parseEnvelope(msg)
	if !ok {
		metrics.MessagesFailed.WithLabelValues(messaging.ConsumerEcommerceEvents).Inc()
		return nil
	}

	data := env.Data
	trackingID := ownerID(env)
	if trackingID == "" {
		return d.fail(messaging.ConsumerEcommerceEvents, "ecommerce event missing tracking_id",
			logging.EventType(env.EventType))
	}
	metrics.MessagesConsumed.WithLabelValues(messaging.ConsumerEcommerceEvents).Inc()

	var quantity *int
	if q, ok := events.GetInt(data, "quantity"); ok {
		if q < 0 {
			q = 0
		}
		quantity = &q
	}
	var step *int
	if s, ok := events.GetInt(data, "step"); ok {
		v := events.ClampInt(s, 0, 255)
		step = &v
	}

	currency := events.StringOr(data, "USD", "currency")

	rec := &records.EcommerceEvent{
		Timestamp:   d.recordTime(env).Truncate(time.Second),
		SessionID:   events.StringPtr(data, "session_id"),
		UserID:      events.StringPtr(data, "user_id"),
		TrackingID:  trackingID,
		PageURL:     events.StringPtr(data, "page_url", "url"),
		EventType:   env.EventType,
		ProductID:   events.StringPtr(data, "product_id"),
		ProductName: events.StringPtr(data, "product_name"),
		Price:       events.FloatPtr(data, "price"),
		Quantity:    quantity,
		Category:    events.StringPtr(data, "category"),
		Currency:    currency,
		OrderID:     events.StringPtr(data, "order_id"),
		Total:       events.FloatPtr(data, "total"),
		Step:        step,
		StepName:    events.StringPtr(data, "step_name"),
	}

	if err := d.sink.InsertEcommerceEvent(ctx, rec); err != nil {
		return d.fail(messaging.ConsumerEcommerceEvents, "failed to insert ecommerce event",
			logging.EventType(env.EventType), logging.TrackingID(trackingID), logging.Err(err))
	}
	return nil
}
