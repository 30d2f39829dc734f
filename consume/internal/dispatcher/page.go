package dispatcher

import (
	"context"

	"github.com/pagepulse/pagepulse-stack/common/events"
	"github.com/pagepulse/pagepulse-stack/common/logging"
	"github.com/pagepulse/pagepulse-stack/common/messaging"
	"github.com/pagepulse/pagepulse-stack/consume/internal/metrics"
	"github.com/pagepulse/pagepulse-stack/consume/internal/records"
)

// HandlePageEvent maps page topics into page_events rows. A page_load
// additionally appends a session row; the two inserts are independent and
// a session failure does not undo the page event.
func (d *Dispatcher) HandlePageEvent(ctx context.Context, msg *messaging.Message) error {
	env, ok := d.parseEnvelope(msg)
	if !ok {
		metrics.MessagesFailed.WithLabelValues(messaging.ConsumerPageEvents).Inc()
		return nil
	}
	metrics.MessagesConsumed.WithLabelValues(messaging.ConsumerPageEvents).Inc()

	data := env.Data
	rec := &records.PageEvent{
		Timestamp:  d.recordTime(env),
		SessionID:  events.StringOr(data, "", "session_id"),
		UserID:     events.StringOr(data, "", "user_id"),
		TrackingID: ownerID(env),
		EventType:  env.EventType,
		PageURL:    events.PageURL(data),
		PageTitle:  events.StringOr(data, "", "title"),
		Referrer:   events.StringOr(data, "", "referrer"),
	}

	if err := d.sink.InsertPageEvent(ctx, rec); err != nil {
		return d.fail(messaging.ConsumerPageEvents, "failed to insert page event",
			logging.EventType(env.EventType), logging.Err(err))
	}

	if env.EventType == events.TypePageLoad {
		d.insertSession(ctx, env)
	}
	return nil
}

// insertSession appends a session row derived from a page_load event.
// Missing device metadata falls back to documented defaults; pixel
// dimensions are clamped to the store's unsigned 16-bit columns.
func (d *Dispatcher) insertSession(ctx context.Context, env *events.Envelope) {
	data := env.Data
	sessionID := events.StringOr(data, "", "session_id")
	trackingID := ownerID(env)
	if sessionID == "" || trackingID == "" {
		d.logger.Warn("cannot create session without session_id or tracking_id",
			logging.TrackingID(trackingID))
		return
	}

	userID := events.StringOr(data, "", "user_id")
	if userID == "" {
		userID = "guest"
	}

	rec := &records.Session{
		SessionID:       sessionID,
		UserID:          userID,
		TrackingID:      trackingID,
		StartTime:       d.recordTime(env),
		DeviceType:      stringOrDefault(data, "Unknown", "device_type", "deviceType"),
		OperatingSystem: stringOrDefault(data, "Unknown", "operating_system", "os"),
		Browser:         stringOrDefault(data, "Unknown", "browser"),
		ScreenWidth:     clampedDimension(data, "screen_width", "screenWidth"),
		ScreenHeight:    clampedDimension(data, "screen_height", "screenHeight"),
		ViewportWidth:   clampedDimension(data, "viewport_width", "viewportWidth"),
		ViewportHeight:  clampedDimension(data, "viewport_height", "viewportHeight"),
		Language:        stringOrDefault(data, "en", "language"),
		Timezone:        stringOrDefault(data, "UTC", "timezone"),
		Referrer:        events.StringOr(data, "", "referrer"),
		EntryPage:       events.PageURL(data),
		PageViews:       1,
	}

	if err := d.sink.InsertSession(ctx, rec); err != nil {
		d.logger.Error("failed to insert session",
			logging.SessionID(sessionID), logging.TrackingID(trackingID), logging.Err(err))
		metrics.InsertErrors.WithLabelValues("sessions").Inc()
	}
}

func stringOrDefault(data map[string]any, def string, keys ...string) string {
	if v, ok := events.GetString(data, keys...); ok && v != "" {
		return v
	}
	return def
}

func clampedDimension(data map[string]any, keys ...string) int {
	v, _ := events.GetInt(data, keys...)
	return events.ClampUint16(v)
}
