package logging

import "log/slog"

// Common field names for consistent logging across services.
const (
	FieldService    = "service"
	FieldTrackingID = "tracking_id"
	FieldSessionID  = "session_id"
	FieldEventType  = "event_type"
	FieldTopic      = "topic"
	FieldClientIP   = "client_ip"
	FieldError      = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// TrackingID returns a slog attribute for the tracking identifier.
func TrackingID(id string) slog.Attr {
	return slog.String(FieldTrackingID, id)
}

// SessionID returns a slog attribute for the session identifier.
func SessionID(id string) slog.Attr {
	return slog.String(FieldSessionID, id)
}

// EventType returns a slog attribute for the event type.
func EventType(t string) slog.Attr {
	return slog.String(FieldEventType, t)
}

// Topic returns a slog attribute for the message bus topic.
func Topic(t string) slog.Attr {
	return slog.String(FieldTopic, t)
}

// ClientIP returns a slog attribute for the client address.
func ClientIP(ip string) slog.Attr {
	return slog.String(FieldClientIP, ip)
}

// Err returns a slog attribute for an error value.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(FieldError, "")
	}
	return slog.String(FieldError, err.Error())
}
