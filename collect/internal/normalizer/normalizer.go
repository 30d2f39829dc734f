// Package normalizer reconciles the inbound payload shapes sent by the
// tracker into the canonical event envelope and resolves topic routing.
package normalizer

import (
	"time"

	"github.com/pagepulse/pagepulse-stack/common/events"
)

// Result is the outcome of normalizing one raw item. A dropped item has
// Dropped set and carries the reason; otherwise Envelope and Topic are
// populated.
type Result struct {
	Envelope *events.Envelope
	Topic    string
	Dropped  bool
	Reason   string
}

// EventType extracts the event type from a raw item, checking the two
// field spellings the tracker uses. Returns "unknown" when neither is
// present.
func EventType(item map[string]any) string {
	if t, ok := events.GetString(item, "event_type", "type"); ok && t != "" {
		return t
	}
	return "unknown"
}

// TrackingID extracts the tracking id from a raw item: top-level first,
// then the two spellings used inside the data sub-object. Returns the
// anonymous sentinel when none is found.
func TrackingID(item map[string]any) string {
	if id, ok := events.GetString(item, "tracking_id"); ok && id != "" {
		return id
	}
	if data, ok := events.GetMap(item, "data"); ok {
		if id, ok := events.GetString(data, "tracking_id", "trackingId"); ok && id != "" {
			return id
		}
	}
	return events.AnonymousTrackingID
}

// Normalize converts one raw item into a canonical envelope routed to a
// topic. Items with an unknown event type are dropped. The envelope
// timestamp is stamped with now; inbound timestamps are not trusted here.
func Normalize(item map[string]any, clientIP string, now time.Time) Result {
	eventType := EventType(item)
	if eventType == "unknown" || !events.IsKnownType(eventType) {
		return Result{Dropped: true, Reason: "unknown_event_type"}
	}

	trackingID := TrackingID(item)

	var data map[string]any
	if nested, ok := events.GetMap(item, "data"); ok {
		data = nested
	} else {
		data = make(map[string]any, len(item))
		for k, v := range item {
			if _, reserved := events.MetadataFields[k]; reserved {
				continue
			}
			data[k] = v
		}
		if trackingID != events.AnonymousTrackingID {
			if _, exists := data["tracking_id"]; !exists {
				data["tracking_id"] = trackingID
			}
		}
	}

	env := &events.Envelope{
		Timestamp:  now.UTC().Format(time.RFC3339Nano),
		EventType:  eventType,
		TrackingID: trackingID,
		ClientIP:   clientIP,
		Data:       data,
	}
	if meta, ok := events.GetMap(item, "metadata"); ok {
		env.Metadata = meta
	}

	return Result{Envelope: env, Topic: events.Topic(eventType)}
}
