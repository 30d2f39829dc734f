// Package events defines the canonical analytics event envelope shared by the
// collect and consume services, along with the known event type set and the
// topic routing rules.
package events

import "time"

// AnonymousTrackingID is the sentinel used when a payload carries no tracking id.
const AnonymousTrackingID = "anonymous"

// Envelope is the canonical, normalized representation of one inbound event.
// It is the unit published to the message bus and consumed by the dispatcher.
type Envelope struct {
	// Timestamp is the ingestion-time instant in RFC 3339 format (UTC).
	Timestamp string `json:"timestamp"`

	// EventType is one of the known event types (see KnownTypes).
	EventType string `json:"event_type"`

	// TrackingID is the logical owner of the event, or the anonymous
	// sentinel when the payload carried none.
	TrackingID string `json:"tracking_id"`

	// ClientIP is the resolved client address at ingestion.
	ClientIP string `json:"client_ip"`

	// Data holds the event-specific fields.
	Data map[string]any `json:"data"`

	// Metadata is an optional pass-through mapping copied from the input.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ParseTimestamp returns the envelope timestamp as a time, falling back to
// the current time when the field is absent or unparseable.
func (e *Envelope) ParseTimestamp() time.Time {
	if ts, ok := ParseTime(e.Timestamp); ok {
		return ts
	}
	return time.Now().UTC()
}

// ParseTime parses an RFC 3339 timestamp string.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}

// Event type constants for the types the dispatcher handles by name.
const (
	TypePageLoad    = "page_load"
	TypePageView    = "page_view"
	TypePageHidden  = "page_hidden"
	TypePageVisible = "page_visible"
	TypePageUnload  = "page_unload"

	TypeLinkClick    = "link_click"
	TypeButtonClick  = "button_click"
	TypeMouseClick   = "mouse_click"
	TypeMouseMove    = "mouse_move"
	TypeScrollDepth  = "scroll_depth"
	TypeFileDownload = "file_download"

	TypeFormSubmit = "form_submit"
	TypeFormFocus  = "form_focus"
	TypeFormInput  = "form_input"

	TypeProductView  = "product_view"
	TypeCartAdd      = "cart_add"
	TypeCartRemove   = "cart_remove"
	TypePurchase     = "purchase"
	TypeCheckoutStep = "checkout_step"

	TypeVideoPlay = "video_play"

	TypePeriodicEvents = "periodic_events"
	TypeCustomEvent    = "custom_event"
)

// TopicVideoEvents is the single topic all video event aliases collapse into.
const TopicVideoEvents = "video_events"

// KnownTypes is the set of event types accepted by the normalizer.
// Anything outside this set is dropped, never published.
var KnownTypes = map[string]struct{}{
	TypePageLoad:    {},
	TypePageView:    {},
	TypePageHidden:  {},
	TypePageVisible: {},
	TypePageUnload:  {},

	TypeLinkClick:    {},
	TypeButtonClick:  {},
	TypeMouseClick:   {},
	TypeMouseMove:    {},
	TypeScrollDepth:  {},
	TypeFileDownload: {},

	TypeFormSubmit: {},
	TypeFormFocus:  {},
	TypeFormInput:  {},

	TypeProductView:  {},
	TypeCartAdd:      {},
	TypeCartRemove:   {},
	TypePurchase:     {},
	TypeCheckoutStep: {},

	TopicVideoEvents:   {},
	TypePeriodicEvents: {},
	TypeCustomEvent:    {},

	// Video event types sent by the tracker; routed to the video_events topic.
	"play":           {},
	"pause":          {},
	"complete":       {},
	"progress_25":    {},
	"progress_50":    {},
	"progress_75":    {},
	TypeVideoPlay:    {},
	"video_pause":    {},
	"video_complete": {},
}

// videoAliases maps tracker-side video event types onto the video_events topic.
var videoAliases = map[string]struct{}{
	"play":           {},
	"pause":          {},
	"complete":       {},
	"progress_25":    {},
	"progress_50":    {},
	"progress_75":    {},
	TypeVideoPlay:    {},
	"video_pause":    {},
	"video_complete": {},
}

// MetadataFields are the reserved top-level field names that never migrate
// into an envelope's data mapping.
var MetadataFields = map[string]struct{}{
	"type":       {},
	"event_type": {},
	"ts":         {},
	"timestamp":  {},
}

// IsKnownType reports whether t is an accepted event type.
func IsKnownType(t string) bool {
	_, ok := KnownTypes[t]
	return ok
}

// Topic resolves the message bus topic for an event type. Video aliases
// collapse into video_events; every other known type maps to a topic of the
// same name.
func Topic(eventType string) string {
	if _, ok := videoAliases[eventType]; ok {
		return TopicVideoEvents
	}
	return eventType
}
