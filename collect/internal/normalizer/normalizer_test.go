package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagepulse/pagepulse-stack/common/events"
)

var testNow = time.Date(2025, 6, 15, 12, 30, 0, 0, time.UTC)

func TestEventType(t *testing.T) {
	tests := []struct {
		name string
		item map[string]any
		want string
	}{
		{"event_type field", map[string]any{"event_type": "page_load"}, "page_load"},
		{"type field", map[string]any{"type": "link_click"}, "link_click"},
		{"event_type wins over type", map[string]any{"event_type": "page_load", "type": "link_click"}, "page_load"},
		{"neither present", map[string]any{"url": "https://x/"}, "unknown"},
		{"empty string", map[string]any{"type": ""}, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EventType(tt.item))
		})
	}
}

func TestTrackingID(t *testing.T) {
	tests := []struct {
		name string
		item map[string]any
		want string
	}{
		{"top level", map[string]any{"tracking_id": "t1"}, "t1"},
		{"nested snake case", map[string]any{"data": map[string]any{"tracking_id": "t2"}}, "t2"},
		{"nested camel case", map[string]any{"data": map[string]any{"trackingId": "t3"}}, "t3"},
		{"top level wins over nested", map[string]any{
			"tracking_id": "top",
			"data":        map[string]any{"tracking_id": "nested"},
		}, "top"},
		{"snake wins over camel", map[string]any{
			"data": map[string]any{"tracking_id": "snake", "trackingId": "camel"},
		}, "snake"},
		{"absent defaults to anonymous", map[string]any{"type": "page_load"}, "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrackingID(tt.item))
		})
	}
}

func TestNormalize_FlatItem(t *testing.T) {
	item := map[string]any{
		"type":        "page_load",
		"session_id":  "s1",
		"tracking_id": "t1",
		"url":         "https://x/",
	}

	res := Normalize(item, "203.0.113.5", testNow)
	require.False(t, res.Dropped)
	require.NotNil(t, res.Envelope)

	env := res.Envelope
	assert.Equal(t, "page_load", env.EventType)
	assert.Equal(t, "t1", env.TrackingID)
	assert.Equal(t, "203.0.113.5", env.ClientIP)
	assert.Equal(t, "page_load", res.Topic)
	assert.Equal(t, testNow.Format(time.RFC3339Nano), env.Timestamp)

	assert.Equal(t, "t1", env.Data["tracking_id"])
	assert.Equal(t, "s1", env.Data["session_id"])
	assert.Equal(t, "https://x/", env.Data["url"])

	// Reserved metadata names never migrate into data.
	assert.NotContains(t, env.Data, "type")
	assert.NotContains(t, env.Data, "event_type")
	assert.NotContains(t, env.Data, "ts")
	assert.NotContains(t, env.Data, "timestamp")
}

func TestNormalize_NestedData(t *testing.T) {
	item := map[string]any{
		"event_type": "link_click",
		"data": map[string]any{
			"href": "https://x/about",
			"text": "About",
		},
	}

	res := Normalize(item, "10.0.0.1", testNow)
	require.False(t, res.Dropped)

	// A nested data sub-object is used unmodified.
	assert.Equal(t, map[string]any{"href": "https://x/about", "text": "About"}, res.Envelope.Data)
	assert.Equal(t, "link_click", res.Topic)
}

func TestNormalize_AnonymousNotInjected(t *testing.T) {
	item := map[string]any{"type": "page_view", "url": "https://x/"}

	res := Normalize(item, "10.0.0.1", testNow)
	require.False(t, res.Dropped)
	assert.Equal(t, events.AnonymousTrackingID, res.Envelope.TrackingID)
	assert.NotContains(t, res.Envelope.Data, "tracking_id",
		"anonymous sentinel must not be injected into data")
}

func TestNormalize_ExistingDataTrackingIDKept(t *testing.T) {
	item := map[string]any{
		"type":        "page_view",
		"tracking_id": "top",
		"other":       "v",
	}

	res := Normalize(item, "10.0.0.1", testNow)
	require.False(t, res.Dropped)
	assert.Equal(t, "top", res.Envelope.Data["tracking_id"])
}

func TestNormalize_DropsUnknownType(t *testing.T) {
	tests := []struct {
		name string
		item map[string]any
	}{
		{"unrecognized type", map[string]any{"type": "made_up_event"}},
		{"missing type", map[string]any{"url": "https://x/"}},
		{"literal unknown", map[string]any{"type": "unknown"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Normalize(tt.item, "10.0.0.1", testNow)
			assert.True(t, res.Dropped)
			assert.Equal(t, "unknown_event_type", res.Reason)
			assert.Nil(t, res.Envelope)
		})
	}
}

func TestNormalize_VideoAliasRouting(t *testing.T) {
	aliases := []string{
		"play", "pause", "complete",
		"progress_25", "progress_50", "progress_75",
		"video_play", "video_pause", "video_complete",
	}

	for _, alias := range aliases {
		t.Run(alias, func(t *testing.T) {
			res := Normalize(map[string]any{"type": alias}, "10.0.0.1", testNow)
			require.False(t, res.Dropped)
			assert.Equal(t, events.TopicVideoEvents, res.Topic)
			assert.Equal(t, alias, res.Envelope.EventType,
				"the alias is preserved as the event type")
		})
	}
}

func TestNormalize_MetadataPassThrough(t *testing.T) {
	item := map[string]any{
		"type":     "custom_event",
		"metadata": map[string]any{"sdk_version": "2.1.0"},
		"data":     map[string]any{"name": "signup"},
	}

	res := Normalize(item, "10.0.0.1", testNow)
	require.False(t, res.Dropped)
	assert.Equal(t, map[string]any{"sdk_version": "2.1.0"}, res.Envelope.Metadata)
}
