package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagepulse/pagepulse-stack/collect/internal/ratelimit"
	"github.com/pagepulse/pagepulse-stack/common/events"
)

type fakePublisher struct {
	published []publishedMsg
	err       error
	failOn    map[string]error
}

type publishedMsg struct {
	subject string
	data    []byte
}

func (p *fakePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	if err, ok := p.failOn[subject]; ok {
		return err
	}
	p.published = append(p.published, publishedMsg{subject: subject, data: data})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeLimiter struct {
	allowed bool
	err     error
}

func (l *fakeLimiter) Allow(ctx context.Context, clientIP string) (bool, error) {
	return l.allowed, l.err
}

type fakeAuthorizer struct {
	authorized bool
	checked    []string
}

func (a *fakeAuthorizer) IsAuthorized(ctx context.Context, trackingID string) bool {
	a.checked = append(a.checked, trackingID)
	return a.authorized
}

func newTestService(pub *fakePublisher, limiter *fakeLimiter, auth *fakeAuthorizer) *Service {
	return New(limiter, auth, pub, slog.Default())
}

func TestIngest_SingleObject(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub, &fakeLimiter{allowed: true}, &fakeAuthorizer{authorized: true})

	body := []byte(`{"type":"page_load","session_id":"s1","tracking_id":"t1","url":"https://x/"}`)
	summary, err := svc.Ingest(context.Background(), body, "203.0.113.5")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 0, summary.Skipped)

	require.Len(t, pub.published, 1)
	assert.Equal(t, "events.page_load", pub.published[0].subject)

	var env events.Envelope
	require.NoError(t, json.Unmarshal(pub.published[0].data, &env))
	assert.Equal(t, "page_load", env.EventType)
	assert.Equal(t, "203.0.113.5", env.ClientIP)
	assert.Equal(t, "t1", env.Data["tracking_id"])
}

func TestIngest_ArrayWithOneUnknownType(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub, &fakeLimiter{allowed: true}, &fakeAuthorizer{authorized: true})

	body := []byte(`[
		{"type":"page_load","tracking_id":"t1"},
		{"type":"not_a_real_event","tracking_id":"t1"},
		{"type":"link_click","tracking_id":"t1"}
	]`)
	summary, err := svc.Ingest(context.Background(), body, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Len(t, pub.published, 2)
}

func TestIngest_RateLimited(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub, &fakeLimiter{allowed: false}, &fakeAuthorizer{authorized: true})

	_, err := svc.Ingest(context.Background(), []byte(`{"type":"page_load"}`), "10.0.0.1")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Empty(t, pub.published, "no items are processed after a rate limit rejection")
}

func TestIngest_LimiterErrorRejects(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub, &fakeLimiter{allowed: true, err: errors.New("store down")}, &fakeAuthorizer{authorized: true})

	_, err := svc.Ingest(context.Background(), []byte(`{"type":"page_load"}`), "10.0.0.1")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Empty(t, pub.published)
}

func TestIngest_Unauthorized(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub, &fakeLimiter{allowed: true}, &fakeAuthorizer{authorized: false})

	body := []byte(`[{"type":"page_load","tracking_id":"rogue"},{"type":"link_click","tracking_id":"rogue"}]`)
	_, err := svc.Ingest(context.Background(), body, "10.0.0.1")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, pub.published, "the whole batch is rejected")
}

func TestIngest_OneAuthCheckPerBatch(t *testing.T) {
	pub := &fakePublisher{}
	auth := &fakeAuthorizer{authorized: true}
	svc := newTestService(pub, &fakeLimiter{allowed: true}, auth)

	body := []byte(`[
		{"type":"page_load","tracking_id":"first"},
		{"type":"link_click","tracking_id":"second"},
		{"type":"form_submit","tracking_id":"third"}
	]`)
	_, err := svc.Ingest(context.Background(), body, "10.0.0.1")
	require.NoError(t, err)

	require.Len(t, auth.checked, 1, "exactly one authorization check per batch")
	assert.Equal(t, "first", auth.checked[0], "the first item's tracking id gates the batch")
}

func TestIngest_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json at all"},
		{"bare string", `"hello"`},
		{"bare number", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			svc := newTestService(pub, &fakeLimiter{allowed: true}, &fakeAuthorizer{authorized: true})

			_, err := svc.Ingest(context.Background(), []byte(tt.body), "10.0.0.1")
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestIngest_NonObjectElementsSkipped(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub, &fakeLimiter{allowed: true}, &fakeAuthorizer{authorized: true})

	body := `[{"type":"page_load","tracking_id":"t1"},42]`
	summary, err := svc.Ingest(context.Background(), []byte(body), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 1, Skipped: 1}, summary)
	require.Len(t, pub.published, 1)
	assert.Equal(t, "events.page_load", pub.published[0].subject)
}

func TestIngest_OnlyNonObjectElements(t *testing.T) {
	pub := &fakePublisher{}
	auth := &fakeAuthorizer{authorized: true}
	svc := newTestService(pub, &fakeLimiter{allowed: true}, auth)

	summary, err := svc.Ingest(context.Background(), []byte(`[1,2,3]`), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, Summary{Skipped: 3}, summary)
	assert.Empty(t, pub.published)
	assert.Empty(t, auth.checked, "no authorization check when nothing decodes")
}

func TestIngest_EmptyArray(t *testing.T) {
	pub := &fakePublisher{}
	auth := &fakeAuthorizer{authorized: true}
	svc := newTestService(pub, &fakeLimiter{allowed: true}, auth)

	summary, err := svc.Ingest(context.Background(), []byte(`[]`), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
	assert.Empty(t, auth.checked, "no authorization check for an empty batch")
}

func TestIngest_PublishFailureSkipsItem(t *testing.T) {
	pub := &fakePublisher{failOn: map[string]error{
		"events.link_click": errors.New("bus unavailable"),
	}}
	svc := newTestService(pub, &fakeLimiter{allowed: true}, &fakeAuthorizer{authorized: true})

	body := []byte(`[{"type":"page_load","tracking_id":"t1"},{"type":"link_click","tracking_id":"t1"}]`)
	summary, err := svc.Ingest(context.Background(), body, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
}

func TestIngest_VideoAliasSubject(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(pub, &fakeLimiter{allowed: true}, &fakeAuthorizer{authorized: true})

	body := []byte(`{"type":"progress_50","tracking_id":"t1","video_id":"v9"}`)
	summary, err := svc.Ingest(context.Background(), body, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	require.Len(t, pub.published, 1)
	assert.Equal(t, "events.video_events", pub.published[0].subject)
}

func TestIngest_NoOpLimiterIntegration(t *testing.T) {
	pub := &fakePublisher{}
	svc := New(ratelimit.NoOp{}, &fakeAuthorizer{authorized: true}, pub, slog.Default())

	summary, err := svc.Ingest(context.Background(), []byte(`{"type":"page_view"}`), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
}
