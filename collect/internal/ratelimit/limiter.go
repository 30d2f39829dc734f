// Package ratelimit implements a fixed-window request limiter backed by a
// shared counter store, keyed by client IP.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/pagepulse/pagepulse-stack/common/redisstore"
)

const keyPrefix = "rate_limit:"

// Limiter decides whether a client may submit another request in the
// current window.
type Limiter interface {
	// Allow reports whether the client identified by clientIP is within
	// its request budget. A store failure counts as a denial.
	Allow(ctx context.Context, clientIP string) (bool, error)
}

// FixedWindow counts requests per client in coarse windows. The counter
// key expires when the window elapses, resetting the budget.
type FixedWindow struct {
	store       redisstore.CounterStore
	maxRequests int64
	window      time.Duration
}

// NewFixedWindow returns a limiter allowing maxRequests per window per
// client.
func NewFixedWindow(store redisstore.CounterStore, maxRequests int, window time.Duration) *FixedWindow {
	return &FixedWindow{
		store:       store,
		maxRequests: int64(maxRequests),
		window:      window,
	}
}

// Allow increments the client's window counter and compares it against
// the budget. When the counter store is unreachable the request is
// denied rather than admitted unmetered.
func (l *FixedWindow) Allow(ctx context.Context, clientIP string) (bool, error) {
	count, err := l.store.Increment(ctx, keyPrefix+clientIP, l.window)
	if err != nil {
		return false, fmt.Errorf("incrementing rate limit counter: %w", err)
	}
	return count <= l.maxRequests, nil
}

// NoOp admits every request. Used when rate limiting is disabled.
type NoOp struct{}

// Allow always reports true.
func (NoOp) Allow(ctx context.Context, clientIP string) (bool, error) {
	return true, nil
}
