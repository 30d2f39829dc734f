// Package registry maintains the set of tracking ids authorized to
// submit analytics events.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pagepulse/pagepulse-stack/common/events"
	"github.com/pagepulse/pagepulse-stack/common/redisstore"
)

// SetKey is the shared-store key holding all registered tracking ids.
const SetKey = "registered_tracking_ids"

// ErrStoreDisabled is returned by management operations when the service
// runs without a backing set store.
var ErrStoreDisabled = errors.New("tracking id store is disabled")

// Registry answers authorization checks and manages tracking id
// registrations.
type Registry struct {
	store          redisstore.SetStore
	enabled        bool
	allowAnonymous bool
	logger         *slog.Logger
}

// New returns a registry over the given set store. When enabled is
// false every authorization check passes.
func New(store redisstore.SetStore, enabled, allowAnonymous bool, logger *slog.Logger) *Registry {
	return &Registry{
		store:          store,
		enabled:        enabled,
		allowAnonymous: allowAnonymous,
		logger:         logger,
	}
}

// IsAuthorized reports whether the given tracking id may submit events.
// Missing or anonymous ids are governed by the allow-anonymous policy.
// When the store is unreachable the check passes so that a registry
// outage does not halt ingestion.
func (r *Registry) IsAuthorized(ctx context.Context, trackingID string) bool {
	if !r.enabled {
		return true
	}
	if trackingID == "" || trackingID == events.AnonymousTrackingID {
		return r.allowAnonymous
	}
	registered, err := r.store.Contains(ctx, SetKey, trackingID)
	if err != nil {
		r.logger.Warn("tracking id registry unavailable, allowing request",
			"tracking_id", trackingID, "error", err)
		return true
	}
	return registered
}

// Register adds a tracking id to the registry.
func (r *Registry) Register(ctx context.Context, trackingID string) error {
	if r.store == nil {
		return ErrStoreDisabled
	}
	if err := r.store.Add(ctx, SetKey, trackingID); err != nil {
		return fmt.Errorf("registering tracking id: %w", err)
	}
	return nil
}

// RegisterBulk adds every given id in a single store call and returns
// the number of ids submitted.
func (r *Registry) RegisterBulk(ctx context.Context, trackingIDs []string) (int, error) {
	if len(trackingIDs) == 0 {
		return 0, nil
	}
	if r.store == nil {
		return 0, ErrStoreDisabled
	}
	if err := r.store.Add(ctx, SetKey, trackingIDs...); err != nil {
		return 0, fmt.Errorf("registering tracking ids: %w", err)
	}
	return len(trackingIDs), nil
}

// Unregister removes a tracking id from the registry.
func (r *Registry) Unregister(ctx context.Context, trackingID string) error {
	if r.store == nil {
		return ErrStoreDisabled
	}
	if err := r.store.Remove(ctx, SetKey, trackingID); err != nil {
		return fmt.Errorf("unregistering tracking id: %w", err)
	}
	return nil
}

// List returns all registered tracking ids.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	if r.store == nil {
		return nil, ErrStoreDisabled
	}
	ids, err := r.store.Members(ctx, SetKey)
	if err != nil {
		return nil, fmt.Errorf("listing tracking ids: %w", err)
	}
	return ids, nil
}

// Count returns the number of registered tracking ids.
func (r *Registry) Count(ctx context.Context) (int64, error) {
	if r.store == nil {
		return 0, ErrStoreDisabled
	}
	n, err := r.store.Size(ctx, SetKey)
	if err != nil {
		return 0, fmt.Errorf("counting tracking ids: %w", err)
	}
	return n, nil
}

// IsRegistered reports strict set membership, with no policy applied.
// Unlike IsAuthorized it surfaces store errors to the caller.
func (r *Registry) IsRegistered(ctx context.Context, trackingID string) (bool, error) {
	if r.store == nil {
		return false, ErrStoreDisabled
	}
	registered, err := r.store.Contains(ctx, SetKey, trackingID)
	if err != nil {
		return false, fmt.Errorf("checking tracking id: %w", err)
	}
	return registered, nil
}
