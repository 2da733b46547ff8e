package authz

import (
	"context"
	"fmt"

	"github.com/ringsidehq/ringside/pkg/cache"
	"github.com/ringsidehq/ringside/pkg/observability"
)

// Invalidator evicts memoized authorization decisions. Invalidation is
// caller-triggered: any mutation that changes club ownership, coach-link
// scope, or profile-to-club assignment must call the matching function in
// the same logical operation. Forgetting to do so leaves a stale permission
// for up to the resolver TTL.
type Invalidator struct {
	cache   cache.Cache
	metrics *observability.Metrics
}

// NewInvalidator creates an invalidator over the shared authorization cache.
func NewInvalidator(c cache.Cache, metrics *observability.Metrics) *Invalidator {
	if c == nil {
		c = cache.Noop{}
	}
	return &Invalidator{cache: c, metrics: metrics}
}

// InvalidateIdentity evicts every cached decision keyed by the identity:
// profile ownership, club ownership, club membership, and coach links where
// the identity is the coach.
func (i *Invalidator) InvalidateIdentity(ctx context.Context, identityID int64) error {
	i.count("identity")
	if err := i.cache.DeletePattern(ctx, identityPatterns(identityID)...); err != nil {
		return fmt.Errorf("failed to invalidate identity %d: %w", identityID, err)
	}
	return nil
}

// InvalidateProfile evicts every cached decision keyed by the profile:
// ownership, club membership, and coach links targeting it.
func (i *Invalidator) InvalidateProfile(ctx context.Context, profileID int64) error {
	i.count("profile")
	if err := i.cache.DeletePattern(ctx, profilePatterns(profileID)...); err != nil {
		return fmt.Errorf("failed to invalidate profile %d: %w", profileID, err)
	}
	return nil
}

// InvalidateClub evicts cached club-ownership decisions for the club.
func (i *Invalidator) InvalidateClub(ctx context.Context, clubID int64) error {
	i.count("club")
	if err := i.cache.DeletePattern(ctx, clubPatterns(clubID)...); err != nil {
		return fmt.Errorf("failed to invalidate club %d: %w", clubID, err)
	}
	return nil
}

// InvalidateAll evicts the entire authorization cache namespace. Expensive;
// reserved for rare corrective operations such as backfills.
func (i *Invalidator) InvalidateAll(ctx context.Context) error {
	i.count("all")
	if err := i.cache.DeletePattern(ctx, allPattern); err != nil {
		return fmt.Errorf("failed to invalidate authorization cache: %w", err)
	}
	return nil
}

func (i *Invalidator) count(scope string) {
	if i.metrics != nil {
		i.metrics.CacheInvalidationsTotal.WithLabelValues(scope).Inc()
	}
}
