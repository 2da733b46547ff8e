package authz

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ringsidehq/ringside/pkg/auth"
	"github.com/ringsidehq/ringside/pkg/cache"
	"github.com/ringsidehq/ringside/pkg/observability"
)

// DefaultResolverTTL is how long a resolved ownership boolean stays cached.
// A stale-but-recent boolean is an accepted, time-bounded inconsistency.
const DefaultResolverTTL = 5 * time.Minute

// Resolvers answers the resource-gate questions the evaluator asks. Each
// resolver computes a deterministic cache key, consults the cache, and on a
// miss performs exactly one relational read. A cache failure of any kind
// degrades to a miss; absence of an underlying row is a definitive false,
// never an error.
type Resolvers struct {
	db      *sql.DB
	cache   cache.Cache
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewResolvers creates the resolver set. cache may be cache.Noop{} to run
// with caching disabled; metrics may be nil.
func NewResolvers(db *sql.DB, c cache.Cache, ttl time.Duration, metrics *observability.Metrics) *Resolvers {
	if c == nil {
		c = cache.Noop{}
	}
	if ttl <= 0 {
		ttl = DefaultResolverTTL
	}
	return &Resolvers{db: db, cache: c, ttl: ttl, metrics: metrics}
}

// IsProfileOwner reports whether the identity owns the athlete profile.
func (r *Resolvers) IsProfileOwner(ctx context.Context, identityID, profileID int64) (bool, error) {
	return r.cachedLookup(ctx, keyFamilyProfileOwner, profileOwnerKey(identityID, profileID), func() (bool, error) {
		var owned bool
		err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM profiles WHERE id = $1 AND owner_id = $2)`,
			profileID, identityID,
		).Scan(&owned)
		if err != nil {
			return false, fmt.Errorf("failed to resolve profile ownership: %w", err)
		}
		return owned, nil
	})
}

// IsClubOwner reports whether the identity owns the club.
func (r *Resolvers) IsClubOwner(ctx context.Context, identityID, clubID int64) (bool, error) {
	return r.cachedLookup(ctx, keyFamilyClubOwner, clubOwnerKey(identityID, clubID), func() (bool, error) {
		var owned bool
		err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM clubs WHERE id = $1 AND owner_id = $2)`,
			clubID, identityID,
		).Scan(&owned)
		if err != nil {
			return false, fmt.Errorf("failed to resolve club ownership: %w", err)
		}
		return owned, nil
	})
}

// IsProfileInClubOwnedBy reports whether the profile belongs to a club owned
// by the identity.
func (r *Resolvers) IsProfileInClubOwnedBy(ctx context.Context, identityID, profileID int64) (bool, error) {
	return r.cachedLookup(ctx, keyFamilyClubMember, clubMemberKey(identityID, profileID), func() (bool, error) {
		var member bool
		err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(
				SELECT 1 FROM profiles p
				JOIN clubs c ON p.club_id = c.id
				WHERE p.id = $1 AND c.owner_id = $2
			)`,
			profileID, identityID,
		).Scan(&member)
		if err != nil {
			return false, fmt.Errorf("failed to resolve club membership: %w", err)
		}
		return member, nil
	})
}

// CoachHasLinkPermission reports whether the coach holds a link to the
// profile whose scope satisfies the required scope. The "full" wildcard
// satisfies any requested scope. No link row means false.
func (r *Resolvers) CoachHasLinkPermission(ctx context.Context, coachID, profileID int64, required auth.LinkScope) (bool, error) {
	return r.cachedLookup(ctx, keyFamilyCoachLink, coachLinkKey(coachID, profileID, required), func() (bool, error) {
		var scope string
		err := r.db.QueryRowContext(ctx,
			`SELECT scope FROM coach_links WHERE coach_id = $1 AND profile_id = $2`,
			coachID, profileID,
		).Scan(&scope)
		if err == sql.ErrNoRows {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to resolve coach link: %w", err)
		}
		return auth.LinkScope(scope).Satisfies(required), nil
	})
}

// AvailabilityOwnerProfile resolves the profile that owns an availability
// row. Request-scoped, looked up directly rather than cached.
func (r *Resolvers) AvailabilityOwnerProfile(ctx context.Context, availabilityID int64) (int64, bool, error) {
	var profileID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT profile_id FROM availabilities WHERE id = $1`,
		availabilityID,
	).Scan(&profileID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve availability owner: %w", err)
	}
	return profileID, true, nil
}

// MatchRequestProfiles resolves the two profiles a match request is between.
// Request-scoped, looked up directly rather than cached.
func (r *Resolvers) MatchRequestProfiles(ctx context.Context, matchRequestID int64) (requesterProfile, targetProfile int64, found bool, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT requester_profile_id, target_profile_id FROM match_requests WHERE id = $1`,
		matchRequestID,
	).Scan(&requesterProfile, &targetProfile)
	if err == sql.ErrNoRows {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to resolve match request profiles: %w", err)
	}
	return requesterProfile, targetProfile, true, nil
}

// cachedLookup is the shared cache-or-store path: a cache hit returns the
// memoized boolean; otherwise lookup runs, and the result is written back
// best-effort. Cache errors on either side degrade to the store path.
func (r *Resolvers) cachedLookup(ctx context.Context, family, key string, lookup func() (bool, error)) (bool, error) {
	if val, ok, err := r.cache.Get(ctx, key); err == nil && ok {
		r.countCache(family, true)
		return val == "1", nil
	}
	r.countCache(family, false)

	result, err := lookup()
	if err != nil {
		return false, err
	}

	val := "0"
	if result {
		val = "1"
	}
	// Best effort: a failed write just means the next call misses too.
	_ = r.cache.Set(ctx, key, val, r.ttl)

	return result, nil
}

func (r *Resolvers) countCache(family string, hit bool) {
	if r.metrics == nil {
		return
	}
	if hit {
		r.metrics.CacheHitsTotal.WithLabelValues(family).Inc()
		r.metrics.AuthzResolverCalls.WithLabelValues(family, "cache").Inc()
	} else {
		r.metrics.CacheMissesTotal.WithLabelValues(family).Inc()
		r.metrics.AuthzResolverCalls.WithLabelValues(family, "store").Inc()
	}
}
