package matches

import (
	"math"
	"time"
)

// Status is the lifecycle state of a match request. PENDING is the only state
// with outgoing transitions; the other four are terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusDeclined  Status = "DECLINED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// DefaultRequestTTL is how long a match request stays answerable. Requests
// older than this expire, lazily on accept/decline or in bulk by the sweeper.
const DefaultRequestTTL = 7 * 24 * time.Hour

// MatchRequest is a directed bout proposal between two athlete profiles.
// Accepted requests are not materialized into a separate symmetric entity;
// downstream systems consume the ACCEPTED rows directly.
type MatchRequest struct {
	ID                 int64     `json:"id"`
	RequesterProfileID int64     `json:"requester_profile_id"`
	TargetProfileID    int64     `json:"target_profile_id"`
	Status             Status    `json:"status"`
	ExpiresAt          time.Time `json:"expires_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Expired reports whether the request's deadline has passed at the given
// instant.
func (r MatchRequest) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// CompatibilityRules bound how far apart two profiles may be for a match
// request to be created. Both bounds are inclusive: a delta exactly at the
// maximum is allowed.
type CompatibilityRules struct {
	MaxWeightDeltaKg   float64
	MaxFightCountDelta int
}

// DefaultCompatibilityRules are the platform defaults.
var DefaultCompatibilityRules = CompatibilityRules{
	MaxWeightDeltaKg:   5.0,
	MaxFightCountDelta: 10,
}

// Compatible reports whether two profiles fall within the weight and
// experience bounds.
func (c CompatibilityRules) Compatible(a, b ProfileFacts) bool {
	if math.Abs(a.WeightKg-b.WeightKg) > c.MaxWeightDeltaKg {
		return false
	}
	delta := a.FightCount - b.FightCount
	if delta < 0 {
		delta = -delta
	}
	return delta <= c.MaxFightCountDelta
}

// ProfileFacts is the slice of a profile the matching rules read.
type ProfileFacts struct {
	ID               int64
	WeightKg         float64
	FightCount       int
	AcceptingMatches bool
}
