package matches

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ringsidehq/ringside/pkg/errdefs"
	"github.com/ringsidehq/ringside/pkg/observability"
)

// Service implements the match request state machine. Callers identify
// themselves by profile ID; identity-to-profile ownership is the permission
// evaluator's problem, state transitions are re-validated here regardless.
type Service struct {
	db      *sql.DB
	rules   CompatibilityRules
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewService creates a match service. A zero ttl falls back to
// DefaultRequestTTL; metrics may be nil.
func NewService(db *sql.DB, rules CompatibilityRules, ttl time.Duration, metrics *observability.Metrics) *Service {
	if ttl <= 0 {
		ttl = DefaultRequestTTL
	}
	return &Service{db: db, rules: rules, ttl: ttl, metrics: metrics}
}

// Create proposes a match from requester to target. It rejects
// self-targeting, a target that is not accepting requests, incompatible
// profiles, and a pending request in either direction. The request expires
// after the configured horizon.
func (s *Service) Create(ctx context.Context, requesterProfileID, targetProfileID int64) (*MatchRequest, error) {
	if requesterProfileID == targetProfileID {
		return nil, errdefs.Invalidf("cannot request a match against your own profile")
	}

	requester, err := s.profileFacts(ctx, requesterProfileID)
	if err != nil {
		return nil, err
	}
	target, err := s.profileFacts(ctx, targetProfileID)
	if err != nil {
		return nil, err
	}

	if !target.AcceptingMatches {
		return nil, errdefs.Invalidf("profile %d is not accepting match requests", targetProfileID)
	}
	if !s.rules.Compatible(requester, target) {
		return nil, errdefs.Invalidf(
			"profiles %d and %d are outside the compatibility bounds (max weight delta %.1f kg, max fight-count delta %d)",
			requesterProfileID, targetProfileID, s.rules.MaxWeightDeltaKg, s.rules.MaxFightCountDelta,
		)
	}

	pending, err := s.pendingExistsEitherDirection(ctx, requesterProfileID, targetProfileID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, errdefs.Conflictf("a pending match request already exists between profiles %d and %d", requesterProfileID, targetProfileID)
	}

	request := &MatchRequest{
		RequesterProfileID: requesterProfileID,
		TargetProfileID:    targetProfileID,
		Status:             StatusPending,
		ExpiresAt:          time.Now().Add(s.ttl),
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO match_requests (requester_profile_id, target_profile_id, status, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, requesterProfileID, targetProfileID, StatusPending, request.ExpiresAt).
		Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create match request: %w", err)
	}

	s.countTransition(StatusPending)
	return request, nil
}

// Accept marks the request ACCEPTED. Only the target profile may accept. A
// request past its deadline expires instead of being accepted.
func (s *Service) Accept(ctx context.Context, requestID, actorProfileID int64) error {
	return s.transition(ctx, requestID, actorProfileID, StatusAccepted)
}

// Decline marks the request DECLINED. Only the target profile may decline. A
// request past its deadline expires instead of being declined.
func (s *Service) Decline(ctx context.Context, requestID, actorProfileID int64) error {
	return s.transition(ctx, requestID, actorProfileID, StatusDeclined)
}

// Cancel marks the request CANCELLED. Only the requester profile may cancel.
func (s *Service) Cancel(ctx context.Context, requestID, actorProfileID int64) error {
	return s.transition(ctx, requestID, actorProfileID, StatusCancelled)
}

// transition is the shared single-request state change. Accept/decline
// enforce the deadline lazily: a PENDING request found past its expiry is
// moved to EXPIRED and the caller gets an expiry conflict instead of the
// transition they asked for.
func (s *Service) transition(ctx context.Context, requestID, actorProfileID int64, to Status) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var request MatchRequest
	err = tx.QueryRowContext(ctx, `
		SELECT id, requester_profile_id, target_profile_id, status, expires_at
		FROM match_requests
		WHERE id = $1
		FOR UPDATE
	`, requestID).Scan(
		&request.ID, &request.RequesterProfileID, &request.TargetProfileID,
		&request.Status, &request.ExpiresAt,
	)
	if err == sql.ErrNoRows {
		return errdefs.NotFoundf("match request %d", requestID)
	}
	if err != nil {
		return fmt.Errorf("failed to load match request: %w", err)
	}

	if to == StatusCancelled {
		if request.RequesterProfileID != actorProfileID {
			return errdefs.PermissionDeniedf("only the requesting profile may cancel")
		}
	} else if request.TargetProfileID != actorProfileID {
		return errdefs.PermissionDeniedf("only the target profile may %s", verbFor(to))
	}

	if request.Status != StatusPending {
		return errdefs.Conflictf("match request is %s, not PENDING", request.Status)
	}

	if to != StatusCancelled && request.Expired(time.Now()) {
		if err := s.mark(ctx, tx, requestID, StatusExpired); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit expiry: %w", err)
		}
		s.countTransition(StatusExpired)
		return errdefs.Conflictf("match request %d has expired", requestID)
	}

	if err := s.mark(ctx, tx, requestID, to); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}

	s.countTransition(to)
	return nil
}

func (s *Service) mark(ctx context.Context, tx *sql.Tx, requestID int64, to Status) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE match_requests SET status = $1, updated_at = NOW() WHERE id = $2
	`, to, requestID); err != nil {
		return fmt.Errorf("failed to mark match request %s: %w", to, err)
	}
	return nil
}

// Get loads a match request by ID.
func (s *Service) Get(ctx context.Context, requestID int64) (*MatchRequest, error) {
	var request MatchRequest
	err := s.db.QueryRowContext(ctx, `
		SELECT id, requester_profile_id, target_profile_id, status, expires_at, created_at, updated_at
		FROM match_requests WHERE id = $1
	`, requestID).Scan(
		&request.ID, &request.RequesterProfileID, &request.TargetProfileID,
		&request.Status, &request.ExpiresAt, &request.CreatedAt, &request.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errdefs.NotFoundf("match request %d", requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load match request: %w", err)
	}
	return &request, nil
}

// CountAcceptedForProfile counts ACCEPTED match requests the profile is on
// either side of. Downstream record recalculation reads this.
func (s *Service) CountAcceptedForProfile(ctx context.Context, profileID int64) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM match_requests
		WHERE status = $1 AND (requester_profile_id = $2 OR target_profile_id = $2)
	`, StatusAccepted, profileID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count accepted match requests: %w", err)
	}
	return count, nil
}

func (s *Service) profileFacts(ctx context.Context, profileID int64) (ProfileFacts, error) {
	var facts ProfileFacts
	err := s.db.QueryRowContext(ctx, `
		SELECT id, weight_kg, fight_count, accepting_matches FROM profiles WHERE id = $1
	`, profileID).Scan(&facts.ID, &facts.WeightKg, &facts.FightCount, &facts.AcceptingMatches)
	if err == sql.ErrNoRows {
		return ProfileFacts{}, errdefs.NotFoundf("profile %d", profileID)
	}
	if err != nil {
		return ProfileFacts{}, fmt.Errorf("failed to load profile %d: %w", profileID, err)
	}
	return facts, nil
}

func (s *Service) pendingExistsEitherDirection(ctx context.Context, a, b int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM match_requests
			WHERE status = $1
			  AND ((requester_profile_id = $2 AND target_profile_id = $3)
			    OR (requester_profile_id = $3 AND target_profile_id = $2))
		)
	`, StatusPending, a, b).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending match requests: %w", err)
	}
	return exists, nil
}

func (s *Service) countTransition(to Status) {
	if s.metrics != nil {
		s.metrics.MatchTransitionsTotal.WithLabelValues(string(to)).Inc()
	}
}

func verbFor(to Status) string {
	switch to {
	case StatusAccepted:
		return "accept"
	case StatusDeclined:
		return "decline"
	default:
		return "resolve"
	}
}
