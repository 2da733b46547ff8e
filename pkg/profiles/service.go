package profiles

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ringsidehq/ringside/pkg/auth"
	"github.com/ringsidehq/ringside/pkg/authz"
	"github.com/ringsidehq/ringside/pkg/errdefs"
)

// Profile is an athlete profile, the unit the matching rules and most
// ownership checks operate on.
type Profile struct {
	ID               int64     `json:"id"`
	OwnerID          int64     `json:"owner_id"`
	ClubID           *int64    `json:"club_id,omitempty"`
	WeightKg         float64   `json:"weight_kg"`
	FightCount       int       `json:"fight_count"`
	AcceptingMatches bool      `json:"accepting_matches"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Service mutates the facts the authorization resolvers read: club ownership,
// club membership, and coach links. Every mutation evicts the matching cache
// entries in the same logical operation; a write that skips invalidation
// leaves a stale permission live for up to the resolver TTL.
type Service struct {
	db          *sql.DB
	invalidator *authz.Invalidator
}

// NewService creates a profile service bound to the shared authorization
// invalidator.
func NewService(db *sql.DB, invalidator *authz.Invalidator) *Service {
	return &Service{db: db, invalidator: invalidator}
}

// Get loads a profile by ID.
func (s *Service) Get(ctx context.Context, profileID int64) (*Profile, error) {
	var p Profile
	var clubID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, club_id, weight_kg, fight_count, accepting_matches, created_at, updated_at
		FROM profiles WHERE id = $1
	`, profileID).Scan(
		&p.ID, &p.OwnerID, &clubID, &p.WeightKg, &p.FightCount,
		&p.AcceptingMatches, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errdefs.NotFoundf("profile %d", profileID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if clubID.Valid {
		p.ClubID = &clubID.Int64
	}
	return &p, nil
}

// AssignClub sets the profile's club membership and evicts cached decisions
// keyed by the profile.
func (s *Service) AssignClub(ctx context.Context, profileID, clubID int64) error {
	return s.setClub(ctx, profileID, sql.NullInt64{Int64: clubID, Valid: true})
}

// ClearClub removes the profile from its club.
func (s *Service) ClearClub(ctx context.Context, profileID int64) error {
	return s.setClub(ctx, profileID, sql.NullInt64{})
}

func (s *Service) setClub(ctx context.Context, profileID int64, clubID sql.NullInt64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET club_id = $1, updated_at = NOW() WHERE id = $2
	`, clubID, profileID)
	if err != nil {
		return fmt.Errorf("failed to update profile club: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return errdefs.NotFoundf("profile %d", profileID)
	}
	return s.invalidator.InvalidateProfile(ctx, profileID)
}

// TransferOwner moves the profile to a new owning identity and evicts every
// cached decision keyed by the profile, so the old owner's access dies with
// the transfer instead of lingering for the resolver TTL.
func (s *Service) TransferOwner(ctx context.Context, profileID, newOwnerID int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET owner_id = $1, updated_at = NOW() WHERE id = $2
	`, newOwnerID, profileID)
	if err != nil {
		return fmt.Errorf("failed to transfer profile owner: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return errdefs.NotFoundf("profile %d", profileID)
	}
	return s.invalidator.InvalidateProfile(ctx, profileID)
}

// SetClubOwner assigns club ownership to the given identity. Only identities
// holding the GYM_OWNER role may own a club; the caller's own authority to
// assign (admin-only) is the evaluator's concern.
func (s *Service) SetClubOwner(ctx context.Context, clubID int64, owner auth.Actor) error {
	if owner.Role != auth.RoleGymOwner {
		return errdefs.Invalidf("club owner must hold the %s role, identity %d holds %s", auth.RoleGymOwner, owner.ID, owner.Role)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE clubs SET owner_id = $1, updated_at = NOW() WHERE id = $2
	`, owner.ID, clubID)
	if err != nil {
		return fmt.Errorf("failed to update club owner: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return errdefs.NotFoundf("club %d", clubID)
	}
	return s.invalidator.InvalidateClub(ctx, clubID)
}

// UpsertCoachLink creates or rescopes the link between a coach and a profile
// and evicts the coach's cached decisions.
func (s *Service) UpsertCoachLink(ctx context.Context, coachID, profileID int64, scope auth.LinkScope) error {
	if !scope.Valid() {
		return errdefs.Invalidf("unknown link scope %q", scope)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO coach_links (coach_id, profile_id, scope)
		VALUES ($1, $2, $3)
		ON CONFLICT (coach_id, profile_id) DO UPDATE SET scope = $3, updated_at = NOW()
	`, coachID, profileID, scope)
	if err != nil {
		return fmt.Errorf("failed to upsert coach link: %w", err)
	}
	return s.invalidator.InvalidateIdentity(ctx, coachID)
}

// RemoveCoachLink deletes the coach-profile link and evicts the coach's
// cached decisions.
func (s *Service) RemoveCoachLink(ctx context.Context, coachID, profileID int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM coach_links WHERE coach_id = $1 AND profile_id = $2
	`, coachID, profileID)
	if err != nil {
		return fmt.Errorf("failed to remove coach link: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return errdefs.NotFoundf("coach link %d -> %d", coachID, profileID)
	}
	return s.invalidator.InvalidateIdentity(ctx, coachID)
}

// SetAcceptingMatches toggles whether the profile accepts match requests.
// This is matching eligibility, not an authorization fact; no cache eviction.
func (s *Service) SetAcceptingMatches(ctx context.Context, profileID int64, accepting bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE profiles SET accepting_matches = $1, updated_at = NOW() WHERE id = $2
	`, accepting, profileID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return errdefs.NotFoundf("profile %d", profileID)
	}
	return nil
}
