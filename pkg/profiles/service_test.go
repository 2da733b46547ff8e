package profiles

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringsidehq/ringside/pkg/auth"
	"github.com/ringsidehq/ringside/pkg/authz"
	"github.com/ringsidehq/ringside/pkg/cache"
	"github.com/ringsidehq/ringside/pkg/errdefs"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, cache.Cache) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mem, err := cache.NewMemory(128)
	require.NoError(t, err)

	return NewService(db, authz.NewInvalidator(mem, nil)), mock, mem
}

func TestAssignClub_UpdatesAndInvalidates(t *testing.T) {
	svc, mock, mem := newTestService(t)
	ctx := context.Background()

	// Pre-seed a cached membership decision for the profile; the mutation
	// must evict it.
	require.NoError(t, mem.Set(ctx, "authz:club-member:1:10", "0", 0))

	mock.ExpectExec("UPDATE profiles SET club_id").
		WithArgs(sqlmock.AnyArg(), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.AssignClub(ctx, 10, 5))

	_, ok, _ := mem.Get(ctx, "authz:club-member:1:10")
	assert.False(t, ok, "stale membership decision must be evicted")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignClub_MissingProfile(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectExec("UPDATE profiles SET club_id").
		WithArgs(sqlmock.AnyArg(), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.AssignClub(context.Background(), 99, 5)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestTransferOwner_InvalidatesStaleOwnership(t *testing.T) {
	svc, mock, mem := newTestService(t)
	ctx := context.Background()

	// The old owner's cached positive decision must not outlive the
	// transfer.
	require.NoError(t, mem.Set(ctx, "authz:profile-owner:1:10", "1", 0))

	mock.ExpectExec("UPDATE profiles SET owner_id").
		WithArgs(int64(2), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.TransferOwner(ctx, 10, 2))

	_, ok, _ := mem.Get(ctx, "authz:profile-owner:1:10")
	assert.False(t, ok, "old owner's cached decision must be evicted")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferOwner_MissingProfile(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectExec("UPDATE profiles SET owner_id").
		WithArgs(int64(2), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.TransferOwner(context.Background(), 99, 2)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestSetClubOwner_RequiresGymOwnerRole(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.SetClubOwner(context.Background(), 5, auth.Actor{ID: 1, Role: auth.RoleAthlete})
	assert.True(t, errdefs.IsInvalid(err))
}

func TestSetClubOwner_UpdatesAndInvalidatesClub(t *testing.T) {
	svc, mock, mem := newTestService(t)
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, "authz:club-owner:1:5", "1", 0))
	require.NoError(t, mem.Set(ctx, "authz:club-owner:1:6", "1", 0))

	mock.ExpectExec("UPDATE clubs SET owner_id").
		WithArgs(int64(2), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.SetClubOwner(ctx, 5, auth.Actor{ID: 2, Role: auth.RoleGymOwner}))

	_, ok, _ := mem.Get(ctx, "authz:club-owner:1:5")
	assert.False(t, ok)
	// Other clubs keep their entries.
	_, ok, _ = mem.Get(ctx, "authz:club-owner:1:6")
	assert.True(t, ok)
}

func TestUpsertCoachLink_InvalidatesCoach(t *testing.T) {
	svc, mock, mem := newTestService(t)
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, "authz:coach-link:3:10:view", "0", 0))

	mock.ExpectExec("INSERT INTO coach_links").
		WithArgs(int64(3), int64(10), string(auth.ScopeManage)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, svc.UpsertCoachLink(ctx, 3, 10, auth.ScopeManage))

	_, ok, _ := mem.Get(ctx, "authz:coach-link:3:10:view")
	assert.False(t, ok, "rescoping must evict prior link decisions")
}

func TestUpsertCoachLink_RejectsUnknownScope(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.UpsertCoachLink(context.Background(), 3, 10, auth.LinkScope("owner"))
	assert.True(t, errdefs.IsInvalid(err))
}

func TestRemoveCoachLink(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectExec("DELETE FROM coach_links").
		WithArgs(int64(3), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.RemoveCoachLink(context.Background(), 3, 10))
}

func TestRemoveCoachLink_MissingIsNotFound(t *testing.T) {
	svc, mock, _ := newTestService(t)

	mock.ExpectExec("DELETE FROM coach_links").
		WithArgs(int64(3), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.RemoveCoachLink(context.Background(), 3, 10)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestGet_MapsNullClub(t *testing.T) {
	svc, mock, _ := newTestService(t)

	rows := sqlmock.NewRows([]string{
		"id", "owner_id", "club_id", "weight_kg", "fight_count",
		"accepting_matches", "created_at", "updated_at",
	}).AddRow(int64(10), int64(1), nil, 70.5, 3, true, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, owner_id, club_id").
		WithArgs(int64(10)).
		WillReturnRows(rows)

	p, err := svc.Get(context.Background(), 10)
	require.NoError(t, err)
	assert.Nil(t, p.ClubID)
	assert.Equal(t, 70.5, p.WeightKg)
}
