package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrixIsTotal(t *testing.T) {
	for _, role := range Roles() {
		_, ok := rolePermissions[role]
		assert.True(t, ok, "role %s has no matrix entry", role)
	}
}

func TestAdminHoldsFullUniverse(t *testing.T) {
	universe := AllPermissions()
	adminPerms := PermissionsFor(RoleAdmin)
	require.Len(t, adminPerms, len(universe))

	for _, p := range universe {
		assert.True(t, RoleHasPermission(RoleAdmin, p), "admin missing %s", p)
	}
}

func TestRoleHasPermission(t *testing.T) {
	tests := []struct {
		name string
		role Role
		perm Permission
		want bool
	}{
		{"athlete updates own profile", RoleAthlete, PermProfileUpdateOwn, true},
		{"athlete cannot update linked profiles", RoleAthlete, PermProfileUpdateLinked, false},
		{"athlete cannot assign club owners", RoleAthlete, PermClubOwnerAssign, false},
		{"coach updates linked profiles", RoleCoach, PermProfileUpdateLinked, true},
		{"coach cannot create match requests", RoleCoach, PermMatchRequestCreate, false},
		{"gym owner manages club members", RoleGymOwner, PermClubMembersManage, true},
		{"gym owner cannot assign club owners", RoleGymOwner, PermClubOwnerAssign, false},
		{"admin assigns club owners", RoleAdmin, PermClubOwnerAssign, true},
		{"unknown role is denied", Role("REFEREE"), PermProfileReadAny, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleHasPermission(tt.role, tt.perm))
		})
	}
}

func TestRoleHasAnyAndAll(t *testing.T) {
	perms := []Permission{PermProfileUpdateOwn, PermClubOwnerAssign}

	assert.True(t, RoleHasAny(RoleAthlete, perms))
	assert.False(t, RoleHasAll(RoleAthlete, perms))

	assert.True(t, RoleHasAll(RoleAdmin, perms))

	assert.False(t, RoleHasAny(RoleCoach, []Permission{PermClubOwnerAssign}))
	assert.True(t, RoleHasAll(RoleCoach, nil), "vacuous all should pass")
	assert.False(t, RoleHasAny(RoleCoach, nil), "vacuous any should fail")
}

func TestPermissionsForReturnsFreshCopy(t *testing.T) {
	first := PermissionsFor(RoleAthlete)
	require.NotEmpty(t, first)

	// Mutating the returned slice must not leak into the matrix.
	first[0] = Permission("mutated")

	second := PermissionsFor(RoleAthlete)
	assert.NotContains(t, second, Permission("mutated"))
}

func TestPermissionsForUnknownRole(t *testing.T) {
	assert.Nil(t, PermissionsFor(Role("REFEREE")))
}

func TestLinkScopeSatisfies(t *testing.T) {
	assert.True(t, ScopeFull.Satisfies(ScopeView))
	assert.True(t, ScopeFull.Satisfies(ScopeManage))
	assert.True(t, ScopeView.Satisfies(ScopeView))
	assert.False(t, ScopeView.Satisfies(ScopeManage))
	assert.False(t, ScopeSchedule.Satisfies(ScopeView))
}

func TestActorContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := ActorFromContext(ctx)
	assert.False(t, ok)

	actor := Actor{ID: 42, Role: RoleCoach}
	ctx = WithActor(ctx, actor)

	got, ok := ActorFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, actor, got)
	assert.False(t, got.IsAdmin())
	assert.True(t, Actor{ID: 1, Role: RoleAdmin}.IsAdmin())
}
