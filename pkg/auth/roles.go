package auth

import "sort"

// Role represents the single role an account holds. Roles are assigned by the
// authentication layer and are immutable for the lifetime of a request.
type Role string

const (
	RoleAthlete  Role = "ATHLETE"
	RoleCoach    Role = "COACH"
	RoleGymOwner Role = "GYM_OWNER"
	RoleAdmin    Role = "ADMIN"
)

// Roles returns all roles known to the system.
func Roles() []Role {
	return []Role{RoleAthlete, RoleCoach, RoleGymOwner, RoleAdmin}
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAthlete, RoleCoach, RoleGymOwner, RoleAdmin:
		return true
	}
	return false
}

// Permission is an opaque token of the form resource:action:scope. The scope
// suffix (own | any | linked) determines whether resource-level resolution is
// required on top of the role gate.
type Permission string

const (
	PermProfileReadAny      Permission = "profile:read:any"
	PermProfileUpdateOwn    Permission = "profile:update:own"
	PermProfileUpdateLinked Permission = "profile:update:linked"
	PermProfileDeleteOwn    Permission = "profile:delete:own"

	PermClubReadAny       Permission = "club:read:any"
	PermClubUpdateOwn     Permission = "club:update:own"
	PermClubMembersManage Permission = "club:members:manage"
	PermClubOwnerAssign   Permission = "club:owner:assign"

	PermAvailabilityReadOwn      Permission = "availability:read:own"
	PermAvailabilityReadLinked   Permission = "availability:read:linked"
	PermAvailabilityUpdateOwn    Permission = "availability:update:own"
	PermAvailabilityUpdateLinked Permission = "availability:update:linked"

	PermMatchRequestCreate     Permission = "match:request:create"
	PermMatchRequestRespond    Permission = "match:request:respond"
	PermMatchRequestReadOwn    Permission = "match:request:read:own"
	PermMatchRequestReadLinked Permission = "match:request:read:linked"

	PermConnectionRequestCreate  Permission = "connection:request:create"
	PermConnectionRequestRespond Permission = "connection:request:respond"
	PermConnectionReadOwn        Permission = "connection:read:own"
)

// allPermissions is the full token universe. New tokens must be added here;
// the ADMIN entry in the matrix is derived from this slice so the two can
// never drift apart.
var allPermissions = []Permission{
	PermProfileReadAny,
	PermProfileUpdateOwn,
	PermProfileUpdateLinked,
	PermProfileDeleteOwn,
	PermClubReadAny,
	PermClubUpdateOwn,
	PermClubMembersManage,
	PermClubOwnerAssign,
	PermAvailabilityReadOwn,
	PermAvailabilityReadLinked,
	PermAvailabilityUpdateOwn,
	PermAvailabilityUpdateLinked,
	PermMatchRequestCreate,
	PermMatchRequestRespond,
	PermMatchRequestReadOwn,
	PermMatchRequestReadLinked,
	PermConnectionRequestCreate,
	PermConnectionRequestRespond,
	PermConnectionReadOwn,
}

// AllPermissions returns a fresh copy of the full permission universe.
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

// rolePermissions is the static role-permission matrix. It is built once at
// package init and never mutated afterwards, so unsynchronized concurrent
// reads are safe. The matrix is total: every role has an entry.
var rolePermissions = buildMatrix()

func buildMatrix() map[Role]map[Permission]struct{} {
	grants := map[Role][]Permission{
		RoleAthlete: {
			PermProfileReadAny,
			PermProfileUpdateOwn,
			PermProfileDeleteOwn,
			PermClubReadAny,
			PermAvailabilityReadOwn,
			PermAvailabilityUpdateOwn,
			PermMatchRequestCreate,
			PermMatchRequestRespond,
			PermMatchRequestReadOwn,
			PermConnectionRequestCreate,
			PermConnectionRequestRespond,
			PermConnectionReadOwn,
		},
		RoleCoach: {
			PermProfileReadAny,
			PermProfileUpdateLinked,
			PermClubReadAny,
			PermAvailabilityReadLinked,
			PermAvailabilityUpdateLinked,
			PermMatchRequestReadLinked,
			PermConnectionRequestCreate,
			PermConnectionRequestRespond,
			PermConnectionReadOwn,
		},
		RoleGymOwner: {
			PermProfileReadAny,
			PermProfileUpdateLinked,
			PermClubReadAny,
			PermClubUpdateOwn,
			PermClubMembersManage,
			PermAvailabilityReadLinked,
			PermAvailabilityUpdateLinked,
			PermMatchRequestReadLinked,
			PermConnectionRequestCreate,
			PermConnectionRequestRespond,
			PermConnectionReadOwn,
		},
		// ADMIN gets the entire universe by construction.
		RoleAdmin: allPermissions,
	}

	matrix := make(map[Role]map[Permission]struct{}, len(grants))
	for _, role := range Roles() {
		set := make(map[Permission]struct{}, len(grants[role]))
		for _, p := range grants[role] {
			set[p] = struct{}{}
		}
		matrix[role] = set
	}
	return matrix
}

// RoleHasPermission reports whether the role's static grant set contains the
// permission. This is the role gate only; resource-level checks are the
// evaluator's job.
func RoleHasPermission(role Role, perm Permission) bool {
	set, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// RoleHasAny reports whether the role holds at least one of the permissions.
func RoleHasAny(role Role, perms []Permission) bool {
	for _, p := range perms {
		if RoleHasPermission(role, p) {
			return true
		}
	}
	return false
}

// RoleHasAll reports whether the role holds every one of the permissions.
func RoleHasAll(role Role, perms []Permission) bool {
	for _, p := range perms {
		if !RoleHasPermission(role, p) {
			return false
		}
	}
	return true
}

// PermissionsFor returns a fresh, sorted copy of the role's grant set.
// Callers may mutate the returned slice freely.
func PermissionsFor(role Role) []Permission {
	set, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]Permission, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
