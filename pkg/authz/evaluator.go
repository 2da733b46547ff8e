package authz

import (
	"context"
	"fmt"

	"github.com/ringsidehq/ringside/pkg/auth"
	"github.com/ringsidehq/ringside/pkg/observability"
)

// ResourceKind discriminates which per-kind rule applies to a resource
// reference. The set is closed; evaluateResource dispatches exhaustively.
type ResourceKind string

const (
	KindProfile      ResourceKind = "profile"
	KindClub         ResourceKind = "club"
	KindAvailability ResourceKind = "availability"
	KindMatchRequest ResourceKind = "match_request"
)

// ResourceRef points the evaluator at a specific resource instance.
type ResourceRef struct {
	Kind ResourceKind `json:"kind"`
	ID   int64        `json:"id"`
}

// Decision is the outcome of an authorization check. Reason is
// human-readable and names what was missing on a deny.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Allowed: false, Reason: reason} }

// Evaluator combines the static role matrix (role gate) with the ownership
// resolvers (resource gate). It is the sole legitimate caller of the
// resolvers for authorization purposes.
type Evaluator struct {
	resolvers *Resolvers
	metrics   *observability.Metrics
}

// NewEvaluator creates an evaluator; metrics may be nil.
func NewEvaluator(resolvers *Resolvers, metrics *observability.Metrics) *Evaluator {
	return &Evaluator{resolvers: resolvers, metrics: metrics}
}

// Evaluate decides whether the actor may exercise the permission, optionally
// against a specific resource. The role gate runs first and on failure the
// resolvers are never invoked.
func (e *Evaluator) Evaluate(ctx context.Context, actor auth.Actor, perm auth.Permission, ref *ResourceRef) (Decision, error) {
	decision, err := e.evaluate(ctx, actor, perm, ref)
	if err == nil {
		e.countDecision(perm, decision.Allowed)
	}
	return decision, err
}

func (e *Evaluator) evaluate(ctx context.Context, actor auth.Actor, perm auth.Permission, ref *ResourceRef) (Decision, error) {
	if !auth.RoleHasPermission(actor.Role, perm) {
		return deny(fmt.Sprintf("role %s lacks permission %s", actor.Role, perm)), nil
	}

	if ref == nil {
		return allow("role gate passed"), nil
	}

	return e.evaluateResource(ctx, actor, perm, *ref)
}

// HasAnyPermission decides whether the actor may exercise at least one of
// the permissions. The role-level any-check runs before any resolver I/O and
// evaluation short-circuits on the first satisfying permission.
func (e *Evaluator) HasAnyPermission(ctx context.Context, actor auth.Actor, perms []auth.Permission, ref *ResourceRef) (Decision, error) {
	if !auth.RoleHasAny(actor.Role, perms) {
		return deny(fmt.Sprintf("role %s holds none of the required permissions", actor.Role)), nil
	}

	last := deny("no permission satisfied the resource gate")
	for _, perm := range perms {
		if !auth.RoleHasPermission(actor.Role, perm) {
			continue
		}
		decision, err := e.evaluate(ctx, actor, perm, ref)
		if err != nil {
			return Decision{}, err
		}
		if decision.Allowed {
			return decision, nil
		}
		last = decision
	}
	return last, nil
}

// HasAllPermissions decides whether the actor may exercise every one of the
// permissions. The role-level all-check runs before any resolver I/O and
// evaluation short-circuits on the first failing permission.
func (e *Evaluator) HasAllPermissions(ctx context.Context, actor auth.Actor, perms []auth.Permission, ref *ResourceRef) (Decision, error) {
	if !auth.RoleHasAll(actor.Role, perms) {
		return deny(fmt.Sprintf("role %s is missing at least one required permission", actor.Role)), nil
	}

	for _, perm := range perms {
		decision, err := e.evaluate(ctx, actor, perm, ref)
		if err != nil {
			return Decision{}, err
		}
		if !decision.Allowed {
			return decision, nil
		}
	}
	return allow("all permissions satisfied"), nil
}

// evaluateResource dispatches to the per-kind rule. An unrecognized kind
// falls back to the role gate result, which already passed: this fallback is
// intentional, load-bearing behavior inherited from the product's original
// semantics (flagged for product review, preserved until then).
func (e *Evaluator) evaluateResource(ctx context.Context, actor auth.Actor, perm auth.Permission, ref ResourceRef) (Decision, error) {
	switch ref.Kind {
	case KindProfile:
		return e.evaluateProfile(ctx, actor, perm, ref.ID)
	case KindClub:
		return e.evaluateClub(ctx, actor, perm, ref.ID)
	case KindAvailability:
		return e.evaluateAvailability(ctx, actor, perm, ref.ID)
	case KindMatchRequest:
		return e.evaluateMatchRequest(ctx, actor, perm, ref.ID)
	default:
		return allow(fmt.Sprintf("role gate passed; no resource rule for kind %q", ref.Kind)), nil
	}
}

func (e *Evaluator) evaluateProfile(ctx context.Context, actor auth.Actor, perm auth.Permission, profileID int64) (Decision, error) {
	switch perm {
	case auth.PermProfileReadAny:
		return allow("profiles are publicly readable"), nil

	case auth.PermProfileUpdateOwn, auth.PermProfileDeleteOwn:
		owner, err := e.resolvers.IsProfileOwner(ctx, actor.ID, profileID)
		if err != nil {
			return Decision{}, err
		}
		if owner {
			return allow("profile owner"), nil
		}
		return deny(fmt.Sprintf("identity %d does not own profile %d", actor.ID, profileID)), nil

	case auth.PermProfileUpdateLinked:
		if actor.IsAdmin() {
			return allow("admin"), nil
		}
		if actor.Role == auth.RoleCoach {
			linked, err := e.resolvers.CoachHasLinkPermission(ctx, actor.ID, profileID, auth.ScopeManage)
			if err != nil {
				return Decision{}, err
			}
			if linked {
				return allow("coach link with manage scope"), nil
			}
			return deny(fmt.Sprintf("coach %d has no manage-scope link to profile %d", actor.ID, profileID)), nil
		}
		inClub, err := e.resolvers.IsProfileInClubOwnedBy(ctx, actor.ID, profileID)
		if err != nil {
			return Decision{}, err
		}
		if inClub {
			return allow("profile is in a club owned by the actor"), nil
		}
		return deny(fmt.Sprintf("profile %d is not in a club owned by identity %d", profileID, actor.ID)), nil
	}

	if actor.IsAdmin() {
		return allow("admin"), nil
	}
	return deny(fmt.Sprintf("no profile rule grants %s", perm)), nil
}

func (e *Evaluator) evaluateClub(ctx context.Context, actor auth.Actor, perm auth.Permission, clubID int64) (Decision, error) {
	switch perm {
	case auth.PermClubReadAny:
		return allow("clubs are publicly readable"), nil

	case auth.PermClubUpdateOwn, auth.PermClubMembersManage:
		if actor.IsAdmin() {
			return allow("admin"), nil
		}
		owner, err := e.resolvers.IsClubOwner(ctx, actor.ID, clubID)
		if err != nil {
			return Decision{}, err
		}
		if owner {
			return allow("club owner"), nil
		}
		return deny(fmt.Sprintf("identity %d does not own club %d", actor.ID, clubID)), nil

	case auth.PermClubOwnerAssign:
		if actor.IsAdmin() {
			return allow("admin"), nil
		}
		return deny("only admins may assign club ownership"), nil
	}

	if actor.IsAdmin() {
		return allow("admin"), nil
	}
	return deny(fmt.Sprintf("no club rule grants %s", perm)), nil
}

func (e *Evaluator) evaluateAvailability(ctx context.Context, actor auth.Actor, perm auth.Permission, availabilityID int64) (Decision, error) {
	profileID, found, err := e.resolvers.AvailabilityOwnerProfile(ctx, availabilityID)
	if err != nil {
		return Decision{}, err
	}
	if !found {
		return deny(fmt.Sprintf("availability %d not found", availabilityID)), nil
	}

	if actor.IsAdmin() {
		return allow("admin"), nil
	}

	switch perm {
	case auth.PermAvailabilityReadOwn, auth.PermAvailabilityUpdateOwn:
		owner, err := e.resolvers.IsProfileOwner(ctx, actor.ID, profileID)
		if err != nil {
			return Decision{}, err
		}
		if owner {
			return allow("profile owner"), nil
		}
		return deny(fmt.Sprintf("identity %d does not own the profile behind availability %d", actor.ID, availabilityID)), nil

	case auth.PermAvailabilityReadLinked, auth.PermAvailabilityUpdateLinked:
		required := auth.ScopeView
		if perm == auth.PermAvailabilityUpdateLinked {
			required = auth.ScopeSchedule
		}
		return e.linkedOrClubAccess(ctx, actor, profileID, required)
	}

	return deny(fmt.Sprintf("no availability rule grants %s", perm)), nil
}

func (e *Evaluator) evaluateMatchRequest(ctx context.Context, actor auth.Actor, perm auth.Permission, matchRequestID int64) (Decision, error) {
	requesterProfile, targetProfile, found, err := e.resolvers.MatchRequestProfiles(ctx, matchRequestID)
	if err != nil {
		return Decision{}, err
	}
	if !found {
		return deny(fmt.Sprintf("match request %d not found", matchRequestID)), nil
	}

	if actor.IsAdmin() {
		return allow("admin"), nil
	}

	switch perm {
	case auth.PermMatchRequestReadOwn, auth.PermMatchRequestRespond, auth.PermMatchRequestCreate:
		for _, profileID := range []int64{requesterProfile, targetProfile} {
			owner, err := e.resolvers.IsProfileOwner(ctx, actor.ID, profileID)
			if err != nil {
				return Decision{}, err
			}
			if owner {
				return allow("participant"), nil
			}
		}
		return deny(fmt.Sprintf("identity %d owns neither profile on match request %d", actor.ID, matchRequestID)), nil

	case auth.PermMatchRequestReadLinked:
		for _, profileID := range []int64{requesterProfile, targetProfile} {
			decision, err := e.linkedOrClubAccess(ctx, actor, profileID, auth.ScopeView)
			if err != nil {
				return Decision{}, err
			}
			if decision.Allowed {
				return decision, nil
			}
		}
		return deny(fmt.Sprintf("identity %d is not linked to either profile on match request %d", actor.ID, matchRequestID)), nil
	}

	return deny(fmt.Sprintf("no match request rule grants %s", perm)), nil
}

// linkedOrClubAccess grants through a coach link of sufficient scope or
// through ownership of the club the profile belongs to.
func (e *Evaluator) linkedOrClubAccess(ctx context.Context, actor auth.Actor, profileID int64, required auth.LinkScope) (Decision, error) {
	if actor.Role == auth.RoleCoach {
		linked, err := e.resolvers.CoachHasLinkPermission(ctx, actor.ID, profileID, required)
		if err != nil {
			return Decision{}, err
		}
		if linked {
			return allow(fmt.Sprintf("coach link with %s scope", required)), nil
		}
		return deny(fmt.Sprintf("coach %d has no %s-scope link to profile %d", actor.ID, required, profileID)), nil
	}

	inClub, err := e.resolvers.IsProfileInClubOwnedBy(ctx, actor.ID, profileID)
	if err != nil {
		return Decision{}, err
	}
	if inClub {
		return allow("profile is in a club owned by the actor"), nil
	}
	return deny(fmt.Sprintf("profile %d is not in a club owned by identity %d", profileID, actor.ID)), nil
}

func (e *Evaluator) countDecision(perm auth.Permission, allowed bool) {
	if e.metrics == nil {
		return
	}
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	e.metrics.AuthzDecisionsTotal.WithLabelValues(string(perm), decision).Inc()
}
