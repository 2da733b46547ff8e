package authz

import (
	"fmt"

	"github.com/ringsidehq/ringside/pkg/auth"
)

// Cache key families. Every resolver key is colon-delimited with the shape
// authz:<family>:<identity-ish>:<resource-ish>[:scope] so that the
// invalidation patterns below can evict whole families by prefix.
const (
	keyFamilyProfileOwner = "profile-owner"
	keyFamilyClubOwner    = "club-owner"
	keyFamilyClubMember   = "club-member"
	keyFamilyCoachLink    = "coach-link"
)

func profileOwnerKey(identityID, profileID int64) string {
	return fmt.Sprintf("authz:%s:%d:%d", keyFamilyProfileOwner, identityID, profileID)
}

func clubOwnerKey(identityID, clubID int64) string {
	return fmt.Sprintf("authz:%s:%d:%d", keyFamilyClubOwner, identityID, clubID)
}

func clubMemberKey(identityID, profileID int64) string {
	return fmt.Sprintf("authz:%s:%d:%d", keyFamilyClubMember, identityID, profileID)
}

func coachLinkKey(coachID, profileID int64, scope auth.LinkScope) string {
	return fmt.Sprintf("authz:%s:%d:%d:%s", keyFamilyCoachLink, coachID, profileID, scope)
}

// identityPatterns matches every cached decision keyed by the identity.
func identityPatterns(identityID int64) []string {
	return []string{
		fmt.Sprintf("authz:%s:%d:*", keyFamilyProfileOwner, identityID),
		fmt.Sprintf("authz:%s:%d:*", keyFamilyClubOwner, identityID),
		fmt.Sprintf("authz:%s:%d:*", keyFamilyClubMember, identityID),
		fmt.Sprintf("authz:%s:%d:*", keyFamilyCoachLink, identityID),
	}
}

// profilePatterns matches every cached decision keyed by the profile.
func profilePatterns(profileID int64) []string {
	return []string{
		fmt.Sprintf("authz:%s:*:%d", keyFamilyProfileOwner, profileID),
		fmt.Sprintf("authz:%s:*:%d", keyFamilyClubMember, profileID),
		fmt.Sprintf("authz:%s:*:%d:*", keyFamilyCoachLink, profileID),
	}
}

// clubPatterns matches every cached decision keyed by the club.
func clubPatterns(clubID int64) []string {
	return []string{
		fmt.Sprintf("authz:%s:*:%d", keyFamilyClubOwner, clubID),
	}
}

// allPattern matches the entire authorization cache namespace.
const allPattern = "authz:*"
