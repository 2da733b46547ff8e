package auth

// LinkScope is the permission level a coach holds over a specific athlete
// profile. ScopeFull is a wildcard satisfying any requested scope.
type LinkScope string

const (
	ScopeView     LinkScope = "view"
	ScopeSchedule LinkScope = "schedule"
	ScopeManage   LinkScope = "manage"
	ScopeFull     LinkScope = "full"
)

// Valid reports whether s is one of the enumerated link scopes.
func (s LinkScope) Valid() bool {
	switch s {
	case ScopeView, ScopeSchedule, ScopeManage, ScopeFull:
		return true
	}
	return false
}

// Satisfies reports whether a link carrying scope s grants the required
// scope. ScopeFull satisfies everything; otherwise scopes must match exactly.
func (s LinkScope) Satisfies(required LinkScope) bool {
	if s == ScopeFull {
		return true
	}
	return s == required
}
