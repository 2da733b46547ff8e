package connections

import "time"

// Status is the lifecycle state of a connection request. PENDING is the only
// state with outgoing transitions; the rest are terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusDeclined  Status = "DECLINED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// Request is a directed connection proposal between two identities.
type Request struct {
	ID          int64     `json:"id"`
	RequesterID int64     `json:"requester_id"`
	TargetID    int64     `json:"target_id"`
	Status      Status    `json:"status"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Connection is the undirected relation materialized when a request is
// accepted. It is stored under the normalized pair key: the two identity IDs
// sorted into (low, high) order, so one unique row covers both directions.
type Connection struct {
	ID           int64     `json:"id"`
	IdentityLow  int64     `json:"identity_low"`
	IdentityHigh int64     `json:"identity_high"`
	CreatedAt    time.Time `json:"created_at"`
}

// Participant reports whether the identity is one of the connection's two
// endpoints.
func (c Connection) Participant(identityID int64) bool {
	return c.IdentityLow == identityID || c.IdentityHigh == identityID
}

// NormalizePair returns the two identity IDs in canonical (low, high) order.
// Commutative: NormalizePair(a, b) == NormalizePair(b, a).
func NormalizePair(a, b int64) (low, high int64) {
	if a < b {
		return a, b
	}
	return b, a
}

// RelationshipStatus is the answer to "how do these two identities relate
// right now". Exactly one value applies to any pair.
type RelationshipStatus string

const (
	RelationConnected       RelationshipStatus = "connected"
	RelationPendingSent     RelationshipStatus = "pending_sent"
	RelationPendingReceived RelationshipStatus = "pending_received"
	RelationNone            RelationshipStatus = "none"
)
