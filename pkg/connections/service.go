package connections

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/ringsidehq/ringside/pkg/errdefs"
	"github.com/ringsidehq/ringside/pkg/observability"
)

// uniqueViolation is the Postgres error code raised when the normalized-pair
// unique constraint catches a duplicate connection.
const uniqueViolation = "23505"

// Service implements the connection request state machine. State invariants
// are re-validated here regardless of what the permission evaluator decided
// upstream.
type Service struct {
	db      *sql.DB
	metrics *observability.Metrics
}

// NewService creates a connection service; metrics may be nil.
func NewService(db *sql.DB, metrics *observability.Metrics) *Service {
	return &Service{db: db, metrics: metrics}
}

// Send creates a PENDING connection request from requester to target.
// It rejects self-targeting, an existing connection for the pair, and a
// pending request in either direction.
func (s *Service) Send(ctx context.Context, requesterID, targetID int64, message string) (*Request, error) {
	if requesterID == targetID {
		return nil, errdefs.Invalidf("cannot send a connection request to yourself")
	}

	connected, err := s.connectionExists(ctx, requesterID, targetID)
	if err != nil {
		return nil, err
	}
	if connected {
		return nil, errdefs.Conflictf("already connected")
	}

	// Both directions must be clear; two separate lookups, per the status
	// query's directional semantics.
	outgoing, err := s.pendingExists(ctx, requesterID, targetID)
	if err != nil {
		return nil, err
	}
	if outgoing {
		return nil, errdefs.Conflictf("you already have a pending connection request to this user")
	}

	incoming, err := s.pendingExists(ctx, targetID, requesterID)
	if err != nil {
		return nil, err
	}
	if incoming {
		return nil, errdefs.Conflictf("you already have a pending connection request from this user; respond to it instead")
	}

	request := &Request{
		RequesterID: requesterID,
		TargetID:    targetID,
		Status:      StatusPending,
		Message:     message,
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO connection_requests (requester_id, target_id, status, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, requesterID, targetID, StatusPending, message).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection request: %w", err)
	}

	s.countTransition(StatusPending)
	return request, nil
}

// Accept marks the request ACCEPTED and creates the Connection row for the
// normalized pair in one transaction. Only the target may accept, and only
// while the request is PENDING. Both writes commit together or neither does.
func (s *Service) Accept(ctx context.Context, requestID, actorID int64) (*Connection, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var requesterID, targetID int64
	var status Status
	err = tx.QueryRowContext(ctx, `
		SELECT requester_id, target_id, status
		FROM connection_requests
		WHERE id = $1
		FOR UPDATE
	`, requestID).Scan(&requesterID, &targetID, &status)
	if err == sql.ErrNoRows {
		return nil, errdefs.NotFoundf("connection request %d", requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load connection request: %w", err)
	}

	if targetID != actorID {
		return nil, errdefs.PermissionDeniedf("only the request target may accept")
	}
	if status != StatusPending {
		return nil, errdefs.Conflictf("connection request is %s, not PENDING", status)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE connection_requests SET status = $1, updated_at = NOW() WHERE id = $2
	`, StatusAccepted, requestID); err != nil {
		return nil, fmt.Errorf("failed to mark request accepted: %w", err)
	}

	low, high := NormalizePair(requesterID, targetID)
	conn := &Connection{IdentityLow: low, IdentityHigh: high}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO connections (identity_low, identity_high)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, low, high).Scan(&conn.ID, &conn.CreatedAt)
	if err != nil {
		// The send/send race lands here: two requests between the same
		// pair both reached PENDING and the second accept trips the
		// unique pair constraint. Surface as a conflict, not a crash.
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			return nil, errdefs.Conflictf("connection already exists for this pair")
		}
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit accept: %w", err)
	}

	s.countTransition(StatusAccepted)
	return conn, nil
}

// Decline moves a PENDING request to DECLINED. Only the target may decline.
func (s *Service) Decline(ctx context.Context, requestID, actorID int64) error {
	return s.resolve(ctx, requestID, actorID, StatusDeclined)
}

// Cancel moves a PENDING request to CANCELLED. Only the requester may cancel.
func (s *Service) Cancel(ctx context.Context, requestID, actorID int64) error {
	return s.resolve(ctx, requestID, actorID, StatusCancelled)
}

// resolve is the shared single-row terminal transition for decline/cancel.
func (s *Service) resolve(ctx context.Context, requestID, actorID int64, to Status) error {
	var requesterID, targetID int64
	var status Status
	err := s.db.QueryRowContext(ctx, `
		SELECT requester_id, target_id, status FROM connection_requests WHERE id = $1
	`, requestID).Scan(&requesterID, &targetID, &status)
	if err == sql.ErrNoRows {
		return errdefs.NotFoundf("connection request %d", requestID)
	}
	if err != nil {
		return fmt.Errorf("failed to load connection request: %w", err)
	}

	switch to {
	case StatusDeclined:
		if targetID != actorID {
			return errdefs.PermissionDeniedf("only the request target may decline")
		}
	case StatusCancelled:
		if requesterID != actorID {
			return errdefs.PermissionDeniedf("only the requester may cancel")
		}
	}
	if status != StatusPending {
		return errdefs.Conflictf("connection request is %s, not PENDING", status)
	}

	// The status guard makes the update a no-op if another transition won
	// the race between our read and this write.
	result, err := s.db.ExecContext(ctx, `
		UPDATE connection_requests SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, to, requestID, StatusPending)
	if err != nil {
		return fmt.Errorf("failed to update connection request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return errdefs.Conflictf("connection request is no longer PENDING")
	}

	s.countTransition(to)
	return nil
}

// Status reports how two identities relate. Precedence: an existing
// connection wins, then an outgoing PENDING request, then an incoming one,
// else none.
func (s *Service) Status(ctx context.Context, identityID, otherID int64) (RelationshipStatus, error) {
	connected, err := s.connectionExists(ctx, identityID, otherID)
	if err != nil {
		return "", err
	}
	if connected {
		return RelationConnected, nil
	}

	outgoing, err := s.pendingExists(ctx, identityID, otherID)
	if err != nil {
		return "", err
	}
	if outgoing {
		return RelationPendingSent, nil
	}

	incoming, err := s.pendingExists(ctx, otherID, identityID)
	if err != nil {
		return "", err
	}
	if incoming {
		return RelationPendingReceived, nil
	}

	return RelationNone, nil
}

// Disconnect hard-deletes a connection. Either participant may disconnect;
// anyone else is rejected.
func (s *Service) Disconnect(ctx context.Context, connectionID, actorID int64) error {
	var conn Connection
	err := s.db.QueryRowContext(ctx, `
		SELECT id, identity_low, identity_high, created_at FROM connections WHERE id = $1
	`, connectionID).Scan(&conn.ID, &conn.IdentityLow, &conn.IdentityHigh, &conn.CreatedAt)
	if err == sql.ErrNoRows {
		return errdefs.NotFoundf("connection %d", connectionID)
	}
	if err != nil {
		return fmt.Errorf("failed to load connection: %w", err)
	}

	if !conn.Participant(actorID) {
		return errdefs.PermissionDeniedf("identity %d is not a participant of connection %d", actorID, connectionID)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM connections WHERE id = $1`, connectionID); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	return nil
}

// GetRequest loads a connection request by ID.
func (s *Service) GetRequest(ctx context.Context, requestID int64) (*Request, error) {
	var request Request
	var message sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, requester_id, target_id, status, message, created_at, updated_at
		FROM connection_requests WHERE id = $1
	`, requestID).Scan(
		&request.ID, &request.RequesterID, &request.TargetID,
		&request.Status, &message, &request.CreatedAt, &request.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errdefs.NotFoundf("connection request %d", requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load connection request: %w", err)
	}
	request.Message = message.String
	return &request, nil
}

func (s *Service) connectionExists(ctx context.Context, a, b int64) (bool, error) {
	low, high := NormalizePair(a, b)
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM connections WHERE identity_low = $1 AND identity_high = $2)
	`, low, high).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check connection: %w", err)
	}
	return exists, nil
}

func (s *Service) pendingExists(ctx context.Context, fromID, toID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM connection_requests
			WHERE requester_id = $1 AND target_id = $2 AND status = $3
		)
	`, fromID, toID, StatusPending).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending request: %w", err)
	}
	return exists, nil
}

func (s *Service) countTransition(to Status) {
	if s.metrics != nil {
		s.metrics.ConnectionTransitionsTotal.WithLabelValues(string(to)).Inc()
	}
}
