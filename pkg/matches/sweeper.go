package matches

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ringsidehq/ringside/pkg/observability"
)

// Sweeper performs the bulk PENDING-to-EXPIRED transition for match requests
// past their deadline. Safe to run repeatedly and concurrently with
// interactive traffic: the status guard makes already-settled rows no-ops,
// and the update takes only ordinary row locks.
type Sweeper struct {
	db      *sql.DB
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewSweeper creates a sweeper; logger and metrics may be nil.
func NewSweeper(db *sql.DB, logger *observability.Logger, metrics *observability.Metrics) *Sweeper {
	return &Sweeper{db: db, logger: logger, metrics: metrics}
}

// Sweep expires all overdue PENDING match requests in one statement and
// returns how many rows it transitioned.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	start := time.Now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE match_requests
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND expires_at < NOW()
	`, StatusExpired, StatusPending)
	if err != nil {
		return 0, fmt.Errorf("failed to expire match requests: %w", err)
	}
	expired, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if s.metrics != nil {
		s.metrics.SweepRunsTotal.Inc()
		s.metrics.SweepExpiredTotal.Add(float64(expired))
		s.metrics.SweepDurationSecs.Observe(time.Since(start).Seconds())
	}
	if s.logger != nil {
		s.logger.WithField("expired", expired).Info("expiration sweep complete")
	}
	return expired, nil
}
