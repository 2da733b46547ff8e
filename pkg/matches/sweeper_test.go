package matches

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep_ExpiresOverdueRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sweeper := NewSweeper(db, nil, nil)

	mock.ExpectExec("UPDATE match_requests").
		WithArgs(string(StatusExpired), string(StatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	expired, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), expired)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweep_SecondRunIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sweeper := NewSweeper(db, nil, nil)

	mock.ExpectExec("UPDATE match_requests").
		WithArgs(string(StatusExpired), string(StatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	// Everything overdue was settled by the first run; the status guard
	// leaves nothing for the second.
	mock.ExpectExec("UPDATE match_requests").
		WithArgs(string(StatusExpired), string(StatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), first)

	second, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second)

	assert.NoError(t, mock.ExpectationsWereMet())
}
