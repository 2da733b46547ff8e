package connections

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringsidehq/ringside/pkg/errdefs"
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(db, nil), mock
}

func expectNoConnection(mock sqlmock.Sqlmock, low, high int64) {
	mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM connections").
		WithArgs(low, high).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
}

func expectPending(mock sqlmock.Sqlmock, fromID, toID int64, pending bool) {
	mock.ExpectQuery("SELECT 1 FROM connection_requests").
		WithArgs(fromID, toID, string(StatusPending)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(pending))
}

func TestSend_CreatesPendingRequest(t *testing.T) {
	svc, mock := newTestService(t)
	now := time.Now()

	expectNoConnection(mock, 1, 2)
	expectPending(mock, 1, 2, false)
	expectPending(mock, 2, 1, false)
	mock.ExpectQuery("INSERT INTO connection_requests").
		WithArgs(int64(1), int64(2), string(StatusPending), "spar next week?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))

	req, err := svc.Send(context.Background(), 1, 2, "spar next week?")
	require.NoError(t, err)
	assert.Equal(t, int64(7), req.ID)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, int64(1), req.RequesterID)
	assert.Equal(t, int64(2), req.TargetID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSend_SelfTargetIsInvalid(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Send(context.Background(), 1, 1, "")
	assert.True(t, errdefs.IsInvalid(err))
}

func TestSend_ExistingConnectionConflicts(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM connections").
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.Send(context.Background(), 1, 2, "")
	assert.True(t, errdefs.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSend_PendingInEitherDirectionConflicts(t *testing.T) {
	t.Run("outgoing", func(t *testing.T) {
		svc, mock := newTestService(t)
		expectNoConnection(mock, 1, 2)
		expectPending(mock, 1, 2, true)

		_, err := svc.Send(context.Background(), 1, 2, "")
		assert.True(t, errdefs.IsConflict(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("incoming", func(t *testing.T) {
		// B already sent A a request; A sending back must be rejected so
		// the pair never holds two live requests.
		svc, mock := newTestService(t)
		expectNoConnection(mock, 1, 2)
		expectPending(mock, 1, 2, false)
		expectPending(mock, 2, 1, true)

		_, err := svc.Send(context.Background(), 1, 2, "")
		assert.True(t, errdefs.IsConflict(err))
		assert.Contains(t, err.Error(), "pending connection request from this user")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccept_CreatesConnectionInOneTransaction(t *testing.T) {
	svc, mock := newTestService(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT requester_id, target_id, status").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"requester_id", "target_id", "status"}).
			AddRow(int64(5), int64(2), string(StatusPending)))
	mock.ExpectExec("UPDATE connection_requests SET status").
		WithArgs(string(StatusAccepted), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO connections").
		WithArgs(int64(2), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), now))
	mock.ExpectCommit()

	conn, err := svc.Accept(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), conn.IdentityLow)
	assert.Equal(t, int64(5), conn.IdentityHigh)
	assert.True(t, conn.Participant(2))
	assert.True(t, conn.Participant(5))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccept_OnlyTargetMayAccept(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT requester_id, target_id, status").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"requester_id", "target_id", "status"}).
			AddRow(int64(5), int64(2), string(StatusPending)))
	mock.ExpectRollback()

	_, err := svc.Accept(context.Background(), 7, 5)
	assert.True(t, errdefs.IsPermissionDenied(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccept_SecondAcceptIsStateConflict(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT requester_id, target_id, status").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"requester_id", "target_id", "status"}).
			AddRow(int64(5), int64(2), string(StatusAccepted)))
	mock.ExpectRollback()

	_, err := svc.Accept(context.Background(), 7, 2)
	assert.True(t, errdefs.IsConflict(err))
	assert.Contains(t, err.Error(), "ACCEPTED")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccept_DuplicatePairUniqueViolationIsConflict(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT requester_id, target_id, status").
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"requester_id", "target_id", "status"}).
			AddRow(int64(5), int64(2), string(StatusPending)))
	mock.ExpectExec("UPDATE connection_requests SET status").
		WithArgs(string(StatusAccepted), int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO connections").
		WithArgs(int64(2), int64(5)).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := svc.Accept(context.Background(), 8, 2)
	assert.True(t, errdefs.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccept_NotFound(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT requester_id, target_id, status").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"requester_id", "target_id", "status"}))
	mock.ExpectRollback()

	_, err := svc.Accept(context.Background(), 99, 2)
	assert.True(t, errdefs.IsNotFound(err))
}

func TestDecline_TargetOnly(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT requester_id, target_id, status").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"requester_id", "target_id", "status"}).
			AddRow(int64(5), int64(2), string(StatusPending)))

	err := svc.Decline(context.Background(), 7, 5)
	assert.True(t, errdefs.IsPermissionDenied(err))
}

func TestDecline_MarksDeclined(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT requester_id, target_id, status").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"requester_id", "target_id", "status"}).
			AddRow(int64(5), int64(2), string(StatusPending)))
	mock.ExpectExec("UPDATE connection_requests SET status").
		WithArgs(string(StatusDeclined), int64(7), string(StatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Decline(context.Background(), 7, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_RequesterOnly(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT requester_id, target_id, status").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"requester_id", "target_id", "status"}).
			AddRow(int64(5), int64(2), string(StatusPending)))

	err := svc.Cancel(context.Background(), 7, 2)
	assert.True(t, errdefs.IsPermissionDenied(err))
}

func TestResolve_RaceLosesToConcurrentTransition(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery("SELECT requester_id, target_id, status").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"requester_id", "target_id", "status"}).
			AddRow(int64(5), int64(2), string(StatusPending)))
	// Another transition landed between read and write: zero rows updated.
	mock.ExpectExec("UPDATE connection_requests SET status").
		WithArgs(string(StatusDeclined), int64(7), string(StatusPending)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.Decline(context.Background(), 7, 2)
	assert.True(t, errdefs.IsConflict(err))
}

func TestStatus_Precedence(t *testing.T) {
	t.Run("connected wins", func(t *testing.T) {
		svc, mock := newTestService(t)
		mock.ExpectQuery("SELECT EXISTS\\(SELECT 1 FROM connections").
			WithArgs(int64(1), int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		status, err := svc.Status(context.Background(), 1, 2)
		require.NoError(t, err)
		assert.Equal(t, RelationConnected, status)
	})

	t.Run("pending sent", func(t *testing.T) {
		svc, mock := newTestService(t)
		expectNoConnection(mock, 1, 2)
		expectPending(mock, 1, 2, true)

		status, err := svc.Status(context.Background(), 1, 2)
		require.NoError(t, err)
		assert.Equal(t, RelationPendingSent, status)
	})

	t.Run("pending received", func(t *testing.T) {
		svc, mock := newTestService(t)
		expectNoConnection(mock, 1, 2)
		expectPending(mock, 1, 2, false)
		expectPending(mock, 2, 1, true)

		status, err := svc.Status(context.Background(), 1, 2)
		require.NoError(t, err)
		assert.Equal(t, RelationPendingReceived, status)
	})

	t.Run("none", func(t *testing.T) {
		svc, mock := newTestService(t)
		expectNoConnection(mock, 1, 2)
		expectPending(mock, 1, 2, false)
		expectPending(mock, 2, 1, false)

		status, err := svc.Status(context.Background(), 1, 2)
		require.NoError(t, err)
		assert.Equal(t, RelationNone, status)
	})
}

func TestDisconnect_ParticipantOnly(t *testing.T) {
	svc, mock := newTestService(t)
	now := time.Now()

	mock.ExpectQuery("SELECT id, identity_low, identity_high").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "identity_low", "identity_high", "created_at"}).
			AddRow(int64(3), int64(2), int64(5), now))

	err := svc.Disconnect(context.Background(), 3, 9)
	assert.True(t, errdefs.IsPermissionDenied(err))
}

func TestDisconnect_DeletesConnection(t *testing.T) {
	svc, mock := newTestService(t)
	now := time.Now()

	mock.ExpectQuery("SELECT id, identity_low, identity_high").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "identity_low", "identity_high", "created_at"}).
			AddRow(int64(3), int64(2), int64(5), now))
	mock.ExpectExec("DELETE FROM connections").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, svc.Disconnect(context.Background(), 3, 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}
