package revocation

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresStore(t *testing.T, clock Clock) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db, WithPostgresClock(clock)), mock
}

func TestPostgresStoreRecord(t *testing.T) {
	now := time.Now()
	store, mock := newPostgresStore(t, func() time.Time { return now })
	exp := now.Add(time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO token_revocations")).
		WithArgs("tok-1", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Record(context.Background(), "tok-1", exp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreRecordConflictIsNoop(t *testing.T) {
	now := time.Now()
	store, mock := newPostgresStore(t, func() time.Time { return now })
	exp := now.Add(time.Hour)

	// ON CONFLICT DO NOTHING reports zero rows affected on the second insert.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO token_revocations")).
		WithArgs("tok-1", exp).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Record(context.Background(), "tok-1", exp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreIsRevoked(t *testing.T) {
	now := time.Now()
	store, mock := newPostgresStore(t, func() time.Time { return now })

	t.Run("live entry", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT expires_at FROM token_revocations")).
			WithArgs("tok-1").
			WillReturnRows(sqlmock.NewRows([]string{"expires_at"}).AddRow(now.Add(time.Hour)))

		revoked, err := store.IsRevoked(context.Background(), "tok-1")
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("unknown token", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT expires_at FROM token_revocations")).
			WithArgs("tok-2").
			WillReturnRows(sqlmock.NewRows([]string{"expires_at"}))

		revoked, err := store.IsRevoked(context.Background(), "tok-2")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("unpurged entry for an expired token reads not revoked", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT expires_at FROM token_revocations")).
			WithArgs("tok-3").
			WillReturnRows(sqlmock.NewRows([]string{"expires_at"}).AddRow(now.Add(-time.Minute)))

		revoked, err := store.IsRevoked(context.Background(), "tok-3")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("store failure surfaces as error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT expires_at FROM token_revocations")).
			WithArgs("tok-4").
			WillReturnError(errors.New("connection reset"))

		_, err := store.IsRevoked(context.Background(), "tok-4")
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorePurgeExpired(t *testing.T) {
	now := time.Now()
	store, mock := newPostgresStore(t, func() time.Time { return now })

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM token_revocations WHERE expires_at <= $1")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	purged, err := store.PurgeExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 3, purged)
	assert.NoError(t, mock.ExpectationsWereMet())
}
