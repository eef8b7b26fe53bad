package revocation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresStore persists revocation entries in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE token_revocations (
//	    token      TEXT PRIMARY KEY,
//	    expires_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db    *sql.DB
	clock Clock
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithPostgresClock sets the clock used by IsRevoked.
func WithPostgresClock(clock Clock) PostgresOption {
	return func(s *PostgresStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewPostgresStore constructs a PostgreSQL-backed revocation list.
func NewPostgresStore(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{
		db:    db,
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Record inserts the entry. ON CONFLICT DO NOTHING keeps recording idempotent:
// the first entry already carries the token's embedded expiry.
func (s *PostgresStore) Record(ctx context.Context, token string, expiresAt time.Time) error {
	if token == "" {
		return nil
	}
	query := `
		INSERT INTO token_revocations (token, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (token) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query, token, expiresAt)
	if err != nil {
		return fmt.Errorf("record revoked token: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		tokensRevoked.Inc()
	}
	return nil
}

// IsRevoked looks the token up and checks the stored expiry against the clock
// so an unpurged entry for an expired token reads as not revoked.
func (s *PostgresStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	start := time.Now()
	defer func() {
		isRevokedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	var expiresAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT expires_at FROM token_revocations WHERE token = $1`, token,
	).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return s.clock().Before(expiresAt), nil
}

// PurgeExpired deletes every entry whose expiry has passed.
func (s *PostgresStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM token_revocations WHERE expires_at <= $1`, now,
	)
	if err != nil {
		return 0, fmt.Errorf("purge expired revocations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge expired revocations: %w", err)
	}
	if n > 0 {
		entriesPurged.Add(float64(n))
	}
	return int(n), nil
}
