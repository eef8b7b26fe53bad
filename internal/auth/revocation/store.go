// Package revocation records tokens that must be rejected before their
// natural expiry. Entries never outlive the expiry already embedded in the
// token, so purging is storage hygiene, not a correctness requirement: the
// token codec's own expiry check is the backstop.
package revocation

import (
	"context"
	"time"
)

// Store is the token revocation list.
//
// Error Contract:
// - Record is idempotent; recording the same token twice is a no-op.
// - IsRevoked returns false for unknown tokens, true for recorded tokens
//   whose expiry has not passed; store failures return an error and callers
//   fail closed.
// - PurgeExpired removes every entry with expiresAt <= now and reports how
//   many were removed.
// All methods are safe for concurrent use.
type Store interface {
	Record(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

// Clock abstracts time for testability.
type Clock func() time.Time
