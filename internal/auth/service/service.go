// Package service holds the credential lifecycle rules: account registration,
// login, and logout. Transport concerns stay in the handler; storage and
// token mechanics stay behind the interfaces below.
package service

import (
	"context"
	"log/slog"
	"time"

	"tradepost/internal/audit"
	"tradepost/internal/user/models"
	id "tradepost/pkg/domain"
)

// UserStore is the slice of the user store the auth flows need.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// PasswordHasher hashes and verifies login secrets.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) (bool, error)
}

// TokenIssuer mints session tokens and reads their expiry for logout.
type TokenIssuer interface {
	Issue(subject string, role id.Role, now time.Time) (string, error)
	ExtractExpiry(tokenString string) (time.Time, error)
}

// RevocationRecorder adds a token to the revocation list.
type RevocationRecorder interface {
	Record(ctx context.Context, token string, expiresAt time.Time) error
}

// AuditEmitter queues an audit event for background delivery.
type AuditEmitter interface {
	Emit(event audit.Event)
}

// Session is the result of a successful register or login: the account, the
// signed token, and when it stops being valid. The handler turns ExpiresAt
// into the cookie lifetime.
type Session struct {
	User      models.UserDTO
	Token     string
	ExpiresAt time.Time
}

// Service implements the credential flows.
type Service struct {
	users       UserStore
	hasher      PasswordHasher
	tokens      TokenIssuer
	revocations RevocationRecorder
	auditor     AuditEmitter
	logger      *slog.Logger
}

func New(users UserStore, hasher PasswordHasher, tokens TokenIssuer, revocations RevocationRecorder, auditor AuditEmitter, logger *slog.Logger) *Service {
	return &Service{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		revocations: revocations,
		auditor:     auditor,
		logger:      logger,
	}
}
