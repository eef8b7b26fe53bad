// Package store persists user accounts. It is the authoritative identity
// store: the authorization gate re-reads it on every request so role changes
// and deletions take effect immediately, outstanding tokens notwithstanding.
package store

import (
	"context"

	"tradepost/internal/user/models"
	id "tradepost/pkg/domain"
)

// Error Contract:
// - FindByEmail / FindByID return ErrNotFound (wrapped) when no account exists.
// - Create returns ErrConflict when the email is already taken.
// - Emails are matched exactly as stored (case-sensitive).
type Store interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, userID id.UserID) error
	List(ctx context.Context) ([]*models.User, error)
}
