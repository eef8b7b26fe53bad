// Package principal maps verified token subjects to live user records.
//
// The resolver re-reads the authoritative identity store on every call rather
// than trusting the token payload: role changes or account deletion take
// effect on the very next request even though outstanding tokens stay
// cryptographically valid until their natural expiry.
package principal

import (
	"context"
	"errors"

	"tradepost/internal/user/models"
	id "tradepost/pkg/domain"
	dErrors "tradepost/pkg/domain-errors"
	"tradepost/pkg/platform/sentinel"
)

// UserFinder is the slice of the user store the resolver needs.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Resolver resolves token subjects against the identity store.
type Resolver struct {
	users UserFinder
}

// NewResolver constructs a Resolver over the given store.
func NewResolver(users UserFinder) *Resolver {
	return &Resolver{users: users}
}

// Resolve returns the live principal for the subject email.
//
// Errors: CodeNotFound when no account with that email exists (e.g. deleted
// after token issuance); CodeInternal for store failures. Callers treat the
// former as "no principal" and the latter as fail-closed.
func (r *Resolver) Resolve(ctx context.Context, email string) (id.Principal, error) {
	user, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return id.Principal{}, dErrors.New(dErrors.CodeNotFound, "principal not found")
		}
		return id.Principal{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve principal")
	}
	return user.Principal(), nil
}
