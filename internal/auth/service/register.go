package service

import (
	"context"
	"errors"

	"tradepost/internal/audit"
	"tradepost/internal/platform/config"
	"tradepost/internal/user/models"
	id "tradepost/pkg/domain"
	dErrors "tradepost/pkg/domain-errors"
	"tradepost/pkg/platform/sentinel"
	"tradepost/pkg/requestcontext"
)

// RegisterInput carries the validated registration fields. Role is what the
// caller asked for; self-registration never grants ADMIN.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     id.Role
}

// Register creates an account and signs the caller in. A requested ADMIN role
// is silently downgraded to USER; admin accounts are provisioned by admins
// through the user management surface, not by self-service.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	exists, err := s.users.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}
	if exists {
		return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	role := input.Role
	if role == "" || role == id.RoleAdmin {
		role = id.RoleUser
	}

	now := requestcontext.Now(ctx)
	user := &models.User{
		ID:           id.NewUserID(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a race with a concurrent registration for the same email.
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	signed, err := s.tokens.Issue(user.Email, user.Role, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.auditor.Emit(audit.Event{
		Action:  audit.ActionUserRegistered,
		Actor:   user.Email,
		ActorID: user.ID.String(),
		Subject: user.ID.String(),
	}.Enrich(ctx))

	return &Session{
		User:      user.DTO(),
		Token:     signed,
		ExpiresAt: now.Add(config.TokenTTL),
	}, nil
}
