// Package service implements account management: admin CRUD plus the
// self-service profile operations. Authorization that depends on who is
// asking lives here, not in the transport layer.
package service

import (
	"context"
	"errors"
	"log/slog"

	"tradepost/internal/audit"
	"tradepost/internal/user/models"
	"tradepost/internal/user/store"
	id "tradepost/pkg/domain"
	dErrors "tradepost/pkg/domain-errors"
	"tradepost/pkg/platform/sentinel"
	"tradepost/pkg/requestcontext"
)

// PasswordHasher hashes replacement passwords on account updates.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// AuditEmitter queues an audit event for background delivery.
type AuditEmitter interface {
	Emit(event audit.Event)
}

type Service struct {
	users   store.Store
	hasher  PasswordHasher
	auditor AuditEmitter
	logger  *slog.Logger
}

func New(users store.Store, hasher PasswordHasher, auditor AuditEmitter, logger *slog.Logger) *Service {
	return &Service{users: users, hasher: hasher, auditor: auditor, logger: logger}
}

// List returns all accounts, ordered by email.
func (s *Service) List(ctx context.Context) ([]models.UserDTO, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	dtos := make([]models.UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, u.DTO())
	}
	return dtos, nil
}

// Get returns one account by ID.
func (s *Service) Get(ctx context.Context, userID id.UserID) (models.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.UserDTO{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return models.UserDTO{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user.DTO(), nil
}

// CreateInput carries the fields for admin-provisioned accounts. Unlike
// self-registration, the requested role is honored.
type CreateInput struct {
	Name     string
	Email    string
	Password string
	Role     id.Role
}

// Create provisions an account on behalf of an admin.
func (s *Service) Create(ctx context.Context, actor id.Principal, input CreateInput) (models.UserDTO, error) {
	role, err := id.ParseRole(input.Role.String())
	if err != nil {
		return models.UserDTO{}, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return models.UserDTO{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
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
			return models.UserDTO{}, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return models.UserDTO{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.auditor.Emit(audit.Event{
		Action:  audit.ActionUserRegistered,
		Actor:   actor.Email,
		ActorID: actor.ID.String(),
		Subject: user.ID.String(),
	}.Enrich(ctx))
	return user.DTO(), nil
}

// UpdateInput carries the mutable account fields. Nil means keep.
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *id.Role
}

// Update modifies an account. Owners may edit their own profile; admins may
// edit anyone. Role changes are admin-only, so a user cannot promote
// themselves.
func (s *Service) Update(ctx context.Context, actor id.Principal, userID id.UserID, input UpdateInput) (models.UserDTO, error) {
	if !actor.IsAdmin() && actor.ID != userID {
		return models.UserDTO{}, dErrors.New(dErrors.CodeForbidden, "insufficient permissions")
	}
	if input.Role != nil && !actor.IsAdmin() {
		return models.UserDTO{}, dErrors.New(dErrors.CodeForbidden, "role changes require an admin")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.UserDTO{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return models.UserDTO{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Password != nil {
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return models.UserDTO{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
		}
		user.PasswordHash = hash
	}
	if input.Role != nil {
		role, err := id.ParseRole(input.Role.String())
		if err != nil {
			return models.UserDTO{}, err
		}
		user.Role = role
	}
	user.UpdatedAt = requestcontext.Now(ctx)

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return models.UserDTO{}, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.UserDTO{}, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return models.UserDTO{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}

	s.auditor.Emit(audit.Event{
		Action:  audit.ActionUserUpdated,
		Actor:   actor.Email,
		ActorID: actor.ID.String(),
		Subject: userID.String(),
	}.Enrich(ctx))
	return user.DTO(), nil
}

// Delete removes an account. Admin routes pass any target; the self-service
// route passes the caller's own ID.
func (s *Service) Delete(ctx context.Context, actor id.Principal, userID id.UserID) error {
	if !actor.IsAdmin() && actor.ID != userID {
		return dErrors.New(dErrors.CodeForbidden, "insufficient permissions")
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete user")
	}

	s.auditor.Emit(audit.Event{
		Action:  audit.ActionUserDeleted,
		Actor:   actor.Email,
		ActorID: actor.ID.String(),
		Subject: userID.String(),
	}.Enrich(ctx))
	return nil
}
