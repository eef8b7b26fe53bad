package service

import (
	"context"
	"errors"

	"tradepost/internal/audit"
	"tradepost/internal/platform/config"
	dErrors "tradepost/pkg/domain-errors"
	"tradepost/pkg/platform/sentinel"
	"tradepost/pkg/requestcontext"
)

// Login verifies credentials and mints a session token. Unknown email and
// wrong password produce the same error so callers cannot enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.loginFailed(ctx, email, "unknown_email")
			return nil, invalidCredentials()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}
	if !ok {
		s.loginFailed(ctx, email, "wrong_password")
		return nil, invalidCredentials()
	}

	now := requestcontext.Now(ctx)
	signed, err := s.tokens.Issue(user.Email, user.Role, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.auditor.Emit(audit.Event{
		Action:  audit.ActionLoginSucceeded,
		Actor:   user.Email,
		ActorID: user.ID.String(),
	}.Enrich(ctx))

	return &Session{
		User:      user.DTO(),
		Token:     signed,
		ExpiresAt: now.Add(config.TokenTTL),
	}, nil
}

func (s *Service) loginFailed(ctx context.Context, email, reason string) {
	s.logger.WarnContext(ctx, "login failed",
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.auditor.Emit(audit.Event{
		Action: audit.ActionLoginFailed,
		Actor:  email,
		Reason: reason,
	}.Enrich(ctx))
}

func invalidCredentials() error {
	return dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
}
