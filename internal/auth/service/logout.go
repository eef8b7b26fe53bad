package service

import (
	"context"

	"tradepost/internal/audit"
	id "tradepost/pkg/domain"
	dErrors "tradepost/pkg/domain-errors"
)

// Logout revokes the presented token. The revocation entry is retained until
// the token's own expiry: afterwards verification rejects it anyway, so
// holding the entry longer would only grow the list.
func (s *Service) Logout(ctx context.Context, principal id.Principal, tokenString string) error {
	if tokenString == "" {
		return dErrors.New(dErrors.CodeBadRequest, "no token presented")
	}

	expiry, err := s.tokens.ExtractExpiry(tokenString)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed token")
	}

	if err := s.revocations.Record(ctx, tokenString, expiry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}

	s.auditor.Emit(audit.Event{
		Action:  audit.ActionLogout,
		Actor:   principal.Email,
		ActorID: principal.ID.String(),
	}.Enrich(ctx))
	return nil
}
