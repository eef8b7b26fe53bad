package gate

import (
	"net/http"

	dErrors "tradepost/pkg/domain-errors"
	"tradepost/pkg/platform/httputil"
	"tradepost/pkg/requestcontext"
)

// Middleware wraps a handler with the authorization pipeline for the given
// policy. On success the principal (if any) is attached to the request
// context for the remainder of the request's handling.
//
// Middleware runs once per route at registration, so a malformed policy
// panics here and fails the process at startup instead of rejecting every
// request at runtime.
func (g *Gate) Middleware(policy Policy) func(http.Handler) http.Handler {
	if err := policy.Validate(); err != nil {
		panic(err)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			outcome := g.Authorize(r, policy)
			if outcome.Rejected {
				rejectionsTotal.WithLabelValues(string(outcome.Reason)).Inc()
				httputil.WriteError(w, rejectionError(outcome.Reason))
				return
			}
			if outcome.Principal != nil {
				ctx := requestcontext.WithPrincipal(r.Context(), *outcome.Principal)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rejectionError maps a rejection kind to the client-visible error. Invalid
// and missing tokens share one message so clients cannot probe the scheme;
// revocation gets its own message because the caller just logged out and a
// generic failure would read as a bug.
func rejectionError(kind RejectionKind) error {
	switch kind {
	case KindRevoked:
		return dErrors.New(dErrors.CodeUnauthorized, "token has been revoked")
	case KindForbidden:
		return dErrors.New(dErrors.CodeForbidden, "insufficient permissions")
	default:
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
}
