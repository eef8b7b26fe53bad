// Package gate is the per-request authorization pipeline. It maps a bearer
// token to a principal and enforces route-level policy before any protected
// business logic runs.
//
// The pipeline is a single explicit function composed of ordered, named
// stages, each returning a typed outcome. The resolved principal travels as a
// context value scoped to the request; there is no process-wide security
// state, so concurrent requests cannot observe each other's identity.
package gate

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tradepost/internal/auth/token"
	id "tradepost/pkg/domain"
	dErrors "tradepost/pkg/domain-errors"
	"tradepost/pkg/requestcontext"
)

// RejectionKind classifies why the gate rejected a request. Kinds are
// internal: the wire response never distinguishes a malformed token from an
// expired one, to avoid handing probes an oracle.
type RejectionKind string

const (
	// KindRevoked: the presented token is on the revocation list.
	KindRevoked RejectionKind = "revoked"
	// KindUnauthenticated: no usable principal where one is required. Covers
	// missing tokens, invalid tokens, and deleted subjects on protected
	// routes, plus fail-closed backing-store errors.
	KindUnauthenticated RejectionKind = "unauthenticated"
	// KindForbidden: authenticated, but the route's role requirement is not
	// satisfied.
	KindForbidden RejectionKind = "forbidden"
)

// Outcome is the gate's per-request decision. Rejected == false means policy
// was satisfied; handlers consume Principal for ownership checks.
type Outcome struct {
	Principal *id.Principal
	Rejected  bool
	Reason    RejectionKind
}

// TokenVerifier verifies a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// RevocationChecker reports whether a token has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// PrincipalResolver maps a verified subject to a live principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, email string) (id.Principal, error)
}

// Gate runs the authorization pipeline. Stateless apart from its injected
// collaborators; safe for concurrent use across requests.
type Gate struct {
	verifier    TokenVerifier
	revocations RevocationChecker
	resolver    PrincipalResolver
	logger      *slog.Logger
	tracer      trace.Tracer
}

// New constructs a Gate.
func New(verifier TokenVerifier, revocations RevocationChecker, resolver PrincipalResolver, logger *slog.Logger) *Gate {
	return &Gate{
		verifier:    verifier,
		revocations: revocations,
		resolver:    resolver,
		logger:      logger,
		tracer:      otel.Tracer("tradepost/internal/auth/gate"),
	}
}

// CookieName is the cookie consulted when no Authorization header is present.
const CookieName = "jwt"

// TokenFromRequest extracts the candidate bearer token: Authorization header
// first, then the jwt cookie. Empty string means no token presented.
func TokenFromRequest(r *http.Request) string {
	const bearerPrefix = "Bearer "
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix); ok && after != "" {
		return after
	}
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// Authorize runs the pipeline for one request against the route's policy.
//
// Stages: exempt-route check, token extraction, revocation check, verify +
// resolve, policy enforcement. A revoked token short-circuits the request
// before signature verification. Verification or resolution failures yield
// Anonymous rather than an immediate rejection, because some routes permit
// anonymous access even when a garbage token is present; policy enforcement
// then decides. Backing-store failures fail closed.
func (g *Gate) Authorize(r *http.Request, policy Policy) Outcome {
	ctx, span := g.tracer.Start(r.Context(), "gate.authorize",
		trace.WithAttributes(attribute.String("auth.policy", policy.String())),
	)
	defer span.End()

	outcome := g.authorize(ctx, r, policy)

	span.SetAttributes(
		attribute.Bool("auth.rejected", outcome.Rejected),
		attribute.String("auth.reason", string(outcome.Reason)),
	)
	return outcome
}

func (g *Gate) authorize(ctx context.Context, r *http.Request, policy Policy) Outcome {
	// Stage 1: exempt routes bypass the pipeline entirely.
	if policy.kind == policyPublic {
		return Outcome{}
	}

	// Stage 2: token extraction. Absence is not an error here; enforcement
	// decides whether anonymous is acceptable.
	candidate := TokenFromRequest(r)
	if candidate == "" {
		return enforce(nil, policy)
	}

	// Stage 3: revocation check, before signature verification. A revoked
	// token terminates the request regardless of route policy.
	revoked, err := g.revocations.IsRevoked(ctx, candidate)
	if err != nil {
		g.logger.ErrorContext(ctx, "revocation check failed, failing closed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return Outcome{Rejected: true, Reason: KindUnauthenticated}
	}
	if revoked {
		g.logger.WarnContext(ctx, "rejected revoked token",
			"request_id", requestcontext.RequestID(ctx),
		)
		return Outcome{Rejected: true, Reason: KindRevoked}
	}

	// Stage 4: verify, then resolve against the identity store. Either
	// failure downgrades to anonymous.
	claims, err := g.verifier.Verify(candidate)
	if err != nil {
		g.logger.WarnContext(ctx, "invalid token presented",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return enforce(nil, policy)
	}

	p, err := g.resolver.Resolve(ctx, claims.Subject)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			// Subject deleted after issuance; continue as anonymous.
			return enforce(nil, policy)
		}
		g.logger.ErrorContext(ctx, "principal resolution failed, failing closed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return Outcome{Rejected: true, Reason: KindUnauthenticated}
	}

	// Stage 5: policy enforcement with the resolved principal.
	return enforce(&p, policy)
}

// enforce checks the route requirement against the resolved state.
func enforce(p *id.Principal, policy Policy) Outcome {
	switch policy.kind {
	case policyPublic:
		return Outcome{Principal: p}
	case policyAnyAuthenticated:
		if p == nil {
			return Outcome{Rejected: true, Reason: KindUnauthenticated}
		}
		return Outcome{Principal: p}
	case policyRoleExactly:
		if p == nil {
			return Outcome{Rejected: true, Reason: KindUnauthenticated}
		}
		if p.Role != policy.role {
			return Outcome{Principal: p, Rejected: true, Reason: KindForbidden}
		}
		return Outcome{Principal: p}
	default:
		// Unreachable: policies are validated at startup.
		return Outcome{Rejected: true, Reason: KindUnauthenticated}
	}
}
