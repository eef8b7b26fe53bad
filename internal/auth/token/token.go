// Package token issues and verifies the signed, time-bound bearer tokens that
// carry identity and role between requests.
//
// Tokens are self-contained: verifying one needs only the signing secret and a
// clock, never a store lookup. Cryptographic validity is necessary but not
// sufficient; callers must additionally consult the revocation store.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tradepost/internal/platform/config"
	id "tradepost/pkg/domain"
)

// ErrInvalidToken covers every verification failure: bad signature, malformed
// structure, unknown role claim, or expiry. Callers must not distinguish the
// cases on the wire.
var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Claims is the verified content of a token.
type Claims struct {
	Subject   string
	Role      id.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec issues and verifies tokens with a single process-wide signing secret.
// All operations are pure functions of the token string, the secret, and the
// clock; the Codec holds no mutable state and is safe for concurrent use.
type Codec struct {
	signingKey []byte
	issuer     string
	clock      func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock sets the clock used during verification. Tests inject fixed
// clocks to exercise the expiry boundary deterministically.
func WithClock(clock func() time.Time) Option {
	return func(c *Codec) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewCodec constructs a Codec around the given signing secret.
func NewCodec(signingKey string, opts ...Option) *Codec {
	c := &Codec{
		signingKey: []byte(signingKey),
		issuer:     "tradepost",
		clock:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Issue produces a token for the subject and role whose validity window is
// exactly [now, now + config.TokenTTL). The lifetime is fixed policy.
func (c *Codec) Issue(subject string, role id.Role, now time.Time) (string, error) {
	if !role.IsValid() {
		return "", fmt.Errorf("issue token: unknown role %q", role)
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.TokenTTL)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := t.SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded claims. Fails
// with ErrInvalidToken when the signature does not match, the structure is
// malformed, the role claim is unknown, or now >= expiresAt.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, c.keyFunc,
		jwt.WithTimeFunc(c.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return c.toClaims(parsed)
}

// ExtractExpiry returns the expiry embedded in a token without enforcing it.
// Logout uses this to know how long a revocation entry must be retained; the
// token may be about to expire but must be well-formed and properly signed.
func (c *Codec) ExtractExpiry(tokenString string) (time.Time, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	mc, ok := parsed.Claims.(*claims)
	if !ok || mc.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}
	return mc.ExpiresAt.Time.UTC(), nil
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, jwt.ErrTokenUnverifiable
	}
	return c.signingKey, nil
}

func (c *Codec) toClaims(parsed *jwt.Token) (*Claims, error) {
	mc, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}
	role, err := id.ParseRole(mc.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown role claim", ErrInvalidToken)
	}
	if mc.ExpiresAt == nil || mc.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing time claims", ErrInvalidToken)
	}
	return &Claims{
		Subject:   mc.Subject,
		Role:      role,
		IssuedAt:  mc.IssuedAt.Time.UTC(),
		ExpiresAt: mc.ExpiresAt.Time.UTC(),
	}, nil
}
