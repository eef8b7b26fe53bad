package domain

// Principal is the resolved, currently-authoritative identity for one request.
//
// It is reconstructed fresh per request from the user store and never cached
// across requests, so Role always reflects the stored role rather than the
// value frozen into an outstanding token. Principal values are immutable after
// construction and safe to share via request context.
type Principal struct {
	ID    UserID
	Email string
	Role  Role
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
