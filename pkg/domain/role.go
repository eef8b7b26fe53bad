package domain

import dErrors "tradepost/pkg/domain-errors"

// Role is the closed set of account roles. Roles are not hierarchical: a route
// requiring RoleAdmin rejects RoleUser and vice versa. Ownership exceptions are
// business-logic decisions, not role semantics.
//
// Usage: construct via ParseRole at trust boundaries (request bodies, token
// claims, database rows); direct casting bypasses validation.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// validRoles is the single source of truth for role values.
var validRoles = map[Role]bool{
	RoleAdmin: true,
	RoleUser:  true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unknown.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}
