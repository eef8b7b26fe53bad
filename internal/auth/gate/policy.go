package gate

import (
	"fmt"

	id "tradepost/pkg/domain"
)

type policyKind int

const (
	policyPublic policyKind = iota
	policyAnyAuthenticated
	policyRoleExactly
)

// Policy is a route's declared access requirement. Routes declare exactly one
// of Public, AnyAuthenticated, or RoleExactly(role); the gate enforces it
// before business logic runs.
type Policy struct {
	kind policyKind
	role id.Role
}

// Public marks a route exempt from authentication: the pipeline is bypassed
// and the request proceeds anonymously.
func Public() Policy {
	return Policy{kind: policyPublic}
}

// AnyAuthenticated requires a resolved principal of any role.
func AnyAuthenticated() Policy {
	return Policy{kind: policyAnyAuthenticated}
}

// RoleExactly requires a principal holding exactly the given role. Roles are
// not hierarchical: an admin is rejected by RoleExactly(RoleUser).
func RoleExactly(role id.Role) Policy {
	return Policy{kind: policyRoleExactly, role: role}
}

// Validate catches misconfigured policies at startup wiring. A role
// requirement outside the enumeration is a programming error and must never
// surface at request time.
func (p Policy) Validate() error {
	if p.kind == policyRoleExactly && !p.role.IsValid() {
		return fmt.Errorf("route policy requires unknown role %q", p.role)
	}
	return nil
}

// String names the policy for logs and trace attributes.
func (p Policy) String() string {
	switch p.kind {
	case policyPublic:
		return "public"
	case policyAnyAuthenticated:
		return "any_authenticated"
	case policyRoleExactly:
		return "role:" + p.role.String()
	default:
		return "unknown"
	}
}
