package auth

import (
	"fmt"
	"strings"
)

// Role is one of the closed set of account roles.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Operation identifies a gated capability. Read operations are ungated and
// deliberately absent from this catalog.
type Operation string

const (
	// OpCatalogManage covers product create/update/activate/deactivate/delete
	// plus the "my products" listings and stats.
	OpCatalogManage Operation = "catalog.manage"

	// OpAdmin covers the administrative user-management surface.
	OpAdmin Operation = "admin"
)

// rolePolicy is the static allow-list per role. Roles are closed variants, not
// free-form strings, so policy changes happen here and nowhere else.
var rolePolicy = map[Role]map[Operation]struct{}{
	RoleBuyer: {},
	RoleSeller: {
		OpCatalogManage: {},
	},
	RoleAdmin: {
		OpCatalogManage: {},
		OpAdmin:         {},
	},
}

// ParseRole validates a stored or user-supplied role name.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.TrimSpace(strings.ToLower(raw)))
	if _, ok := rolePolicy[role]; !ok {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, raw)
	}
	return role, nil
}

// Allows reports whether the role may execute the operation.
func (r Role) Allows(op Operation) bool {
	ops, ok := rolePolicy[r]
	if !ok {
		return false
	}
	_, ok = ops[op]
	return ok
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, ok := rolePolicy[r]
	return ok
}
