// Package access implements the role registry: which principal holds which
// capability. Mutations on the supply ledger consult it before touching any
// ledger state.
package access

import (
	dErrors "mintledger/pkg/domain-errors"
)

// Role is a named capability granted to principals.
type Role string

const (
	// RoleAdmin may set and raise caps, manage roles, and configure the
	// royalty schedule.
	RoleAdmin Role = "admin"
	// RoleMinter may issue tokens against configured caps.
	RoleMinter Role = "minter"
)

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleMinter:
		return true
	}
	return false
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// ParseRole creates a Role from a string, validating it.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role: must be 'admin' or 'minter'")
	}
	return r, nil
}
