package access

import (
	"context"

	id "mintledger/pkg/domain"
)

// RoleStore persists role grants. Grant and Revoke are idempotent at the
// store level; the service layers authorization on top.
type RoleStore interface {
	Grant(ctx context.Context, principal id.Principal, role Role) error
	Revoke(ctx context.Context, principal id.Principal, role Role) error
	HasRole(ctx context.Context, principal id.Principal, role Role) (bool, error)
	Roles(ctx context.Context, principal id.Principal) ([]Role, error)
}
