package role

import (
	"context"

	"github.com/xraph/depot/id"
)

// Store defines persistence operations for roles.
type Store interface {
	// CreateRole persists a new role.
	CreateRole(ctx context.Context, r *Role) error

	// GetRole retrieves a role by ID.
	GetRole(ctx context.Context, roleID id.RoleID) (*Role, error)

	// UpdateRole applies a partial update to a role.
	UpdateRole(ctx context.Context, roleID id.RoleID, u *Update) error

	// DeleteRole removes a role by ID.
	DeleteRole(ctx context.Context, roleID id.RoleID) error

	// ListRoles returns roles matching the filter.
	ListRoles(ctx context.Context, filter *ListFilter) ([]*Role, error)

	// ListRolesByIDs returns every role whose ID is in roleIDs with a single
	// batched lookup, in the order of roleIDs. Repeated IDs yield one role
	// and unknown IDs are skipped.
	ListRolesByIDs(ctx context.Context, roleIDs []id.RoleID) ([]*Role, error)
}
