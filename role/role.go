// Package role defines the Role entity and its store interface.
package role

import (
	"time"

	"github.com/xraph/depot/id"
	"github.com/xraph/depot/permission"
)

// Role is a named bundle of grants. Users reference roles by ID through
// User.RoleIDs; deleting a role does not touch the users holding it.
type Role struct {
	ID          id.RoleID          `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Permissions []permission.Grant `json:"permissions"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Update is a partial change to a role. Nil fields are left untouched.
type Update struct {
	Name        *string             `json:"name,omitempty"`
	Description *string             `json:"description,omitempty"`
	Permissions *[]permission.Grant `json:"permissions,omitempty"`
}

// ListFilter contains filters for listing roles.
type ListFilter struct {
	Search  string `json:"search,omitempty"`
	Page    int    `json:"page,omitempty"`
	PerPage int    `json:"per_page,omitempty"`
}
