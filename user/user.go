// Package user defines the User entity, its redacted public projection,
// and the user store interface.
package user

import (
	"time"

	"github.com/xraph/depot/id"
	"github.com/xraph/depot/permission"
)

// Profile holds the display details of a user.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

// User is the full internal user record. PasswordHash is only populated
// when a store read asks for it and is never serialised to JSON; use
// Public before handing a user to anything outside the process.
type User struct {
	ID              id.UserID           `json:"id"`
	Email           string              `json:"email"`
	PasswordHash    string              `json:"-"`
	Profile         Profile             `json:"profile"`
	RoleIDs         []id.RoleID         `json:"role_ids"`
	OrganizationIDs []id.OrganizationID `json:"organization_ids"`
	Permissions     []permission.Grant  `json:"permissions"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// Public is the redacted projection of a user. It has no password field.
type Public struct {
	ID              id.UserID           `json:"id"`
	Email           string              `json:"email"`
	Profile         Profile             `json:"profile"`
	RoleIDs         []id.RoleID         `json:"role_ids"`
	OrganizationIDs []id.OrganizationID `json:"organization_ids"`
	Permissions     []permission.Grant  `json:"permissions"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// Public returns the redacted projection of u.
func (u *User) Public() *Public {
	return &Public{
		ID:              u.ID,
		Email:           u.Email,
		Profile:         u.Profile,
		RoleIDs:         u.RoleIDs,
		OrganizationIDs: u.OrganizationIDs,
		Permissions:     u.Permissions,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// HasRole reports whether the user holds roleID.
func (u *User) HasRole(roleID id.RoleID) bool {
	for _, r := range u.RoleIDs {
		if r == roleID {
			return true
		}
	}
	return false
}

// Update is a partial change to a user. Nil fields are left untouched.
type Update struct {
	Email           *string              `json:"email,omitempty"`
	PasswordHash    *string              `json:"-"`
	Profile         *Profile             `json:"profile,omitempty"`
	RoleIDs         *[]id.RoleID         `json:"role_ids,omitempty"`
	OrganizationIDs *[]id.OrganizationID `json:"organization_ids,omitempty"`
	Permissions     *[]permission.Grant  `json:"permissions,omitempty"`
}

// ListFilter contains filters for listing users.
type ListFilter struct {
	OrganizationID *id.OrganizationID `json:"organization_id,omitempty"`
	RoleID         *id.RoleID         `json:"role_id,omitempty"`
	Page           int                `json:"page,omitempty"`
	PerPage        int                `json:"per_page,omitempty"`
}
