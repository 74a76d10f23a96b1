package user

import (
	"context"

	"github.com/xraph/depot/id"
)

// Store defines persistence operations for users.
//
// Reads leave PasswordHash empty unless includePasswordHash is true.
type Store interface {
	// CreateUser persists a new user. The email must be unique.
	CreateUser(ctx context.Context, u *User) error

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, userID id.UserID, includePasswordHash bool) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string, includePasswordHash bool) (*User, error)

	// UpdateUser applies a partial update to a user.
	UpdateUser(ctx context.Context, userID id.UserID, u *Update) error

	// DeleteUser removes a user by ID.
	DeleteUser(ctx context.Context, userID id.UserID) error

	// ListUsers returns users matching the filter, never with password hashes.
	ListUsers(ctx context.Context, filter *ListFilter) ([]*User, error)
}
