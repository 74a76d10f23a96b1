// Package store defines the aggregate persistence interface. Each entity
// package (user, role, session) defines its own store interface and the
// composite Store composes them. Backends: MongoDB and Memory.
package store

import (
	"context"

	"github.com/xraph/depot/role"
	"github.com/xraph/depot/session"
	"github.com/xraph/depot/user"
)

// Store is the aggregate persistence interface used by the auth provider.
type Store interface {
	user.Store
	role.Store
	session.Store

	// Migrate declares the indexes of every collection.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close(ctx context.Context) error
}
