// Package plugin defines the plugin system for depot.
// Plugins are notified of auth lifecycle events (login, logout, permission
// resolved or denied) and can react with audit logging, metrics or
// alerting.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/xraph/depot/id"
	"github.com/xraph/depot/permission"
	"github.com/xraph/depot/session"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Session lifecycle hooks
// ──────────────────────────────────────────────────

// LoginSucceeded is called after a session has been created.
type LoginSucceeded interface {
	OnLoginSucceeded(ctx context.Context, s *session.Session) error
}

// LoginFailed is called when credentials are rejected. The email is the
// one submitted, whether or not a user with it exists.
type LoginFailed interface {
	OnLoginFailed(ctx context.Context, email string) error
}

// LoggedOut is called after a session token has been deleted.
type LoggedOut interface {
	OnLoggedOut(ctx context.Context, token string) error
}

// SessionsRevoked is called after every session of a user was deleted.
type SessionsRevoked interface {
	OnSessionsRevoked(ctx context.Context, userID id.UserID, count int64) error
}

// ──────────────────────────────────────────────────
// Permission hooks
// ──────────────────────────────────────────────────

// PermissionResolved is called after a merged permission is returned.
type PermissionResolved interface {
	OnPermissionResolved(ctx context.Context, userID id.UserID, p *permission.Permission) error
}

// PermissionDenied is called when an authenticated user holds no grant
// for the requested scope and action.
type PermissionDenied interface {
	OnPermissionDenied(ctx context.Context, userID id.UserID, scope, action string) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
