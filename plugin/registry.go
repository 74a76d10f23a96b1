package plugin

import (
	"context"
	"log/slog"

	"github.com/xraph/depot/id"
	"github.com/xraph/depot/permission"
	"github.com/xraph/depot/session"
)

// Named entry types pair a hook with the plugin name for logging.

type loginSucceededEntry struct {
	name string
	hook LoginSucceeded
}
type loginFailedEntry struct {
	name string
	hook LoginFailed
}
type loggedOutEntry struct {
	name string
	hook LoggedOut
}
type sessionsRevokedEntry struct {
	name string
	hook SessionsRevoked
}
type permissionResolvedEntry struct {
	name string
	hook PermissionResolved
}
type permissionDeniedEntry struct {
	name string
	hook PermissionDenied
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	loginSucceeded     []loginSucceededEntry
	loginFailed        []loginFailedEntry
	loggedOut          []loggedOutEntry
	sessionsRevoked    []sessionsRevokedEntry
	permissionResolved []permissionResolvedEntry
	permissionDenied   []permissionDeniedEntry
	shutdown           []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(LoginSucceeded); ok {
		r.loginSucceeded = append(r.loginSucceeded, loginSucceededEntry{name, h})
	}
	if h, ok := p.(LoginFailed); ok {
		r.loginFailed = append(r.loginFailed, loginFailedEntry{name, h})
	}
	if h, ok := p.(LoggedOut); ok {
		r.loggedOut = append(r.loggedOut, loggedOutEntry{name, h})
	}
	if h, ok := p.(SessionsRevoked); ok {
		r.sessionsRevoked = append(r.sessionsRevoked, sessionsRevokedEntry{name, h})
	}
	if h, ok := p.(PermissionResolved); ok {
		r.permissionResolved = append(r.permissionResolved, permissionResolvedEntry{name, h})
	}
	if h, ok := p.(PermissionDenied); ok {
		r.permissionDenied = append(r.permissionDenied, permissionDeniedEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// ──────────────────────────────────────────────────
// Session event emitters
// ──────────────────────────────────────────────────

// EmitLoginSucceeded notifies all plugins that implement LoginSucceeded.
func (r *Registry) EmitLoginSucceeded(ctx context.Context, s *session.Session) {
	for _, e := range r.loginSucceeded {
		if err := e.hook.OnLoginSucceeded(ctx, s); err != nil {
			r.logHookError("OnLoginSucceeded", e.name, err)
		}
	}
}

// EmitLoginFailed notifies all plugins that implement LoginFailed.
func (r *Registry) EmitLoginFailed(ctx context.Context, email string) {
	for _, e := range r.loginFailed {
		if err := e.hook.OnLoginFailed(ctx, email); err != nil {
			r.logHookError("OnLoginFailed", e.name, err)
		}
	}
}

// EmitLoggedOut notifies all plugins that implement LoggedOut.
func (r *Registry) EmitLoggedOut(ctx context.Context, token string) {
	for _, e := range r.loggedOut {
		if err := e.hook.OnLoggedOut(ctx, token); err != nil {
			r.logHookError("OnLoggedOut", e.name, err)
		}
	}
}

// EmitSessionsRevoked notifies all plugins that implement SessionsRevoked.
func (r *Registry) EmitSessionsRevoked(ctx context.Context, userID id.UserID, count int64) {
	for _, e := range r.sessionsRevoked {
		if err := e.hook.OnSessionsRevoked(ctx, userID, count); err != nil {
			r.logHookError("OnSessionsRevoked", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Permission event emitters
// ──────────────────────────────────────────────────

// EmitPermissionResolved notifies all plugins that implement PermissionResolved.
func (r *Registry) EmitPermissionResolved(ctx context.Context, userID id.UserID, p *permission.Permission) {
	for _, e := range r.permissionResolved {
		if err := e.hook.OnPermissionResolved(ctx, userID, p); err != nil {
			r.logHookError("OnPermissionResolved", e.name, err)
		}
	}
}

// EmitPermissionDenied notifies all plugins that implement PermissionDenied.
func (r *Registry) EmitPermissionDenied(ctx context.Context, userID id.UserID, scope, action string) {
	for _, e := range r.permissionDenied {
		if err := e.hook.OnPermissionDenied(ctx, userID, scope, action); err != nil {
			r.logHookError("OnPermissionDenied", e.name, err)
		}
	}
}

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated; they must not block auth.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
