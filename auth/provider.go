// Package auth resolves session tokens to users and users to effective
// permissions, and manages the session lifecycle.
//
//	p, err := auth.NewProvider(auth.WithStore(st))
//	sess, err := p.Login(ctx, auth.LoginRequest{Email: "ana@example.com", Password: "..."})
//	perm, err := p.GetPermissions(ctx, sess.Token, "fleet", "read")
//
// Failures to authenticate return depot.ErrUnauthorized and missing grants
// return depot.ErrForbidden. Neither says why; the reason is logged at
// DEBUG.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"

	"github.com/xraph/depot"
	"github.com/xraph/depot/cache"
	"github.com/xraph/depot/id"
	"github.com/xraph/depot/permission"
	"github.com/xraph/depot/plugin"
	"github.com/xraph/depot/schema"
	"github.com/xraph/depot/session"
	"github.com/xraph/depot/store"
	"github.com/xraph/depot/user"
)

// TokenGenerator returns a new opaque session token.
type TokenGenerator func() (string, error)

// LoginRequest carries the credentials of a login attempt.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Provider is the auth provider. It is safe for concurrent use.
type Provider struct {
	store    store.Store
	cache    SessionCache
	plugins  *plugin.Registry
	logger   *slog.Logger
	config   depot.Config
	newToken TokenGenerator

	// cacheMu orders cache fills against invalidations; evictions counts
	// invalidations so a fill that read the store before one is dropped.
	cacheMu   sync.Mutex
	evictions atomic.Uint64
}

// NewProvider creates a provider with the given options. A store is
// required. A session cache is only used when the store implements
// session.Watcher, since deletes made by other processes are otherwise
// never seen: an explicit WithCache fails with depot.ErrNotSupported and a
// positive Config.SessionCacheTTL is ignored with a warning.
func NewProvider(opts ...Option) (*Provider, error) {
	p := &Provider{
		logger: slog.Default(),
		config: depot.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.store == nil {
		return nil, errors.New("depot/auth: store is required")
	}
	if p.plugins == nil {
		p.plugins = plugin.NewRegistry(p.logger)
	}
	if p.newToken == nil {
		p.newToken = RandomToken(p.config.SessionTokenBytes)
	}
	_, watchable := p.store.(session.Watcher)
	if p.cache != nil && !watchable {
		return nil, fmt.Errorf("%w: session cache needs a store that watches session deletes", depot.ErrNotSupported)
	}
	if p.cache == nil && p.config.SessionCacheTTL > 0 {
		if watchable {
			p.cache = cache.NewMemory(cache.WithTTL(p.config.SessionCacheTTL))
		} else {
			p.logger.Warn("session cache disabled: store cannot watch session deletes",
				slog.Duration("ttl", p.config.SessionCacheTTL))
		}
	}
	return p, nil
}

// Store returns the underlying composite store.
func (p *Provider) Store() store.Store { return p.store }

// Plugins returns the plugin registry.
func (p *Provider) Plugins() *plugin.Registry { return p.plugins }

// Start performs any startup initialization.
func (p *Provider) Start(_ context.Context) error { return nil }

// Stop notifies plugins of shutdown.
func (p *Provider) Stop(ctx context.Context) error {
	if p.plugins != nil {
		p.plugins.EmitShutdown(ctx)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Identity and permissions
// ──────────────────────────────────────────────────

// GetUser resolves token to the full user record of its session.
func (p *Provider) GetUser(ctx context.Context, token string) (*user.User, error) {
	if token == "" {
		return nil, p.unauthorized(ctx, "empty token")
	}

	sess, err := p.lookupSession(ctx, token)
	if errors.Is(err, depot.ErrNotFound) {
		return nil, p.unauthorized(ctx, "session not found")
	}
	if err != nil {
		return nil, err
	}

	u, err := p.store.GetUser(ctx, sess.UserID, true)
	if errors.Is(err, depot.ErrNotFound) {
		return nil, p.unauthorized(ctx, "session user not found", slog.String("session_id", sess.ID.String()))
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetPermissions returns the effective permission of the token's user for
// scope and action: every matching grant from the user's roles (in the
// order the roles are fetched), then the user's own grants, merged left to
// right.
func (p *Provider) GetPermissions(ctx context.Context, token, scope, action string) (*permission.Permission, error) {
	u, err := p.GetUser(ctx, token)
	if err != nil {
		return nil, err
	}

	roles, err := p.store.ListRolesByIDs(ctx, u.RoleIDs)
	if err != nil {
		return nil, err
	}

	var candidates []permission.Grant
	for _, r := range roles {
		candidates = append(candidates, r.Permissions...)
	}
	candidates = append(candidates, u.Permissions...)

	matched := permission.Filter(candidates, scope, action)
	if len(matched) == 0 {
		return nil, p.forbidden(ctx, u.ID, scope, action)
	}

	merged, err := permission.Merge(matched)
	if err != nil {
		p.logger.Error("permission merge failed",
			slog.String("user_id", u.ID.String()),
			slog.String("scope", scope),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: merge permissions: %w", depot.ErrInternal, err)
	}
	if merged.IsEmpty() {
		return nil, p.forbidden(ctx, u.ID, scope, action)
	}

	if p.plugins != nil {
		p.plugins.EmitPermissionResolved(ctx, u.ID, &merged)
	}
	return &merged, nil
}

// Authorize returns nil when the token's user holds any grant for scope and
// action.
func (p *Provider) Authorize(ctx context.Context, token, scope, action string) error {
	_, err := p.GetPermissions(ctx, token, scope, action)
	return err
}

// ──────────────────────────────────────────────────
// Session lifecycle
// ──────────────────────────────────────────────────

// Login checks the credentials and creates a new session.
func (p *Provider) Login(ctx context.Context, req LoginRequest) (*session.Session, error) {
	if err := schema.Struct().Validate(&req); err != nil {
		return nil, err
	}

	u, err := p.store.GetUserByEmail(ctx, req.Email, true)
	if errors.Is(err, depot.ErrNotFound) {
		// Spend the same time as a real comparison.
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(req.Password)) //nolint:errcheck // always fails
		return nil, p.loginFailed(ctx, req.Email, "unknown email")
	}
	if err != nil {
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, p.loginFailed(ctx, req.Email, "user has no password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, p.loginFailed(ctx, req.Email, "password mismatch")
	}

	token, err := p.newToken()
	if err != nil {
		return nil, fmt.Errorf("%w: generate session token: %w", depot.ErrInternal, err)
	}
	sess := &session.Session{
		ID:     id.NewSessionID(),
		Token:  token,
		UserID: u.ID,
	}
	if err := p.store.CreateSession(ctx, sess); err != nil {
		if errors.Is(err, depot.ErrUnacknowledged) {
			return nil, fmt.Errorf("%w: session write not acknowledged", depot.ErrInternal)
		}
		return nil, err
	}

	p.fill(ctx, sess, p.evictions.Load())
	if p.plugins != nil {
		p.plugins.EmitLoginSucceeded(ctx, sess)
	}
	p.logger.Info("login succeeded",
		slog.String("user_id", u.ID.String()),
		slog.String("session_id", sess.ID.String()),
	)
	return sess, nil
}

// Logout deletes the session with token. Logging out a token that has no
// session succeeds.
func (p *Provider) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := p.store.DeleteSessionByToken(ctx, token); err != nil {
		return err
	}
	p.evict(func(c SessionCache) { c.InvalidateToken(ctx, token) })
	if p.plugins != nil {
		p.plugins.EmitLoggedOut(ctx, token)
	}
	return nil
}

// LogoutAll deletes every session of a user and returns how many there
// were.
func (p *Provider) LogoutAll(ctx context.Context, userID id.UserID) (int64, error) {
	n, err := p.store.DeleteSessionsByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	p.evict(func(c SessionCache) { c.InvalidateUser(ctx, userID) })
	if p.plugins != nil {
		p.plugins.EmitSessionsRevoked(ctx, userID, n)
	}
	p.logger.Info("sessions revoked",
		slog.String("user_id", userID.String()),
		slog.Int64("count", n),
	)
	return n, nil
}

// WatchSessions evicts cached sessions as they are deleted by any process.
// It blocks until ctx is done. Without a cache it returns immediately.
func (p *Provider) WatchSessions(ctx context.Context) error {
	if p.cache == nil {
		return nil
	}
	w, ok := p.store.(session.Watcher)
	if !ok {
		return fmt.Errorf("%w: store cannot watch sessions", depot.ErrNotSupported)
	}
	return w.WatchSessionDeletes(ctx, func(sessionID string) {
		p.evict(func(c SessionCache) { c.InvalidateSession(ctx, sessionID) })
	})
}

// ──────────────────────────────────────────────────
// Account recovery (not wired to a mailer)
// ──────────────────────────────────────────────────

// ResetPassword is not supported.
func (p *Provider) ResetPassword(_ context.Context, _, _ string) error {
	return fmt.Errorf("%w: reset password", depot.ErrNotSupported)
}

// SendEmailVerification is not supported.
func (p *Provider) SendEmailVerification(_ context.Context, _ id.UserID) error {
	return fmt.Errorf("%w: send email verification", depot.ErrNotSupported)
}

// SendPasswordResetEmail is not supported.
func (p *Provider) SendPasswordResetEmail(_ context.Context, _ string) error {
	return fmt.Errorf("%w: send password reset email", depot.ErrNotSupported)
}

// SendVerificationEmail is not supported.
func (p *Provider) SendVerificationEmail(_ context.Context, _ string) error {
	return fmt.Errorf("%w: send verification email", depot.ErrNotSupported)
}

// VerifyEmail is not supported.
func (p *Provider) VerifyEmail(_ context.Context, _ string) error {
	return fmt.Errorf("%w: verify email", depot.ErrNotSupported)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (p *Provider) lookupSession(ctx context.Context, token string) (*session.Session, error) {
	if p.cache != nil {
		if s, ok := p.cache.Get(ctx, token); ok {
			return s, nil
		}
	}
	seen := p.evictions.Load()
	s, err := p.store.GetSessionByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	p.fill(ctx, s, seen)
	return s, nil
}

// fill caches s unless an invalidation ran since seen was read, in which
// case s may already be deleted.
func (p *Provider) fill(ctx context.Context, s *session.Session, seen uint64) {
	if p.cache == nil {
		return
	}
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	if p.evictions.Load() != seen {
		return
	}
	p.cache.Set(ctx, s)
}

func (p *Provider) evict(fn func(SessionCache)) {
	if p.cache == nil {
		return
	}
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	p.evictions.Add(1)
	fn(p.cache)
}

func (p *Provider) unauthorized(ctx context.Context, reason string, attrs ...slog.Attr) error {
	p.logger.LogAttrs(ctx, slog.LevelDebug, "unauthorized",
		append([]slog.Attr{slog.String("reason", reason)}, attrs...)...)
	return depot.ErrUnauthorized
}

func (p *Provider) forbidden(ctx context.Context, userID id.UserID, scope, action string) error {
	p.logger.LogAttrs(ctx, slog.LevelDebug, "forbidden",
		slog.String("reason", "no matching grant"),
		slog.String("user_id", userID.String()),
		slog.String("scope", scope),
		slog.String("action", action),
	)
	if p.plugins != nil {
		p.plugins.EmitPermissionDenied(ctx, userID, scope, action)
	}
	return depot.ErrForbidden
}

func (p *Provider) loginFailed(ctx context.Context, email, reason string) error {
	if p.plugins != nil {
		p.plugins.EmitLoginFailed(ctx, email)
	}
	return p.unauthorized(ctx, reason)
}

// RandomToken returns a generator of base64url tokens carrying n bytes of
// entropy from crypto/rand.
func RandomToken(n int) TokenGenerator {
	if n <= 0 {
		n = 32
	}
	return func() (string, error) {
		b := make([]byte, n)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		return base64.RawURLEncoding.EncodeToString(b), nil
	}
}

// HashPassword returns the bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("depot/auth: hash password: %w", err)
	}
	return string(h), nil
}

var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("depot-dummy-password"), bcrypt.DefaultCost) //nolint:errcheck // fixed input
	return h
})
