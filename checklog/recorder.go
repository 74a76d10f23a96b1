package checklog

import (
	"context"
	"time"

	"github.com/xraph/depot/id"
	"github.com/xraph/depot/permission"
	"github.com/xraph/depot/plugin"
	"github.com/xraph/depot/session"
)

// Compile-time hook checks.
var (
	_ plugin.Plugin             = (*Recorder)(nil)
	_ plugin.LoginSucceeded     = (*Recorder)(nil)
	_ plugin.LoginFailed        = (*Recorder)(nil)
	_ plugin.LoggedOut          = (*Recorder)(nil)
	_ plugin.SessionsRevoked    = (*Recorder)(nil)
	_ plugin.PermissionResolved = (*Recorder)(nil)
	_ plugin.PermissionDenied   = (*Recorder)(nil)
)

// Recorder is a plugin writing one Entry per auth event. Write failures
// are returned to the plugin registry, which logs them; they never fail
// the auth call.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder creates a Recorder writing to s.
func NewRecorder(s Store) *Recorder {
	return &Recorder{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// Name implements plugin.Plugin.
func (r *Recorder) Name() string { return "checklog" }

func (r *Recorder) record(ctx context.Context, e *Entry) error {
	e.ID = id.NewCheckLogID()
	e.CreatedAt = r.now()
	return r.store.CreateCheckLog(context.WithoutCancel(ctx), e)
}

// OnLoginSucceeded implements plugin.LoginSucceeded.
func (r *Recorder) OnLoginSucceeded(ctx context.Context, s *session.Session) error {
	return r.record(ctx, &Entry{Kind: KindLoginSucceeded, UserID: s.UserID.String(), SessionID: s.ID.String()})
}

// OnLoginFailed implements plugin.LoginFailed.
func (r *Recorder) OnLoginFailed(ctx context.Context, email string) error {
	return r.record(ctx, &Entry{Kind: KindLoginFailed, Email: email})
}

// OnLoggedOut implements plugin.LoggedOut.
func (r *Recorder) OnLoggedOut(ctx context.Context, _ string) error {
	return r.record(ctx, &Entry{Kind: KindLoggedOut})
}

// OnSessionsRevoked implements plugin.SessionsRevoked.
func (r *Recorder) OnSessionsRevoked(ctx context.Context, userID id.UserID, count int64) error {
	return r.record(ctx, &Entry{Kind: KindSessionsRevoked, UserID: userID.String(), Count: count})
}

// OnPermissionResolved implements plugin.PermissionResolved.
func (r *Recorder) OnPermissionResolved(ctx context.Context, userID id.UserID, p *permission.Permission) error {
	return r.record(ctx, &Entry{Kind: KindPermissionResolved, UserID: userID.String(), Scope: p.Scope, Action: p.Action})
}

// OnPermissionDenied implements plugin.PermissionDenied.
func (r *Recorder) OnPermissionDenied(ctx context.Context, userID id.UserID, scope, action string) error {
	return r.record(ctx, &Entry{Kind: KindPermissionDenied, UserID: userID.String(), Scope: scope, Action: action})
}
