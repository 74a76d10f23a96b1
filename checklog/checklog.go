// Package checklog defines the auth audit log Entry entity and a plugin
// that records one entry per auth decision.
package checklog

import (
	"time"

	"github.com/xraph/depot/id"
)

// Kind names the auth event an entry records.
type Kind string

// Kinds recorded by the Recorder.
const (
	KindLoginSucceeded     Kind = "login_succeeded"
	KindLoginFailed        Kind = "login_failed"
	KindLoggedOut          Kind = "logged_out"
	KindSessionsRevoked    Kind = "sessions_revoked"
	KindPermissionResolved Kind = "permission_resolved"
	KindPermissionDenied   Kind = "permission_denied"
)

// Entry is a single auth audit record. Tokens are never stored; a logout
// is recorded by session, when known.
type Entry struct {
	ID        id.CheckLogID `json:"id"`
	Kind      Kind          `json:"kind"`
	UserID    string        `json:"user_id,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
	Email     string        `json:"email,omitempty"`
	Scope     string        `json:"scope,omitempty"`
	Action    string        `json:"action,omitempty"`
	Count     int64         `json:"count,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// QueryFilter contains filters for querying check logs. Results are
// newest first.
type QueryFilter struct {
	UserID string     `json:"user_id,omitempty"`
	Kind   Kind       `json:"kind,omitempty"`
	Scope  string     `json:"scope,omitempty"`
	After  *time.Time `json:"after,omitempty"`
	Before *time.Time `json:"before,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
}

// Matches reports whether e passes every set field of f.
func (f *QueryFilter) Matches(e *Entry) bool {
	if f == nil {
		return true
	}
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.Scope != "" && e.Scope != f.Scope {
		return false
	}
	if f.After != nil && e.CreatedAt.Before(*f.After) {
		return false
	}
	if f.Before != nil && e.CreatedAt.After(*f.Before) {
		return false
	}
	return true
}
