// Package session defines the Session entity and its store interface.
package session

import (
	"context"
	"time"

	"github.com/xraph/depot/id"
)

// Session links an opaque token to an authenticated user. It is created on
// login, looked up on every authenticated request and deleted on logout.
type Session struct {
	ID        id.SessionID `json:"id"`
	Token     string       `json:"token"`
	UserID    id.UserID    `json:"user_id"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Store defines persistence operations for sessions.
type Store interface {
	// CreateSession persists a new session.
	CreateSession(ctx context.Context, s *Session) error

	// GetSessionByToken retrieves the session with exactly this token.
	GetSessionByToken(ctx context.Context, token string) (*Session, error)

	// DeleteSessionByToken removes the session with this token. Deleting a
	// token that does not exist is not an error.
	DeleteSessionByToken(ctx context.Context, token string) error

	// ListSessionsByUser returns every session owned by a user.
	ListSessionsByUser(ctx context.Context, userID id.UserID) ([]*Session, error)

	// DeleteSessionsByUser removes every session owned by a user and
	// returns how many were removed.
	DeleteSessionsByUser(ctx context.Context, userID id.UserID) (int64, error)
}

// Watcher is implemented by stores that can report deleted sessions as
// they happen (for example through a change stream).
type Watcher interface {
	// WatchSessionDeletes calls fn with the ID of every deleted session
	// until ctx is done or the stream fails.
	WatchSessionDeletes(ctx context.Context, fn func(sessionID string)) error
}
