package auth

import (
	"context"

	"github.com/xraph/depot/id"
	"github.com/xraph/depot/session"
)

// SessionCache caches token lookups. Only sessions are cached; users and
// roles are always read fresh so role and grant changes apply immediately.
type SessionCache interface {
	// Get returns the cached session for token, if available.
	Get(ctx context.Context, token string) (*session.Session, bool)

	// Set stores a session under its token.
	Set(ctx context.Context, s *session.Session)

	// InvalidateToken removes the session cached under token.
	InvalidateToken(ctx context.Context, token string)

	// InvalidateSession removes the session with the given ID.
	InvalidateSession(ctx context.Context, sessionID string)

	// InvalidateUser removes every cached session of a user.
	InvalidateUser(ctx context.Context, userID id.UserID)
}
