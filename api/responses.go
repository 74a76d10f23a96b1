package api

import (
	"time"

	"github.com/xraph/depot/user"
)

// SessionResponse is returned by a successful login.
type SessionResponse struct {
	Token     string    `json:"token" description:"Opaque session token"`
	SessionID string    `json:"session_id" description:"Session identifier"`
	UserID    string    `json:"user_id" description:"Authenticated user"`
	CreatedAt time.Time `json:"created_at" description:"Session creation time"`
}

// UserResponse wraps the redacted user.
type UserResponse struct {
	*user.Public
}

// ErrorResponse is the body of errors written directly by the handlers.
type ErrorResponse struct {
	Error string `json:"error" description:"Error message"`
}
