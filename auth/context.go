package auth

import (
	"context"

	"github.com/xraph/depot/user"
)

type contextKey int

const (
	ctxKeyUser contextKey = iota
	ctxKeyToken
)

// WithUser returns a context carrying the authenticated user and the token
// it was resolved from.
func WithUser(ctx context.Context, u *user.User, token string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUser, u)
	ctx = context.WithValue(ctx, ctxKeyToken, token)
	return ctx
}

// UserFrom returns the authenticated user stored by WithUser.
func UserFrom(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(ctxKeyUser).(*user.User)
	return u, ok && u != nil
}

// TokenFrom returns the session token stored by WithUser.
func TokenFrom(ctx context.Context) string {
	v, ok := ctx.Value(ctxKeyToken).(string)
	if !ok {
		return ""
	}
	return v
}
