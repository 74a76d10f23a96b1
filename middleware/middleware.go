// Package middleware provides HTTP authentication and authorization
// middleware backed by the depot auth provider.
package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/xraph/forge"

	"github.com/xraph/depot"
	"github.com/xraph/depot/auth"
	"github.com/xraph/depot/id"
)

// RequireSession rejects requests without a valid session token.
func RequireSession(p *auth.Provider) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			if _, err := p.GetUser(ctx.Context(), auth.TokenFromRequest(ctx.Request())); err != nil {
				return denyResponse(ctx, err)
			}
			return next(ctx)
		}
	}
}

// Require enforces that the session user holds a grant for scope and action.
func Require(p *auth.Provider, scope, action string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			if err := p.Authorize(ctx.Context(), auth.TokenFromRequest(ctx.Request()), scope, action); err != nil {
				return denyResponse(ctx, err)
			}
			return next(ctx)
		}
	}
}

// RequireOrganization allows the request only if the session user belongs
// to the organization of the Forge scope. Requests without a scope pass.
func RequireOrganization(p *auth.Provider) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			u, err := p.GetUser(ctx.Context(), auth.TokenFromRequest(ctx.Request()))
			if err != nil {
				return denyResponse(ctx, err)
			}
			s, ok := forge.ScopeFrom(ctx.Context())
			if !ok || s.OrgID() == "" {
				return next(ctx)
			}
			if !memberOf(u.OrganizationIDs, s.OrgID()) {
				return denyResponse(ctx, depot.ErrForbidden)
			}
			return next(ctx)
		}
	}
}

// Session is the net/http form of RequireSession. It stores the user and
// token in the request context for auth.UserFrom and auth.TokenFrom.
func Session(p *auth.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r)
			u, err := p.GetUser(r.Context(), token)
			if err != nil {
				writeDeny(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u, token)))
		})
	}
}

func memberOf(orgs []id.OrganizationID, orgID string) bool {
	return slices.ContainsFunc(orgs, func(o id.OrganizationID) bool { return o.String() == orgID })
}

func status(err error) (int, string) {
	if errors.Is(err, depot.ErrForbidden) {
		return http.StatusForbidden, "access denied"
	}
	if errors.Is(err, depot.ErrUnauthorized) {
		return http.StatusUnauthorized, "unauthorized"
	}
	return http.StatusInternalServerError, "internal error"
}

func denyResponse(ctx forge.Context, err error) error {
	code, msg := status(err)
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(code)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": msg})
}

func writeDeny(w http.ResponseWriter, err error) {
	code, msg := status(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg}) //nolint:errcheck // client gone
}
