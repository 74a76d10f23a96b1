package auth

import (
	"net/http"
	"strings"
)

// HeaderSessionToken carries a bare session token.
const HeaderSessionToken = "X-Session-Token"

// TokenFromRequest returns the session token of r, taken from an
// "Authorization: Bearer <token>" header or, failing that, from the
// X-Session-Token header.
func TokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get(HeaderSessionToken))
}
