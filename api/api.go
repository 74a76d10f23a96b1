// Package api provides HTTP handlers for the depot auth provider.
package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/depot/auth"
)

// API wires all depot HTTP handlers together.
type API struct {
	provider *auth.Provider
	router   forge.Router
}

// New creates an API from a Provider and a Forge router.
func New(p *auth.Provider, router forge.Router) *API {
	return &API{provider: p, router: router}
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	if err := a.RegisterRoutes(a.router); err != nil {
		panic("depot: register routes: " + err.Error())
	}
	return a.router.Handler()
}

// RegisterRoutes registers all API routes into the given Forge router.
func (a *API) RegisterRoutes(router forge.Router) error {
	return a.registerAuthRoutes(router)
}
