package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/depot/auth"
)

func (a *API) registerAuthRoutes(router forge.Router) error {
	g := router.Group("/v1/auth", forge.WithGroupTags("auth"))

	if err := g.POST("/login", a.login,
		forge.WithSummary("Log in"),
		forge.WithDescription("Checks email and password and opens a session."),
		forge.WithOperationID("login"),
		forge.WithRequestSchema(LoginRequest{}),
		forge.WithCreatedResponse(&SessionResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/logout", a.logout,
		forge.WithSummary("Log out"),
		forge.WithDescription("Deletes the session of the presented token. Succeeds for unknown tokens."),
		forge.WithOperationID("logout"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/me", a.me,
		forge.WithSummary("Current user"),
		forge.WithDescription("Returns the user of the presented session token."),
		forge.WithOperationID("me"),
		forge.WithResponseSchema(http.StatusOK, "Current user", &UserResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/permissions", a.permissions,
		forge.WithSummary("Effective permission"),
		forge.WithDescription("Returns the merged permission of the current user for a scope and action."),
		forge.WithOperationID("getPermissions"),
		forge.WithRequestSchema(PermissionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Merged permission", map[string]any{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) login(ctx forge.Context, req *LoginRequest) (*SessionResponse, error) {
	sess, err := a.provider.Login(ctx.Context(), auth.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		return nil, respondError(ctx, err)
	}
	resp := &SessionResponse{
		Token:     sess.Token,
		SessionID: sess.ID.String(),
		UserID:    sess.UserID.String(),
		CreatedAt: sess.CreatedAt,
	}
	return resp, ctx.JSON(http.StatusCreated, resp)
}

func (a *API) logout(ctx forge.Context, _ *struct{}) (*struct{}, error) {
	if err := a.provider.Logout(ctx.Context(), auth.TokenFromRequest(ctx.Request())); err != nil {
		return nil, respondError(ctx, err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) me(ctx forge.Context, _ *struct{}) (*UserResponse, error) {
	u, err := a.provider.GetUser(ctx.Context(), auth.TokenFromRequest(ctx.Request()))
	if err != nil {
		return nil, respondError(ctx, err)
	}
	resp := &UserResponse{Public: u.Public()}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) permissions(ctx forge.Context, req *PermissionsRequest) (map[string]any, error) {
	if req.Scope == "" || req.Action == "" {
		return nil, forge.BadRequest("scope and action are required")
	}
	p, err := a.provider.GetPermissions(ctx.Context(), auth.TokenFromRequest(ctx.Request()), req.Scope, req.Action)
	if err != nil {
		return nil, respondError(ctx, err)
	}
	resp := p.Map()
	return resp, ctx.JSON(http.StatusOK, resp)
}
