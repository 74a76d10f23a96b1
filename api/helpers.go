package api

import (
	"errors"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/depot"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, depot.ErrValidation) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, depot.ErrNotFound) {
		return forge.NotFound("not found")
	}
	if errors.Is(err, depot.ErrForbidden) {
		return forge.Forbidden("access denied")
	}
	return err
}

// respondError writes 401 for authentication failures, which carry no
// detail, and maps everything else through mapError.
func respondError(ctx forge.Context, err error) error {
	if errors.Is(err, depot.ErrUnauthorized) {
		return ctx.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	if errors.Is(err, depot.ErrNotSupported) {
		return ctx.JSON(http.StatusNotImplemented, ErrorResponse{Error: "not supported"})
	}
	return mapError(err)
}
