package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/crittertrack/crittertrack-server/internal/middleware"
	"github.com/crittertrack/crittertrack-server/internal/store"
)

// boundCtx derives a store-call context from the request, bounded
// by the configured store timeout. The bound covers both pool
// queueing and query execution.
func boundCtx(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), d)
}

// currentUserID pulls the authenticated user id set by the auth
// middleware. Routes behind the middleware always have one; an
// empty id on a protected route means a wiring bug, reported as 401.
func currentUserID(c echo.Context) (string, bool) {
	id := middleware.UserID(c)
	return id, id != ""
}

// storeError converts an unexpected store failure into a generic
// 500 response. The cause is logged server-side only; internal
// detail (SQL text, upstream bodies) never reaches the client.
// Domain outcomes (ErrNotFound, ErrEmailExists) are handled at the
// call sites and must not end up here.
func storeError(c echo.Context, err error) error {
	if errors.Is(err, store.ErrUnavailable) {
		c.Logger().Errorf("store unavailable: %v", err)
	} else {
		c.Logger().Errorf("store error: %v", err)
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
