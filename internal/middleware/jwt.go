package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/crittertrack/crittertrack-server/internal/auth"
)

// userIDKey is the context key under which the authenticated user
// id is stored for downstream handlers. The value is the bare user
// id string and nothing more; it is never cached beyond one
// request.
const userIDKey = "user_id"

// Auth returns an Echo middleware that validates a Bearer access
// token and injects the verified user id into the request context.
// A missing header, a non-Bearer header and a token that fails
// verification all produce the same 401 body, so the response
// cannot be used to distinguish missing from invalid from expired.
func Auth(issuer *auth.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")
			userID, err := issuer.Verify(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id stored by Auth, or ""
// when the request is unauthenticated.
func UserID(c echo.Context) string {
	if v, ok := c.Get(userIDKey).(string); ok {
		return v
	}
	return ""
}
