package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/freefire-tournaments/internal/model"
)

// Authenticator resolves a raw bearer token to the user it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (model.User, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// stores the resolved user in the request context under "user", along with
// "user_id" and "role". Tokens whose subject no longer exists are rejected.
func JWTAuth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

			u, err := auth.Authenticate(c.Request().Context(), raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "invalid or expired token"})
			}

			c.Set(userKey, u)
			c.Set("user_id", u.ID)
			c.Set("role", u.Role())
			return next(c)
		}
	}
}
