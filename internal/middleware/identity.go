package middleware

// identity.go defines helpers shared by middleware and handlers for reading
// the caller stored by JWTAuth.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/freefire-tournaments/internal/model"
)

const userKey = "user"

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userKey).(model.User)
	return u, ok
}

// UserID returns the caller's id, or "" for anonymous requests.
func UserID(c echo.Context) string {
	if s, ok := c.Get("user_id").(string); ok {
		return s
	}
	return ""
}

// userIDOr returns the caller's id or fallback for anonymous requests.
func userIDOr(c echo.Context, fallback string) string {
	if id := UserID(c); id != "" {
		return id
	}
	return fallback
}
