package handler // handler defines http handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// requestTimeout bounds a handler's work, including calls to external
// collaborators.
const requestTimeout = 20 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// queryInt reads an optional integer query parameter. Missing means 0.
func queryInt(c echo.Context, name string) (int, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
