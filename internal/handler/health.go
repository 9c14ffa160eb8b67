package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler answers liveness checks. Ping, when set, checks the
// storage backend.
type HealthHandler struct {
	Ping func(ctx context.Context) error
}

// Health returns 200 with {"status":"ok"} or 503 when storage is down.
func (h *HealthHandler) Health(c echo.Context) error {
	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "detail": "storage unavailable"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
