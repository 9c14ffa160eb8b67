package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/freefire-tournaments/internal/service"
)

// statusFor maps service error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrGone):
		return http.StatusGone
	case errors.Is(err, service.ErrUpstreamTimeout):
		return http.StatusRequestTimeout
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"detail": ...}. Unexpected errors are logged
// and hidden behind a generic message.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request().Method), zap.String("path", c.Path()), zap.Error(err))
		return c.JSON(status, echo.Map{"detail": "internal server error"})
	}
	return c.JSON(status, echo.Map{"detail": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"detail": msg})
}

// HTTPErrorHandler renders errors that escape handlers, such as unknown
// routes or framework-level bind failures, in the same {"detail"} shape.
func HTTPErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			detail := http.StatusText(he.Code)
			if msg, ok := he.Message.(string); ok && msg != "" {
				detail = msg
			}
			if he.Code >= http.StatusInternalServerError {
				log.Error("unhandled http error", zap.Error(err))
			}
			_ = c.JSON(he.Code, echo.Map{"detail": detail})
			return
		}
		_ = writeError(c, log, err)
	}
}
