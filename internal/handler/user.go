package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/freefire-tournaments/internal/logger"
	"github.com/iliyamo/freefire-tournaments/internal/middleware"
	"github.com/iliyamo/freefire-tournaments/internal/model"
	"github.com/iliyamo/freefire-tournaments/internal/service"
)

// UserHandler serves the caller's own data and player analytics.
type UserHandler struct {
	Registrations *service.RegistrationService
	Players       *service.PlayerService
	Log           *zap.Logger
}

func NewUserHandler(regs *service.RegistrationService, players *service.PlayerService, log *zap.Logger) *UserHandler {
	if regs == nil || players == nil {
		panic("nil service passed to NewUserHandler")
	}
	return &UserHandler{Registrations: regs, Players: players, Log: logger.OrNop(log)}
}

// MyTournaments handles GET /user/tournaments.
func (h *UserHandler) MyTournaments(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	items, err := h.Registrations.MyTournaments(ctx, middleware.UserID(c))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tournaments": items, "total": len(items)})
}

// UpdateStats handles PUT /user/stats with self-reported numbers.
func (h *UserHandler) UpdateStats(c echo.Context) error {
	var req model.PlayerStats
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Players.UpdateStats(ctx, middleware.UserID(c), req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// PlayerAnalytics handles GET /analytics/player/:id.
func (h *UserHandler) PlayerAnalytics(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Players.Analytics(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}
