package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/freefire-tournaments/internal/logger"
	"github.com/iliyamo/freefire-tournaments/internal/service"
)

type LeaderboardHandler struct {
	Board *service.LeaderboardService
	Log   *zap.Logger
}

func NewLeaderboardHandler(board *service.LeaderboardService, log *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{Board: board, Log: logger.OrNop(log)}
}

// Top handles GET /leaderboards?game_type=&limit=.
func (h *LeaderboardHandler) Top(c echo.Context) error {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return badRequest(c, "limit must be an integer")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	entries, err := h.Board.Top(ctx, c.QueryParam("game_type"), limit)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"leaderboard": entries})
}
