package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/freefire-tournaments/internal/logger"
	"github.com/iliyamo/freefire-tournaments/internal/middleware"
	"github.com/iliyamo/freefire-tournaments/internal/service"
)

// TournamentHandler serves the catalog, direct registration and
// recommendations.
type TournamentHandler struct {
	Catalog       *service.CatalogService
	Registrations *service.RegistrationService
	Players       *service.PlayerService
	Log           *zap.Logger
}

func NewTournamentHandler(catalog *service.CatalogService, regs *service.RegistrationService,
	players *service.PlayerService, log *zap.Logger) *TournamentHandler {
	if catalog == nil || regs == nil || players == nil {
		panic("nil service passed to NewTournamentHandler")
	}
	return &TournamentHandler{Catalog: catalog, Registrations: regs, Players: players, Log: logger.OrNop(log)}
}

// List handles GET /tournaments?game_type=&country=&mode=&status=&page=&page_size=.
func (h *TournamentHandler) List(c echo.Context) error {
	page, ok := queryInt(c, "page")
	if !ok {
		return badRequest(c, "page must be an integer")
	}
	size, ok := queryInt(c, "page_size")
	if !ok {
		return badRequest(c, "page_size must be an integer")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Catalog.List(ctx, service.ListQuery{
		GameType: c.QueryParam("game_type"),
		Country:  c.QueryParam("country"),
		Mode:     c.QueryParam("mode"),
		Status:   c.QueryParam("status"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Get handles GET /tournaments/:id.
func (h *TournamentHandler) Get(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	t, err := h.Catalog.Get(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Create handles POST /tournaments (admin).
func (h *TournamentHandler) Create(c echo.Context) error {
	var req service.TournamentInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	t, err := h.Catalog.Create(ctx, middleware.UserID(c), req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// Update handles PUT /tournaments/:id (admin). Omitted fields are kept.
func (h *TournamentHandler) Update(c echo.Context) error {
	var req service.TournamentInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	t, err := h.Catalog.Update(ctx, c.Param("id"), req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /tournaments/:id (admin).
func (h *TournamentHandler) Delete(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Catalog.Delete(ctx, c.Param("id")); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Register handles POST /tournaments/:id/register for free tournaments.
func (h *TournamentHandler) Register(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	reg, err := h.Registrations.RegisterFree(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Successfully registered for tournament", "registration": reg})
}

// Recommended handles GET /tournaments/recommended?limit=.
func (h *TournamentHandler) Recommended(c echo.Context) error {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return badRequest(c, "limit must be an integer")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	recs, err := h.Players.Recommend(ctx, middleware.UserID(c), limit)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"recommendations": recs})
}
