package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/freefire-tournaments/internal/logger"
	"github.com/iliyamo/freefire-tournaments/internal/service"
)

// AdminUserHandler exposes user management to admins.
type AdminUserHandler struct {
	Admin *service.AdminService
	Log   *zap.Logger
}

func NewAdminUserHandler(admin *service.AdminService, log *zap.Logger) *AdminUserHandler {
	if admin == nil {
		panic("nil service passed to NewAdminUserHandler")
	}
	return &AdminUserHandler{Admin: admin, Log: logger.OrNop(log)}
}

// List handles GET /admin/users?page=&page_size=.
func (h *AdminUserHandler) List(c echo.Context) error {
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

	res, err := h.Admin.ListUsers(ctx, page, size)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Update handles PUT /admin/users/:id.
func (h *AdminUserHandler) Update(c echo.Context) error {
	var req service.UserPatch
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Admin.UpdateUser(ctx, c.Param("id"), req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, u)
}

// Delete handles DELETE /admin/users/:id.
func (h *AdminUserHandler) Delete(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.Admin.DeleteUser(ctx, c.Param("id")); err != nil {
		return writeError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
