package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/freefire-tournaments/internal/logger"
	"github.com/iliyamo/freefire-tournaments/internal/middleware"
	"github.com/iliyamo/freefire-tournaments/internal/service"
)

// PaymentHandler drives the paid registration path: open an order, then
// poll it until it settles.
type PaymentHandler struct {
	Registrations *service.RegistrationService
	Log           *zap.Logger
}

func NewPaymentHandler(regs *service.RegistrationService, log *zap.Logger) *PaymentHandler {
	if regs == nil {
		panic("nil service passed to NewPaymentHandler")
	}
	return &PaymentHandler{Registrations: regs, Log: logger.OrNop(log)}
}

// CreateQR handles POST /payments/create-qr with {"tournament_id", "amount"}.
func (h *PaymentHandler) CreateQR(c echo.Context) error {
	var req service.OrderInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	order, err := h.Registrations.CreateOrder(ctx, middleware.UserID(c), req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, order)
}

// Status handles GET /payments/:order_id/status.
func (h *PaymentHandler) Status(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Registrations.PaymentStatus(ctx, middleware.UserID(c), c.Param("order_id"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}
