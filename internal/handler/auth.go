package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/freefire-tournaments/internal/logger"
	"github.com/iliyamo/freefire-tournaments/internal/middleware"
	"github.com/iliyamo/freefire-tournaments/internal/model"
	"github.com/iliyamo/freefire-tournaments/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth    *service.AuthService
	Players *service.PlayerService
	Log     *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, players *service.PlayerService, log *zap.Logger) *AuthHandler {
	if auth == nil || players == nil {
		panic("nil service passed to NewAuthHandler")
	}
	return &AuthHandler{Auth: auth, Players: players, Log: logger.OrNop(log)}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyReq struct {
	UID    string `json:"free_fire_uid"`
	Region string `json:"region"`
}

type authResp struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresAt   time.Time  `json:"expires_at"`
	User        model.User `json:"user"`
}

func sessionResp(s service.Session) authResp {
	return authResp{AccessToken: s.Token.Token, TokenType: "bearer", ExpiresAt: s.Token.Exp, User: s.User}
}

// Register: create user and return a token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	sess, err := h.Auth.Register(ctx, req)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, sessionResp(sess))
}

// Login: verify credentials and return a new token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email/password required")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	sess, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, sessionResp(sess))
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "unauthorized"})
	}
	return c.JSON(http.StatusOK, u)
}

// VerifyFreeFire binds a Free Fire UID to the caller after looking it up.
func (h *AuthHandler) VerifyFreeFire(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	u, err := h.Players.VerifyFreeFire(ctx, middleware.UserID(c), req.UID, req.Region)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Free Fire account verified", "user": u})
}

// ValidateFreeFire is the public UID lookup: GET /validate-freefire?uid=&region=.
func (h *AuthHandler) ValidateFreeFire(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.Players.ValidateUID(ctx, c.QueryParam("uid"), c.QueryParam("region"))
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}
