package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/freefire-tournaments/internal/config"
	"github.com/iliyamo/freefire-tournaments/internal/handler"
	"github.com/iliyamo/freefire-tournaments/internal/logger"
	"github.com/iliyamo/freefire-tournaments/internal/metrics"
	"github.com/iliyamo/freefire-tournaments/internal/middleware"
)

// Handlers groups every HTTP handler the API mounts.
type Handlers struct {
	Health      *handler.HealthHandler
	Auth        *handler.AuthHandler
	Tournaments *handler.TournamentHandler
	Payments    *handler.PaymentHandler
	Users       *handler.UserHandler
	Admin       *handler.AdminUserHandler
	Leaderboard *handler.LeaderboardHandler
}

// Options carries the cross-cutting pieces. Redis, Metrics and Log may be
// nil; rate limiting and caching are then disabled.
type Options struct {
	Authenticator middleware.Authenticator
	RateLimit     config.RateLimitConfig
	Cache         config.CacheConfig
	Redis         *redis.Client
	Metrics       *metrics.Metrics
	Log           *zap.Logger
}

// New builds the Echo instance with the global middleware chain and every
// route mounted under /api.
func New(h Handlers, opt Options) *echo.Echo {
	log := logger.OrNop(opt.Log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler(log)

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(middleware.RequestLogger(log))
	if opt.Metrics != nil {
		e.Use(opt.Metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(opt.Metrics.Handler()))
	}

	api := e.Group("/api")
	api.Use(middleware.NewTokenBucket(opt.RateLimit, opt.Redis, log))

	jwt := middleware.JWTAuth(opt.Authenticator)
	RegisterRoutes(api, h.Health)
	RegisterAuth(api, h.Auth, jwt)
	RegisterTournaments(api, h.Tournaments, jwt)
	RegisterPayments(api, h.Payments, jwt)
	RegisterUser(api, h.Users, jwt)
	RegisterAdmin(api, h.Admin, jwt)
	RegisterLeaderboard(api, h.Leaderboard, middleware.NewRedisCache(opt.Cache, opt.Redis, middleware.LeaderboardKey))
	return e
}

// RegisterRoutes registers routes that do not require authentication and
// carry no domain logic. Currently it exposes only a health check.
func RegisterRoutes(g *echo.Group, h *handler.HealthHandler) {
	g.GET("/healthz", h.Health)
}

// RegisterAuth registers sign-up, login and the caller's profile. Tokens are
// stateless, so there is no refresh or logout endpoint.
func RegisterAuth(g *echo.Group, a *handler.AuthHandler, jwt echo.MiddlewareFunc) {
	auth := g.Group("/auth")
	auth.POST("/register", a.Register)
	auth.POST("/login", a.Login)
	auth.GET("/me", a.Me, jwt)
	auth.POST("/verify-freefire", a.VerifyFreeFire, jwt)

	g.GET("/validate-freefire", a.ValidateFreeFire)
}

// RegisterTournaments mounts the public catalog, the admin-only writes and
// direct registration. /tournaments/recommended is a static route and
// takes precedence over /tournaments/:id.
func RegisterTournaments(g *echo.Group, t *handler.TournamentHandler, jwt echo.MiddlewareFunc) {
	g.GET("/tournaments", t.List)
	g.GET("/tournaments/recommended", t.Recommended, jwt)
	g.GET("/tournaments/:id", t.Get)
	g.POST("/tournaments/:id/register", t.Register, jwt)

	admin := g.Group("/tournaments", jwt, middleware.RequireAdmin())
	admin.POST("", t.Create)
	admin.PUT("/:id", t.Update)
	admin.DELETE("/:id", t.Delete)
}

// RegisterPayments mounts the paid registration path.
func RegisterPayments(g *echo.Group, p *handler.PaymentHandler, jwt echo.MiddlewareFunc) {
	pay := g.Group("/payments", jwt)
	pay.POST("/create-qr", p.CreateQR)
	pay.GET("/:order_id/status", p.Status)
}

// RegisterUser mounts the caller's own views and player analytics.
func RegisterUser(g *echo.Group, u *handler.UserHandler, jwt echo.MiddlewareFunc) {
	g.GET("/user/tournaments", u.MyTournaments, jwt)
	g.PUT("/user/stats", u.UpdateStats, jwt)
	g.GET("/analytics/player/:id", u.PlayerAnalytics, jwt)
}

// RegisterAdmin mounts user management. Every route requires the admin role.
func RegisterAdmin(g *echo.Group, a *handler.AdminUserHandler, jwt echo.MiddlewareFunc) {
	admin := g.Group("/admin", jwt, middleware.RequireAdmin())
	admin.GET("/users", a.List)
	admin.PUT("/users/:id", a.Update)
	admin.DELETE("/users/:id", a.Delete)
}

// RegisterLeaderboard mounts the public leaderboard behind the response cache.
func RegisterLeaderboard(g *echo.Group, l *handler.LeaderboardHandler, cache echo.MiddlewareFunc) {
	g.GET("/leaderboards", l.Top, cache)
}
