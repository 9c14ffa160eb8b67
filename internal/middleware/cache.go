package middleware

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/freefire-tournaments/internal/config"
	"github.com/iliyamo/freefire-tournaments/internal/model"
)

const defaultCacheTTL = 30 * time.Second

// CacheKey names the cached entry for a request. An empty key skips the
// cache for that request.
type CacheKey func(c echo.Context) string

// LeaderboardKey keys GET /leaderboards by game type and limit. Blank or
// mixed-case game types share the entry of the game they resolve to; a
// limit that is not a positive integer bypasses the cache so the handler
// can reject it.
func LeaderboardKey(c echo.Context) string {
	game := strings.ToLower(strings.TrimSpace(c.QueryParam("game_type")))
	if game == "" {
		game = model.GameFreeFire
	}
	limit := "default"
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return ""
		}
		limit = strconv.Itoa(n)
	}
	return "leaderboard:" + game + ":" + limit
}

// bodyRecorder copies the response body while it is written to the client.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *bodyRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// NewRedisCache serves repeated JSON reads from Redis under
// cfg.Prefix:key(c). Only 200 responses no larger than cfg.MaxBodyBytes
// are stored. The middleware is a pass-through when caching is disabled
// or Redis is unavailable.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, key CacheKey) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "cache"
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			k := key(c)
			if k == "" || c.Request().Method != http.MethodGet {
				return next(c)
			}
			k = prefix + ":" + k

			ctx := c.Request().Context()
			if body, err := rdb.Get(ctx, k).Bytes(); err == nil {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.JSONBlob(http.StatusOK, body)
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if rec.status != http.StatusOK {
				return nil
			}
			if cfg.MaxBodyBytes > 0 && rec.body.Len() > cfg.MaxBodyBytes {
				return nil
			}
			// the request context may already be cancelled
			_ = rdb.Set(context.WithoutCancel(ctx), k, rec.body.Bytes(), ttl).Err()
			return nil
		}
	}
}
