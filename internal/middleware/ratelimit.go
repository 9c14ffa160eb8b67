package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/freefire-tournaments/internal/config"
	"github.com/iliyamo/freefire-tournaments/internal/logger"
)

// takeToken refills the bucket in whole intervals, then spends one token.
// It returns {allowed, remaining, retry_after_ms}.
var takeToken = redis.NewScript(`
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval = tonumber(ARGV[4])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'refilled_at')
local tokens = tonumber(state[1]) or capacity
local refilled_at = tonumber(state[2]) or now

local steps = math.floor(math.max(0, now - refilled_at) / interval)
if steps > 0 then
	tokens = math.min(capacity, tokens + steps * refill)
	refilled_at = refilled_at + steps * interval
end

local allowed, wait = 0, 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	wait = math.max(0, interval - (now - refilled_at))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'refilled_at', refilled_at)
redis.call('EXPIRE', KEYS[1], ARGV[5])
return {allowed, tokens, wait}
`)

// NewTokenBucket limits API calls with a Redis token bucket per rate key.
// Redis errors let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	log = logger.OrNop(log)
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	parts := strings.Split(strings.ToLower(cfg.KeyStrategy), "_")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg.Prefix, parts, c)
			res, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(), int64(cfg.TTL/time.Second)).Int64Slice()
			if err != nil || len(res) != 3 {
				log.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if res[0] == 1 {
				return next(c)
			}

			secs := int(math.Ceil(float64(res[2]) / 1000))
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Debug {
				log.Info("rate limited", zap.String("key", key), zap.Int64("retry_ms", res[2]))
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"detail":      "rate limit exceeded",
				"retry_after": secs,
			})
		}
	}
}

// rateKey joins the request attributes named by parts ("ip", "user",
// "route"). Unknown parts are ignored; no known part means per-IP.
func rateKey(prefix string, parts []string, c echo.Context) string {
	key := []string{prefix}
	for _, p := range parts {
		switch p {
		case "ip":
			key = append(key, "ip", realIP(c))
		case "user":
			key = append(key, "user", userIDOr(c, "anon"))
		case "route":
			key = append(key, "route", c.Request().Method+" "+c.Path())
		}
	}
	if len(key) == 1 {
		key = append(key, "ip", realIP(c))
	}
	return strings.Join(key, ":")
}

func realIP(c echo.Context) string {
	if ip := c.RealIP(); ip != "" {
		return ip
	}
	return "unknown"
}
