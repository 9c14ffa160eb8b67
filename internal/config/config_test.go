package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setMemoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setMemoryEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.Equal(t, 1440, cfg.JWT.AccessTTLMin)
	assert.Equal(t, 15*time.Minute, cfg.Payment.OrderTTL)
	assert.True(t, cfg.Payment.RevalidateOnConfirm)
	assert.Equal(t, "static", cfg.Payment.OracleMode)
	assert.Equal(t, 15*time.Second, cfg.HTTP.Timeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "cache", cfg.Cache.Prefix)
	assert.Equal(t, 60, cfg.RateLimit.Capacity)
	assert.False(t, cfg.Seed.DemoData)
}

func TestLoadSeedSettings(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("SEED_DEMO_DATA", "true")
	t.Setenv("SEED_PLAYERS", "5")
	t.Setenv("SEED_RANDOM_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Seed.DemoData)
	assert.Equal(t, 5, cfg.Seed.Players)
	assert.Equal(t, 30, cfg.Seed.Tournaments)
	assert.EqualValues(t, 42, cfg.Seed.RandomSeed)
}

func TestLoadReadsEnvironment(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("APP_PORT", "9090")
	t.Setenv("PAYMENT_ORDER_TTL", "5m")
	t.Setenv("PAYMENT_REVALIDATE_ON_CONFIRM", "false")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "30")
	t.Setenv("BCRYPT_COST", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 5*time.Minute, cfg.Payment.OrderTTL)
	assert.False(t, cfg.Payment.RevalidateOnConfirm)
	assert.Equal(t, 30, cfg.JWT.AccessTTLMin)
	assert.Equal(t, 4, cfg.Auth.BcryptCost)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadRequiresDatabaseForMySQL(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mysql")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Contains(t, err.Error(), "DB_NAME")
}

func TestLoadRejectsHTTPOracleWithoutURL(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("PAYMENT_ORACLE_MODE", "http")
	t.Setenv("PAYMENT_ORACLE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_ORACLE_URL")
}

func TestLoadRejectsUnknownLookupMode(t *testing.T) {
	setMemoryEnv(t)
	t.Setenv("FREEFIRE_MODE", "grpc")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FREEFIRE_MODE")
}

func TestRateLimitNormalize(t *testing.T) {
	rl := RateLimitConfig{Capacity: 0, Burst: 10, RefillEvery: 2 * time.Second, TTL: time.Second}.normalize()

	assert.Equal(t, 10, rl.Capacity)
	assert.Equal(t, 1, rl.RefillTokens)
	assert.Equal(t, 2*time.Second, rl.RefillInterval)
	assert.Equal(t, 10*time.Second, rl.TTL)
	assert.Equal(t, "rl", rl.Prefix)
}

func TestRedisAddress(t *testing.T) {
	assert.Equal(t, "localhost:6379", RedisConfig{}.Address())
	assert.Equal(t, "cache:6380", RedisConfig{Addr: "cache:6380"}.Address())
	assert.Equal(t, "h:1", RedisConfig{Addr: "cache:6380", Host: "h", Port: "1"}.Address())
}
