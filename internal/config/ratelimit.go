package config

import "time"

// RateLimitConfig drives the Redis token-bucket limiter on /api.
// KeyStrategy joins "ip", "user" and "route" with underscores. Burst and
// RefillEvery are shorthands: a positive Burst overrides Capacity and a
// positive RefillEvery means one token per interval.
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Capacity       int           `mapstructure:"capacity"`
	Burst          int           `mapstructure:"burst"`
	RefillTokens   int           `mapstructure:"refill_tokens"`
	RefillInterval time.Duration `mapstructure:"refill_interval"`
	RefillEvery    time.Duration `mapstructure:"refill_every"`
	TTL            time.Duration `mapstructure:"ttl"`
	KeyStrategy    string        `mapstructure:"key_strategy"`
	Prefix         string        `mapstructure:"prefix"`
	Debug          bool          `mapstructure:"debug"`
}

// normalize applies the shorthands and clamps values so the limiter never
// sees a zero capacity or interval. Keys outlive at least five refills.
func (rl RateLimitConfig) normalize() RateLimitConfig {
	if rl.Burst > 0 {
		rl.Capacity = rl.Burst
	}
	if rl.RefillEvery > 0 {
		rl.RefillTokens = 1
		rl.RefillInterval = rl.RefillEvery
	}
	if rl.Capacity < 1 {
		rl.Capacity = 1
	}
	if rl.RefillTokens < 1 {
		rl.RefillTokens = 1
	}
	if rl.RefillInterval <= 0 {
		rl.RefillInterval = time.Second
	}
	if rl.Prefix == "" {
		rl.Prefix = "rl"
	}
	if minTTL := 5 * rl.RefillInterval; rl.TTL < minTTL {
		rl.TTL = minTTL
	}
	return rl
}
