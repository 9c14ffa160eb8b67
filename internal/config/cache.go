package config

import "time"

// CacheConfig drives the Redis response cache in front of the public
// leaderboard. Responses larger than MaxBodyBytes are served but not
// stored; zero means no limit.
type CacheConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	TTL          time.Duration `mapstructure:"ttl"`
	Prefix       string        `mapstructure:"prefix"`
	MaxBodyBytes int           `mapstructure:"max_body_bytes"`
}
