package config

// Redis backs the distributed rate limiter and the leaderboard response
// cache. If the server cannot be reached at startup, NewRedisClient returns
// nil and both middlewares turn into pass-throughs.

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings. Host and Port take precedence over
// Addr when both are set; the default address is localhost:6379.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

// Address resolves the host:port to dial.
func (r RedisConfig) Address() string {
	if r.Host != "" && r.Port != "" {
		return r.Host + ":" + r.Port
	}
	if r.Addr != "" {
		return r.Addr
	}
	return "localhost:6379"
}

// NewRedisClient dials Redis and pings it with a short timeout.
// The returned client is nil if a connection cannot be established.
func NewRedisClient(rc RedisConfig) *redis.Client {
	var tlsConf *tls.Config
	if rc.TLS {
		tlsConf = &tls.Config{InsecureSkipVerify: true}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      rc.Address(),
		Password:  rc.Password,
		DB:        rc.DB,
		TLSConfig: tlsConf,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
