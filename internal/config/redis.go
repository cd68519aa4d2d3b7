package config

// Redis backs the per-tenant contact cache.  It is optional: when no address
// is configured or the server does not answer a ping, NewRedisClient returns
// nil and the cache middleware degrades to a pass-through.

import (
	"context"
	"crypto/tls"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient instantiates a Redis client using environment variables.
// Supported variables are:
//
//	REDIS_URL – redis:// or rediss:// URL (takes precedence)
//	REDIS_ADDR – host:port of the server
//	REDIS_PASSWORD – optional password
//	REDIS_DB – database number (default 0)
//	REDIS_TLS – enable TLS when "true" or "1"
//
// Without REDIS_URL or REDIS_ADDR no client is created.
func NewRedisClient(ctx context.Context) *redis.Client {
	var opts *redis.Options
	if raw := os.Getenv("REDIS_URL"); raw != "" {
		parsed, err := redis.ParseURL(raw)
		if err != nil {
			zap.L().Warn("invalid REDIS_URL, cache disabled", zap.Error(err))
			return nil
		}
		opts = parsed
	} else {
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			zap.L().Info("redis not configured, cache disabled")
			return nil
		}
		opts = &redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		}
		if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		zap.L().Warn("redis ping failed, cache disabled", zap.String("addr", opts.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}
