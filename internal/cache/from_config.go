package cache

import (
	"context"
	"strings"
	"time"

	"application-intake-go/internal/config"
	"application-intake-go/internal/logger"
)

// NewFromConfig falls back to the memory cache when redis is selected but
// unreachable, and returns nil when caching is turned off.
func NewFromConfig(cfg config.Config) Cache {
	switch strings.ToLower(strings.TrimSpace(cfg.CacheBackend)) {
	case "", "memory":
		return NewMemoryCache()
	case "redis":
		addr := strings.TrimSpace(cfg.RedisAddr)
		if addr == "" {
			logger.Warn("REDIS_ADDR is empty, using memory cache")
			return NewMemoryCache()
		}
		rc := NewRedisCache(RedisOptions{
			Addr:      addr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			Prefix:    cfg.RedisKeyPrefix,
			Namespace: "receipts",
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			logger.Warn("redis unreachable, using memory cache", "addr", addr, "err", err)
			_ = rc.Close()
			return NewMemoryCache()
		}
		return rc
	case "none", "disabled", "off":
		return nil
	default:
		return NewMemoryCache()
	}
}
