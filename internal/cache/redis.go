package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var errEmptyKey = errors.New("empty cache key")

// RedisCache keeps entries under "<prefix><namespace>:<key>" so receipts
// from several deployments can share one database.
type RedisCache struct {
	client *redis.Client
	base   string
}

type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	Prefix    string
	Namespace string
}

func NewRedisCache(opts RedisOptions) *RedisCache {
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = "application_intake:"
	}
	if !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	if ns := strings.Trim(strings.TrimSpace(opts.Namespace), ":"); ns != "" {
		prefix += ns + ":"
	}
	c := redis.NewClient(&redis.Options{
		Addr:         strings.TrimSpace(opts.Addr),
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	return &RedisCache{client: c, base: prefix}
}

func (c *RedisCache) key(k string) (string, error) {
	k = strings.TrimSpace(k)
	if k == "" {
		return "", errEmptyKey
	}
	return c.base + k, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	k, err := c.key(key)
	if err != nil {
		return nil, false, err
	}
	v, err := c.client.Get(ctx, k).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("redis get %s: %w", k, err)
	}
	return v, true, nil
}

// Set stores value with ttl; ttl <= 0 stores it without expiry.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	k, err := c.key(key)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, k, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", k, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	k, err := c.key(key)
	if err != nil {
		return err
	}
	if err := c.client.Unlink(ctx, k).Err(); err != nil {
		return fmt.Errorf("redis unlink %s: %w", k, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
