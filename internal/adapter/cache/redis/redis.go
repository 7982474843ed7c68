// Package redis implements the URL cache on top of Redis strings with expiry.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"

	goredis "github.com/redis/go-redis/v9"
)

// Cache stores values as plain Redis strings (GET / SET EX / DEL).
type Cache struct {
	client    goredis.Cmdable
	keyPrefix string
}

type Option func(c *Cache)

// WithKeyPrefix namespaces every key, useful when the Redis database is shared.
func WithKeyPrefix(prefix string) Option {
	return func(c *Cache) {
		c.keyPrefix = prefix
	}
}

func New(client goredis.Cmdable, opts ...Option) *Cache {
	c := &Cache{client: client}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Cache) key(key string) string {
	return c.keyPrefix + key
}

func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	const op = "adapter.cache.redis.Cache.Get"

	val, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", entity.ErrCacheMiss
		}

		return "", fmt.Errorf("%s: failed to get key: %w", op, err)
	}

	return val, nil
}

func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	const op = "adapter.cache.redis.Cache.Set"

	if err := c.client.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%s: failed to set key: %w", op, err)
	}

	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	const op = "adapter.cache.redis.Cache.Delete"

	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("%s: failed to delete key: %w", op, err)
	}

	return nil
}
