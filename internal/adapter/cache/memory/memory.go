// Package memory implements the URL cache in process memory.
// It is meant for single-instance deployments and tests where Redis is not available.
package memory

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const DefaultSize = 10_000

type entry struct {
	value     string
	expiresAt time.Time
}

// Cache is a size-bounded LRU whose entries also expire individually.
// Expired entries are dropped lazily on Get.
type Cache struct {
	lru *lru.Cache[string, entry]
	now func() time.Time
}

func New(size int) (*Cache, error) {
	const op = "adapter.cache.memory.New"

	if size <= 0 {
		size = DefaultSize
	}

	l, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create lru: %w", op, err)
	}

	return &Cache{
		lru: l,
		now: time.Now,
	}, nil
}

func (c *Cache) Get(_ context.Context, key string) (string, error) {
	e, ok := c.lru.Get(key)
	if !ok {
		return "", entity.ErrCacheMiss
	}

	if !c.now().Before(e.expiresAt) {
		c.lru.Remove(key)
		return "", entity.ErrCacheMiss
	}

	return e.value, nil
}

func (c *Cache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.lru.Add(key, entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	})

	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

func (c *Cache) Len() int {
	return c.lru.Len()
}
