package tier

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lucasviinic/flashly-api/pkg/cache"
)

// MemoryCache is a process-local DisplayCache for single instance deploys.
type MemoryCache struct {
	lru *cache.LRU[uuid.UUID, Tier]
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 10_000
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &MemoryCache{lru: cache.New[uuid.UUID, Tier](size, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, userID uuid.UUID) (Tier, bool, error) {
	t, ok := c.lru.Get(userID)
	return t, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, userID uuid.UUID, t Tier) error {
	c.lru.Put(userID, t)
	return nil
}
