package tier

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "flashly:tier:"

// RedisCache is a DisplayCache backed by redis string keys with a TTL.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, userID uuid.UUID) (Tier, bool, error) {
	v, err := c.client.Get(ctx, cacheKeyPrefix+userID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return Free, false, nil
	}
	if err != nil {
		return Free, false, err
	}

	n, err := strconv.Atoi(v)
	if err != nil || !Tier(n).Valid() {
		return Free, false, nil
	}
	return Tier(n), true, nil
}

func (c *RedisCache) Set(ctx context.Context, userID uuid.UUID, t Tier) error {
	return c.client.Set(ctx, cacheKeyPrefix+userID.String(), strconv.Itoa(int(t)), c.ttl).Err()
}
