package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	tokens     int
	lastRefill time.Time
}

// MemoryStore keeps buckets in process. Full buckets are dropped once
// MaxKeys is exceeded, which bounds memory without a background sweeper.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	maxKeys int
}

const defaultMaxKeys = 10_000

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*bucket), maxKeys: defaultMaxKeys}
}

func (s *MemoryStore) Take(_ context.Context, key string, cfg Config, now time.Time) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok {
		if len(s.buckets) >= s.maxKeys {
			s.prune(cfg, now)
		}
		b = &bucket{tokens: cfg.Capacity, lastRefill: now}
		s.buckets[key] = b
	}
	refill(b, cfg, now)

	b.tokens--
	remaining := b.tokens
	if b.tokens < 0 {
		b.tokens = 0
	}
	return remaining, b.lastRefill.Add(cfg.RefillInterval), nil
}

// prune removes buckets that would be full by now.
func (s *MemoryStore) prune(cfg Config, now time.Time) {
	for key, b := range s.buckets {
		refill(b, cfg, now)
		if b.tokens >= cfg.Capacity {
			delete(s.buckets, key)
		}
	}
}

func refill(b *bucket, cfg Config, now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed < cfg.RefillInterval {
		return
	}
	intervals := min(int64(elapsed/cfg.RefillInterval), int64(cfg.Capacity/cfg.RefillRate+1))
	b.tokens = min(b.tokens+int(intervals)*cfg.RefillRate, cfg.Capacity)
	b.lastRefill = b.lastRefill.Add(time.Duration(intervals) * cfg.RefillInterval)
	if b.tokens == cfg.Capacity {
		b.lastRefill = now
	}
}
