package tier_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/lucasviinic/flashly-api/pkg/playbilling"
	"github.com/lucasviinic/flashly-api/pkg/tier"
)

// MockVerifier is a mock implementation of tier.Verifier.
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, packageName, purchaseToken string) (*playbilling.Snapshot, error) {
	args := m.Called(ctx, packageName, purchaseToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*playbilling.Snapshot), args.Error(1)
}

// mapCache is an in-memory tier.DisplayCache.
type mapCache struct {
	mu    sync.Mutex
	tiers map[uuid.UUID]tier.Tier
}

func newMapCache() *mapCache {
	return &mapCache{tiers: make(map[uuid.UUID]tier.Tier)}
}

func (c *mapCache) Get(_ context.Context, userID uuid.UUID) (tier.Tier, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tiers[userID]
	return t, ok, nil
}

func (c *mapCache) Set(_ context.Context, userID uuid.UUID, t tier.Tier) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tiers[userID] = t
	return nil
}
