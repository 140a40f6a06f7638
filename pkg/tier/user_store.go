package tier

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryUserStore is an in-process UserStore.
type MemoryUserStore struct {
	mu    sync.RWMutex
	tiers map[uuid.UUID]Tier
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{tiers: make(map[uuid.UUID]Tier)}
}

// Add registers a user with an initial tier.
func (s *MemoryUserStore) Add(userID uuid.UUID, t Tier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiers[userID] = t
}

func (s *MemoryUserStore) GetTier(_ context.Context, userID uuid.UUID) (Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tiers[userID]
	if !ok {
		return Free, ErrUserNotFound
	}
	return t, nil
}

func (s *MemoryUserStore) SetTier(_ context.Context, userID uuid.UUID, t Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tiers[userID]; !ok {
		return ErrUserNotFound
	}
	s.tiers[userID] = t
	return nil
}
