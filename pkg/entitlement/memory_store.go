package entitlement

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lucasviinic/flashly-api/pkg/playbilling"
)

// MemoryStore is an in-process Store. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	byToken map[string]*Record
	byID    map[uuid.UUID]*Record
}

// NewMemoryStore creates an empty store. A nil clock uses time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		now:     now,
		byToken: make(map[string]*Record),
		byID:    make(map[uuid.UUID]*Record),
	}
}

func (s *MemoryStore) Upsert(_ context.Context, snap *playbilling.Snapshot, userID uuid.UUID) (*Record, error) {
	if err := validateUpsert(snap, userID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.tick()
	r, ok := s.byToken[snap.PurchaseToken]
	if !ok {
		r = &Record{ID: uuid.New(), UserID: userID, CreatedAt: now}
		s.byToken[snap.PurchaseToken] = r
		s.byID[r.ID] = r
	}
	r.apply(snap, now)
	r.UpdatedAt = now

	return clone(r), nil
}

func (s *MemoryStore) GetByToken(_ context.Context, token string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(r), nil
}

func (s *MemoryStore) GetActiveForUser(_ context.Context, userID uuid.UUID) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *Record
	for _, r := range s.byID {
		if r.UserID != userID || !r.Entitled || r.DeletedAt != nil {
			continue
		}
		if latest == nil || r.UpdatedAt.After(latest.UpdatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return clone(latest), nil
}

func (s *MemoryStore) ListActiveForUser(_ context.Context, userID uuid.UUID, now time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Record
	for _, r := range s.byID {
		if r.UserID == userID && r.IsActive && r.DeletedAt == nil && r.ExpirationDate.After(now) {
			out = append(out, *clone(r))
		}
	}
	slices.SortFunc(out, func(a, b Record) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}

func (s *MemoryStore) MarkInactive(_ context.Context, id uuid.UUID) error {
	return s.mutate(id, func(r *Record) bool {
		r.IsActive = false
		r.Entitled = false
		return true
	})
}

func (s *MemoryStore) Deactivate(_ context.Context, id, userID uuid.UUID) error {
	return s.mutate(id, func(r *Record) bool {
		if r.UserID != userID || r.DeletedAt != nil {
			return false
		}
		r.IsActive = false
		r.Entitled = false
		return true
	})
}

func (s *MemoryStore) SoftDelete(_ context.Context, id uuid.UUID) error {
	return s.mutate(id, func(r *Record) bool {
		if r.DeletedAt != nil {
			return false
		}
		now := s.now()
		r.DeletedAt = &now
		r.IsActive = false
		r.Entitled = false
		return true
	})
}

// Len returns the number of stored records, deleted ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *MemoryStore) mutate(id uuid.UUID, fn func(*Record) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok || !fn(r) {
		return ErrNotFound
	}
	r.UpdatedAt = s.tick()
	return nil
}

// tick returns a timestamp strictly after every updated_at already issued so
// ordering by updated_at is deterministic under a frozen clock.
func (s *MemoryStore) tick() time.Time {
	now := s.now()
	for _, r := range s.byID {
		if !now.After(r.UpdatedAt) {
			now = r.UpdatedAt.Add(time.Microsecond)
		}
	}
	return now
}

func clone(r *Record) *Record {
	c := *r
	c.OriginalJSON = slices.Clone(r.OriginalJSON)
	if r.PriceNanos != nil {
		v := *r.PriceNanos
		c.PriceNanos = &v
	}
	if r.DeletedAt != nil {
		v := *r.DeletedAt
		c.DeletedAt = &v
	}
	return &c
}
