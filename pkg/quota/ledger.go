package quota

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Ledger counts a user's non-deleted resources created inside a window.
// KindFlashcards counts every flashcard, KindAIFlashcards only AI ones.
type Ledger interface {
	Count(ctx context.Context, userID uuid.UUID, kind Kind, w Window) (int64, error)
}

type entry struct {
	userID    uuid.UUID
	subject   bool
	ai        bool
	createdAt time.Time
	deleted   bool
}

// MemoryLedger is an in-process Ledger fed through Record calls.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*entry
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[uuid.UUID]*entry)}
}

// RecordSubject stores a subject creation and returns its ID.
func (l *MemoryLedger) RecordSubject(userID uuid.UUID, createdAt time.Time) uuid.UUID {
	return l.add(&entry{userID: userID, subject: true, createdAt: createdAt})
}

// RecordFlashcard stores a flashcard creation and returns its ID.
func (l *MemoryLedger) RecordFlashcard(userID uuid.UUID, ai bool, createdAt time.Time) uuid.UUID {
	return l.add(&entry{userID: userID, ai: ai, createdAt: createdAt})
}

// Delete soft-deletes an entry so it stops counting.
func (l *MemoryLedger) Delete(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[id]; ok {
		e.deleted = true
	}
}

func (l *MemoryLedger) Count(_ context.Context, userID uuid.UUID, kind Kind, w Window) (int64, error) {
	if !kind.Valid() {
		return 0, ErrUnknownKind
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var n int64
	for _, e := range l.entries {
		if e.userID != userID || e.deleted || !w.Contains(e.createdAt) {
			continue
		}
		switch kind {
		case KindSubjects:
			if e.subject {
				n++
			}
		case KindFlashcards:
			if !e.subject {
				n++
			}
		case KindAIFlashcards:
			if !e.subject && e.ai {
				n++
			}
		}
	}
	return n, nil
}

func (l *MemoryLedger) add(e *entry) uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := uuid.New()
	l.entries[id] = e
	return id
}
