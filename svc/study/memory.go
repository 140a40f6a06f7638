package study

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/lucasviinic/flashly-api/pkg/quota"
)

// MemoryRepository is an in-process Repository. It also serves as the
// quota.Ledger over its own rows and as a TxRunner that restores the rows
// when the unit fails.
type MemoryRepository struct {
	mu         sync.RWMutex
	txMu       sync.Mutex
	subjects   map[uuid.UUID]Subject
	flashcards map[uuid.UUID]Flashcard
	deleted    map[uuid.UUID]bool
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		subjects:   make(map[uuid.UUID]Subject),
		flashcards: make(map[uuid.UUID]Flashcard),
		deleted:    make(map[uuid.UUID]bool),
	}
}

type memoryTxKey struct{}

// RunInTx serializes units and discards their writes when fn fails.
func (r *MemoryRepository) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(memoryTxKey{}) != nil {
		return fn(ctx)
	}

	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.RLock()
	subjects, flashcards, deleted := maps.Clone(r.subjects), maps.Clone(r.flashcards), maps.Clone(r.deleted)
	r.mu.RUnlock()

	defer func() {
		p := recover()
		if err != nil || p != nil {
			r.mu.Lock()
			r.subjects, r.flashcards, r.deleted = subjects, flashcards, deleted
			r.mu.Unlock()
		}
		if p != nil {
			panic(p)
		}
	}()

	return fn(context.WithValue(ctx, memoryTxKey{}, true))
}

func (r *MemoryRepository) InsertSubject(_ context.Context, s Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects[s.ID] = s
	return nil
}

func (r *MemoryRepository) SubjectOwned(_ context.Context, userID, subjectID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subjects[subjectID]
	return ok && s.UserID == userID && !r.deleted[subjectID], nil
}

func (r *MemoryRepository) InsertFlashcards(_ context.Context, cards []Flashcard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range cards {
		r.flashcards[c.ID] = c
	}
	return nil
}

// Delete soft-deletes a subject or flashcard.
func (r *MemoryRepository) Delete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted[id] = true
}

// Subjects returns the user's non-deleted subjects.
func (r *MemoryRepository) Subjects(userID uuid.UUID) []Subject {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Subject
	for id, s := range r.subjects {
		if s.UserID == userID && !r.deleted[id] {
			out = append(out, s)
		}
	}
	return out
}

// Flashcards returns the user's non-deleted flashcards.
func (r *MemoryRepository) Flashcards(userID uuid.UUID) []Flashcard {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Flashcard
	for id, c := range r.flashcards {
		if c.UserID == userID && !r.deleted[id] {
			out = append(out, c)
		}
	}
	return out
}

// Count implements quota.Ledger.
func (r *MemoryRepository) Count(_ context.Context, userID uuid.UUID, kind quota.Kind, w quota.Window) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	switch kind {
	case quota.KindSubjects:
		for id, s := range r.subjects {
			if s.UserID == userID && !r.deleted[id] && w.Contains(s.CreatedAt) {
				n++
			}
		}
	case quota.KindFlashcards, quota.KindAIFlashcards:
		for id, c := range r.flashcards {
			if c.UserID != userID || r.deleted[id] || !w.Contains(c.CreatedAt) {
				continue
			}
			if kind == quota.KindAIFlashcards && c.Origin != OriginAI {
				continue
			}
			n++
		}
	default:
		return 0, quota.ErrUnknownKind
	}
	return n, nil
}
