package quota

import (
	"context"

	"github.com/google/uuid"

	"github.com/lucasviinic/flashly-api/pkg/pg"
)

const (
	countSubjectsQuery = `SELECT count(*) FROM subjects
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3 AND deleted_at IS NULL`

	countFlashcardsQuery = `SELECT count(*) FROM flashcards
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3 AND deleted_at IS NULL`

	countAIFlashcardsQuery = `SELECT count(*) FROM flashcards
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3 AND deleted_at IS NULL AND origin = 'ai'`
)

// PostgresLedger counts rows of the subjects and flashcards tables. Counts
// run inside the caller's transaction when ctx carries one.
type PostgresLedger struct {
	db pg.DBTX
}

func NewPostgresLedger(db pg.DBTX) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Count(ctx context.Context, userID uuid.UUID, kind Kind, w Window) (int64, error) {
	var query string
	switch kind {
	case KindSubjects:
		query = countSubjectsQuery
	case KindFlashcards:
		query = countFlashcardsQuery
	case KindAIFlashcards:
		query = countAIFlashcardsQuery
	default:
		return 0, ErrUnknownKind
	}

	var n int64
	if err := pg.Querier(ctx, l.db).QueryRow(ctx, query, userID, w.Start, w.End).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
