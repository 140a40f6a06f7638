package study

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists subjects and flashcards. Implementations must join
// the transaction carried by ctx.
type Repository interface {
	InsertSubject(ctx context.Context, s Subject) error
	// SubjectOwned reports whether subjectID exists, is not deleted and
	// belongs to userID.
	SubjectOwned(ctx context.Context, userID, subjectID uuid.UUID) (bool, error)
	InsertFlashcards(ctx context.Context, cards []Flashcard) error
}

// TxRunner executes fn as one all-or-nothing unit.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
