package study

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lucasviinic/flashly-api/pkg/pg"
	"github.com/lucasviinic/flashly-api/pkg/tier"
)

const (
	insertSubjectQuery = `INSERT INTO subjects (id, user_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)`

	subjectOwnedQuery = `SELECT EXISTS (
		SELECT 1 FROM subjects WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL)`

	insertFlashcardQuery = `INSERT INTO flashcards (id, user_id, subject_id, question, answer, origin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`

	getTierQuery = `SELECT account_type FROM users WHERE id = $1`

	setTierQuery = `UPDATE users SET account_type = $2, updated_at = now() WHERE id = $1`
)

// PostgresRepository stores subjects and flashcards. Statements run inside
// the transaction carried by ctx when there is one.
type PostgresRepository struct {
	db pg.DBTX
}

func NewPostgresRepository(db pg.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) InsertSubject(ctx context.Context, s Subject) error {
	_, err := pg.Querier(ctx, r.db).Exec(ctx, insertSubjectQuery, s.ID, s.UserID, s.Name, s.CreatedAt)
	return foreignKeyError(err)
}

// foreignKeyError maps a dangling user or subject reference to ErrUserNotFound
// or ErrSubjectNotFound.
func foreignKeyError(err error) error {
	if !pg.IsForeignKeyViolationError(err) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == "flashcards_subject_id_fkey" {
		return errors.Join(ErrSubjectNotFound, err)
	}
	return errors.Join(ErrUserNotFound, err)
}

func (r *PostgresRepository) SubjectOwned(ctx context.Context, userID, subjectID uuid.UUID) (bool, error) {
	var ok bool
	err := pg.Querier(ctx, r.db).QueryRow(ctx, subjectOwnedQuery, subjectID, userID).Scan(&ok)
	return ok, err
}

func (r *PostgresRepository) InsertFlashcards(ctx context.Context, cards []Flashcard) error {
	if len(cards) == 0 {
		return nil
	}

	q := pg.Querier(ctx, r.db)
	for _, c := range cards {
		if _, err := q.Exec(ctx, insertFlashcardQuery, c.ID, c.UserID, c.SubjectID, c.Question, c.Answer, string(c.Origin), c.CreatedAt); err != nil {
			return foreignKeyError(err)
		}
	}
	return nil
}

// PostgresUserStore implements tier.UserStore over users.account_type.
type PostgresUserStore struct {
	db pg.DBTX
}

func NewPostgresUserStore(db pg.DBTX) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) GetTier(ctx context.Context, userID uuid.UUID) (tier.Tier, error) {
	var t int16
	err := pg.Querier(ctx, s.db).QueryRow(ctx, getTierQuery, userID).Scan(&t)
	if pg.IsNotFoundError(err) {
		return tier.Free, tier.ErrUserNotFound
	}
	if err != nil {
		return tier.Free, err
	}
	return tier.Tier(t), nil
}

func (s *PostgresUserStore) SetTier(ctx context.Context, userID uuid.UUID, t tier.Tier) error {
	if !t.Valid() {
		return tier.ErrInvalidTier
	}
	tag, err := pg.Querier(ctx, s.db).Exec(ctx, setTierQuery, userID, int16(t))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tier.ErrUserNotFound
	}
	return nil
}

var (
	_ Repository     = (*PostgresRepository)(nil)
	_ tier.UserStore = (*PostgresUserStore)(nil)
)
