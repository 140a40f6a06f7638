package study_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasviinic/flashly-api/pkg/entitlement"
	"github.com/lucasviinic/flashly-api/pkg/logger"
	"github.com/lucasviinic/flashly-api/pkg/pg"
	"github.com/lucasviinic/flashly-api/pkg/quota"
	"github.com/lucasviinic/flashly-api/pkg/tier"
	"github.com/lucasviinic/flashly-api/svc/study"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("FLASHLY_TEST_PG_URL")
	if url == "" {
		t.Skip("FLASHLY_TEST_PG_URL not set")
	}

	ctx := context.Background()
	cfg := pg.Config{ConnectionString: url, MaxOpenConns: 10, RetryAttempts: 1, MigrationsTable: "schema_migrations"}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, cfg, logger.Discard(), study.Migrations(), entitlement.Migrations()))
	return pool
}

func TestPostgresUserStore(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := study.NewPostgresUserStore(pool)

	id := uuid.New()
	_, err := pool.Exec(ctx, `INSERT INTO users (id) VALUES ($1)`, id)
	require.NoError(t, err)

	got, err := users.GetTier(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tier.Free, got)

	require.NoError(t, users.SetTier(ctx, id, tier.Premium))
	got, err = users.GetTier(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tier.Premium, got)

	_, err = users.GetTier(ctx, uuid.New())
	assert.ErrorIs(t, err, tier.ErrUserNotFound)
	assert.ErrorIs(t, users.SetTier(ctx, uuid.New(), tier.Free), tier.ErrUserNotFound)
	assert.ErrorIs(t, users.SetTier(ctx, id, tier.Tier(7)), tier.ErrInvalidTier)
}

func TestPostgresLedger(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := study.NewPostgresRepository(pool)
	ledger := quota.NewPostgresLedger(pool)

	user := uuid.New()
	_, err := pool.Exec(ctx, `INSERT INTO users (id) VALUES ($1)`, user)
	require.NoError(t, err)

	today := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	yesterday := time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC)

	subject := study.Subject{ID: uuid.New(), UserID: user, Name: "Biology", CreatedAt: today}
	require.NoError(t, repo.InsertSubject(ctx, subject))
	require.NoError(t, repo.InsertSubject(ctx, study.Subject{ID: uuid.New(), UserID: user, Name: "Old", CreatedAt: yesterday}))

	owned, err := repo.SubjectOwned(ctx, user, subject.ID)
	require.NoError(t, err)
	assert.True(t, owned)
	owned, err = repo.SubjectOwned(ctx, uuid.New(), subject.ID)
	require.NoError(t, err)
	assert.False(t, owned)

	card := func(origin study.Origin, at time.Time) study.Flashcard {
		return study.Flashcard{ID: uuid.New(), UserID: user, SubjectID: subject.ID, Question: "q", Answer: "a", Origin: origin, CreatedAt: at}
	}
	deleted := card(study.OriginAI, today)
	require.NoError(t, repo.InsertFlashcards(ctx, []study.Flashcard{
		card(study.OriginUser, today),
		card(study.OriginAI, today),
		card(study.OriginAI, yesterday),
		deleted,
	}))
	_, err = pool.Exec(ctx, `UPDATE flashcards SET deleted_at = now() WHERE id = $1`, deleted.ID)
	require.NoError(t, err)

	w := quota.DayWindow(today)
	for kind, want := range map[quota.Kind]int64{
		quota.KindSubjects:     1,
		quota.KindFlashcards:   2,
		quota.KindAIFlashcards: 1,
	} {
		got, err := ledger.Count(ctx, user, kind, w)
		require.NoError(t, err)
		assert.Equal(t, want, got, kind)
	}
}

func TestPostgresTxRollback(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := study.NewPostgresRepository(pool)
	users := study.NewPostgresUserStore(pool)
	txm := pg.NewTxManager(pool)

	user := uuid.New()
	_, err := pool.Exec(ctx, `INSERT INTO users (id) VALUES ($1)`, user)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = txm.RunInTx(ctx, func(ctx context.Context) error {
		require.NoError(t, users.SetTier(ctx, user, tier.Premium))
		require.NoError(t, repo.InsertSubject(ctx, study.Subject{ID: uuid.New(), UserID: user, Name: "Tmp", CreatedAt: time.Now()}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := users.GetTier(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, tier.Free, got)

	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM subjects WHERE user_id = $1`, user).Scan(&n))
	assert.Zero(t, n)
}

func TestPostgresRepository_DanglingReferences(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := study.NewPostgresRepository(pool)

	err := repo.InsertSubject(ctx, study.Subject{ID: uuid.New(), UserID: uuid.New(), Name: "Ghost", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, study.ErrUserNotFound)

	user := uuid.New()
	_, err = pool.Exec(ctx, `INSERT INTO users (id) VALUES ($1)`, user)
	require.NoError(t, err)

	err = repo.InsertFlashcards(ctx, []study.Flashcard{{
		ID: uuid.New(), UserID: user, SubjectID: uuid.New(),
		Question: "q", Answer: "a", Origin: study.OriginUser, CreatedAt: time.Now(),
	}})
	assert.ErrorIs(t, err, study.ErrSubjectNotFound)
}
