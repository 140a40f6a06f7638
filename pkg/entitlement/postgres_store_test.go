package entitlement_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasviinic/flashly-api/pkg/entitlement"
	"github.com/lucasviinic/flashly-api/pkg/logger"
	"github.com/lucasviinic/flashly-api/pkg/pg"
	"github.com/lucasviinic/flashly-api/pkg/playbilling"
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

func createUser(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(), `INSERT INTO users (id) VALUES ($1)`, id)
	require.NoError(t, err)
	return id
}

func TestPostgresStore(t *testing.T) {
	pool := testPool(t)
	store := entitlement.NewPostgresStore(pool)
	ctx := context.Background()

	t.Run("upsert is idempotent per token", func(t *testing.T) {
		user := createUser(t, pool)
		token := "pg-token-" + uuid.NewString()

		first, err := store.Upsert(ctx, snapshot(token, true), user)
		require.NoError(t, err)
		require.NotNil(t, first.PriceNanos)
		assert.Equal(t, int64(19_990_000_000), *first.PriceNanos)

		time.Sleep(5 * time.Millisecond)
		second, err := store.Upsert(ctx, snapshot(token, false), createUser(t, pool))
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, user, second.UserID)
		assert.False(t, second.IsActive)
		assert.Equal(t, "SUBSCRIPTION_STATE_EXPIRED", string(second.SubscriptionState))
		assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

		var count int
		require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM subscriptions WHERE purchase_token = $1`, token).Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("concurrent upserts of a new token create one row", func(t *testing.T) {
		user := createUser(t, pool)
		token := "pg-race-" + uuid.NewString()

		var wg sync.WaitGroup
		errs := make([]error, 10)
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = store.Upsert(ctx, snapshot(token, true), user)
			}()
		}
		wg.Wait()

		for _, err := range errs {
			assert.NoError(t, err)
		}
		var count int
		require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM subscriptions WHERE purchase_token = $1`, token).Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("active lookup and soft delete", func(t *testing.T) {
		user := createUser(t, pool)

		_, err := store.Upsert(ctx, snapshot("pg-old-"+uuid.NewString(), true), user)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		latest, err := store.Upsert(ctx, snapshot("pg-new-"+uuid.NewString(), true), user)
		require.NoError(t, err)

		got, err := store.GetActiveForUser(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, latest.ID, got.ID)

		require.NoError(t, store.SoftDelete(ctx, latest.ID))
		got, err = store.GetActiveForUser(ctx, user)
		require.NoError(t, err)
		assert.NotEqual(t, latest.ID, got.ID)

		require.NoError(t, store.MarkInactive(ctx, got.ID))
		_, err = store.GetActiveForUser(ctx, user)
		assert.ErrorIs(t, err, entitlement.ErrNotFound)
	})

	t.Run("grace period row stays a re-verification candidate", func(t *testing.T) {
		user := createUser(t, pool)
		snap := snapshot("pg-grace-"+uuid.NewString(), false)
		snap.State = playbilling.StateInGracePeriod

		rec, err := store.Upsert(ctx, snap, user)
		require.NoError(t, err)
		assert.False(t, rec.IsActive)
		assert.True(t, rec.Entitled)

		got, err := store.GetActiveForUser(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)

		require.NoError(t, store.MarkInactive(ctx, rec.ID))
		_, err = store.GetActiveForUser(ctx, user)
		assert.ErrorIs(t, err, entitlement.ErrNotFound)
	})

	t.Run("deactivate is scoped to the owner", func(t *testing.T) {
		user := createUser(t, pool)
		rec, err := store.Upsert(ctx, snapshot("pg-own-"+uuid.NewString(), true), user)
		require.NoError(t, err)

		assert.ErrorIs(t, store.Deactivate(ctx, rec.ID, uuid.New()), entitlement.ErrNotFound)
		require.NoError(t, store.Deactivate(ctx, rec.ID, user))

		list, err := store.ListActiveForUser(ctx, user, time.Now())
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
