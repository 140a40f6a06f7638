package entitlement_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasviinic/flashly-api/pkg/entitlement"
	"github.com/lucasviinic/flashly-api/pkg/playbilling"
)

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func snapshot(token string, active bool) *playbilling.Snapshot {
	state := playbilling.StateActive
	if !active {
		state = playbilling.StateExpired
	}
	return &playbilling.Snapshot{
		PackageName:    "com.flashly.app",
		PurchaseToken:  token,
		ProductID:      "premium_monthly",
		StartDate:      baseTime.Add(-24 * time.Hour),
		ExpirationDate: baseTime.Add(30 * 24 * time.Hour),
		State:          state,
		AutoRenewing:   true,
		Price:          &playbilling.Price{CurrencyCode: "BRL", Nanos: 19_990_000_000},
		OriginalJSON:   []byte(`{"subscriptionState":"` + string(state) + `"}`),
		IsActive:       active,
		CheckedAt:      baseTime,
	}
}

func TestMemoryStore_Upsert(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("same token twice yields one row with latest fields", func(t *testing.T) {
		t.Parallel()

		store := entitlement.NewMemoryStore(func() time.Time { return baseTime })
		user := uuid.New()

		first, err := store.Upsert(ctx, snapshot("token-aaaaaaaaaa", true), user)
		require.NoError(t, err)

		updated := snapshot("token-aaaaaaaaaa", false)
		updated.AutoRenewing = false
		updated.Price = nil
		second, err := store.Upsert(ctx, updated, user)
		require.NoError(t, err)

		assert.Equal(t, 1, store.Len())
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.CreatedAt, second.CreatedAt)
		assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
		assert.Equal(t, playbilling.StateExpired, second.SubscriptionState)
		assert.False(t, second.IsActive)
		assert.False(t, second.AutoRenewing)
		assert.Nil(t, second.PriceNanos)
		assert.Empty(t, second.CurrencyCode)
	})

	t.Run("owner is never reassigned", func(t *testing.T) {
		t.Parallel()

		store := entitlement.NewMemoryStore(nil)
		owner, other := uuid.New(), uuid.New()

		_, err := store.Upsert(ctx, snapshot("token-bbbbbbbbbb", true), owner)
		require.NoError(t, err)
		rec, err := store.Upsert(ctx, snapshot("token-bbbbbbbbbb", true), other)
		require.NoError(t, err)

		assert.Equal(t, owner, rec.UserID)
	})

	t.Run("concurrent upserts of a new token create one row", func(t *testing.T) {
		t.Parallel()

		store := entitlement.NewMemoryStore(nil)
		user := uuid.New()

		var wg sync.WaitGroup
		ids := make([]uuid.UUID, 20)
		for i := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec, err := store.Upsert(ctx, snapshot("token-cccccccccc", true), user)
				if err == nil {
					ids[i] = rec.ID
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, store.Len())
		for _, id := range ids {
			assert.Equal(t, ids[0], id)
		}
	})

	t.Run("rejects missing token or user", func(t *testing.T) {
		t.Parallel()

		store := entitlement.NewMemoryStore(nil)
		_, err := store.Upsert(ctx, snapshot("", true), uuid.New())
		assert.ErrorIs(t, err, entitlement.ErrInvalidInput)

		_, err = store.Upsert(ctx, snapshot("token-dddddddddd", true), uuid.Nil)
		assert.ErrorIs(t, err, entitlement.ErrInvalidInput)

		_, err = store.Upsert(ctx, nil, uuid.New())
		assert.ErrorIs(t, err, entitlement.ErrInvalidInput)
	})
}

func TestMemoryStore_Reads(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("active lookup picks the most recently updated row", func(t *testing.T) {
		t.Parallel()

		store := entitlement.NewMemoryStore(func() time.Time { return baseTime })
		user := uuid.New()

		_, err := store.Upsert(ctx, snapshot("token-old-000000", true), user)
		require.NoError(t, err)
		latest, err := store.Upsert(ctx, snapshot("token-new-000000", true), user)
		require.NoError(t, err)
		_, err = store.Upsert(ctx, snapshot("token-dead-00000", false), user)
		require.NoError(t, err)

		got, err := store.GetActiveForUser(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, latest.ID, got.ID)

		list, err := store.ListActiveForUser(ctx, user, baseTime)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, latest.ID, list[0].ID)
	})

	t.Run("grace period and hold rows stay candidates until revoked", func(t *testing.T) {
		t.Parallel()

		for _, state := range []playbilling.State{playbilling.StateInGracePeriod, playbilling.StateOnHold} {
			store := entitlement.NewMemoryStore(func() time.Time { return baseTime })
			user := uuid.New()

			snap := snapshot("token-lenient-00", false)
			snap.State = state
			rec, err := store.Upsert(ctx, snap, user)
			require.NoError(t, err)
			assert.False(t, rec.IsActive, state)
			assert.True(t, rec.Entitled, state)

			got, err := store.GetActiveForUser(ctx, user)
			require.NoError(t, err, state)
			assert.Equal(t, rec.ID, got.ID)

			list, err := store.ListActiveForUser(ctx, user, baseTime)
			require.NoError(t, err)
			assert.Empty(t, list, "listing stays strict")

			require.NoError(t, store.MarkInactive(ctx, rec.ID))
			_, err = store.GetActiveForUser(ctx, user)
			assert.ErrorIs(t, err, entitlement.ErrNotFound, state)
		}
	})

	t.Run("lapsed grace period is not entitled", func(t *testing.T) {
		t.Parallel()

		store := entitlement.NewMemoryStore(func() time.Time { return baseTime })
		snap := snapshot("token-lapsed-000", false)
		snap.State = playbilling.StateInGracePeriod
		snap.CheckedAt = snap.ExpirationDate.Add(time.Minute)

		rec, err := store.Upsert(ctx, snap, uuid.New())
		require.NoError(t, err)
		assert.False(t, rec.Entitled)
	})

	t.Run("no active row", func(t *testing.T) {
		t.Parallel()

		store := entitlement.NewMemoryStore(nil)
		_, err := store.GetActiveForUser(ctx, uuid.New())
		assert.ErrorIs(t, err, entitlement.ErrNotFound)

		_, err = store.GetByToken(ctx, "missing-token")
		assert.ErrorIs(t, err, entitlement.ErrNotFound)
	})

	t.Run("soft deleted rows are hidden from active reads", func(t *testing.T) {
		t.Parallel()

		store := entitlement.NewMemoryStore(nil)
		user := uuid.New()
		rec, err := store.Upsert(ctx, snapshot("token-eeeeeeeeee", true), user)
		require.NoError(t, err)

		require.NoError(t, store.SoftDelete(ctx, rec.ID))
		assert.ErrorIs(t, store.SoftDelete(ctx, rec.ID), entitlement.ErrNotFound)

		_, err = store.GetActiveForUser(ctx, user)
		assert.ErrorIs(t, err, entitlement.ErrNotFound)

		byToken, err := store.GetByToken(ctx, "token-eeeeeeeeee")
		require.NoError(t, err)
		assert.NotNil(t, byToken.DeletedAt)
		assert.Equal(t, 1, store.Len())
	})
}

func TestMemoryStore_Deactivation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := entitlement.NewMemoryStore(nil)
	owner := uuid.New()
	rec, err := store.Upsert(ctx, snapshot("token-ffffffffff", true), owner)
	require.NoError(t, err)

	assert.ErrorIs(t, store.Deactivate(ctx, rec.ID, uuid.New()), entitlement.ErrNotFound)
	require.NoError(t, store.Deactivate(ctx, rec.ID, owner))

	got, err := store.GetByToken(ctx, rec.PurchaseToken)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.True(t, got.UpdatedAt.After(rec.UpdatedAt))

	assert.ErrorIs(t, store.MarkInactive(ctx, uuid.New()), entitlement.ErrNotFound)
}
