package quota_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasviinic/flashly-api/pkg/quota"
	"github.com/lucasviinic/flashly-api/pkg/tier"
)

var now = time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

func testLimits() map[tier.Tier]quota.Limits {
	return map[tier.Tier]quota.Limits{
		tier.Free: {
			quota.KindFlashcards:   10,
			quota.KindAIFlashcards: 5,
			quota.KindSubjects:     5,
		},
		tier.Premium: {
			quota.KindFlashcards:   quota.Unlimited,
			quota.KindAIFlashcards: 100,
			quota.KindSubjects:     quota.Unlimited,
		},
	}
}

func newGuard(t *testing.T, ledger quota.Ledger) *quota.Guard {
	t.Helper()
	policy, err := quota.NewPolicy(context.Background(), quota.NewMemorySource(testLimits()))
	require.NoError(t, err)
	return quota.NewGuard(policy, ledger, quota.WithClock(func() time.Time { return now }))
}

func addSubjects(l *quota.MemoryLedger, user uuid.UUID, n int, at time.Time) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range n {
		ids[i] = l.RecordSubject(user, at)
	}
	return ids
}

func addFlashcards(l *quota.MemoryLedger, user uuid.UUID, n int, ai bool, at time.Time) {
	for range n {
		l.RecordFlashcard(user, ai, at)
	}
}

func TestGuard_Check(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name      string
		usedAI    int
		requested int64
		mode      quota.Mode
		want      int64
		wantErr   bool
	}{
		{name: "full grant when nothing used", usedAI: 0, requested: 3, mode: quota.ModeBulk, want: 3},
		{name: "partial grant in bulk mode", usedAI: 3, requested: 4, mode: quota.ModeBulk, want: 2},
		{name: "exact remainder is a full grant", usedAI: 3, requested: 2, mode: quota.ModeBulk, want: 2},
		{name: "exhausted ceiling fails", usedAI: 5, requested: 4, mode: quota.ModeBulk, wantErr: true},
		{name: "shortfall fails in single mode", usedAI: 3, requested: 4, mode: quota.ModeSingle, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ledger := quota.NewMemoryLedger()
			user := uuid.New()
			addFlashcards(ledger, user, tt.usedAI, true, now.Add(-time.Hour))

			got, err := newGuard(t, ledger).Check(ctx, user, tier.Free, quota.KindAIFlashcards, tt.requested, tt.mode)
			if tt.wantErr {
				require.ErrorIs(t, err, quota.ErrQuotaExceeded)
				var exceeded *quota.ExceededError
				require.ErrorAs(t, err, &exceeded)
				assert.Equal(t, "AI generated flashcards limit reached", exceeded.Detail)
				assert.Zero(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGuard_CheckResources(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("subject limit message", func(t *testing.T) {
		t.Parallel()

		ledger := quota.NewMemoryLedger()
		user := uuid.New()
		addSubjects(ledger, user, 5, now)

		_, err := newGuard(t, ledger).Check(ctx, user, tier.Free, quota.KindSubjects, 1, quota.ModeSingle)
		var exceeded *quota.ExceededError
		require.ErrorAs(t, err, &exceeded)
		assert.Equal(t, quota.KindSubjects, exceeded.Kind)
		assert.Equal(t, "Subjects limit reached", exceeded.Detail)
		assert.True(t, quota.IsExceeded(err))
	})

	t.Run("manual flashcards count against the general ceiling only", func(t *testing.T) {
		t.Parallel()

		ledger := quota.NewMemoryLedger()
		user := uuid.New()
		addFlashcards(ledger, user, 10, false, now)

		_, err := newGuard(t, ledger).Check(ctx, user, tier.Free, quota.KindFlashcards, 1, quota.ModeSingle)
		var exceeded *quota.ExceededError
		require.ErrorAs(t, err, &exceeded)
		assert.Equal(t, "Flashcard limit reached", exceeded.Detail)

		granted, err := newGuard(t, ledger).Check(ctx, user, tier.Free, quota.KindAIFlashcards, 1, quota.ModeSingle)
		assert.Zero(t, granted)
		require.ErrorAs(t, err, &exceeded)
		assert.Equal(t, quota.KindFlashcards, exceeded.Kind, "ai request blocked by the general ceiling")
	})

	t.Run("ai flashcards consume the general ceiling", func(t *testing.T) {
		t.Parallel()

		ledger := quota.NewMemoryLedger()
		user := uuid.New()
		addFlashcards(ledger, user, 7, false, now)
		addFlashcards(ledger, user, 1, true, now)

		granted, err := newGuard(t, ledger).Check(ctx, user, tier.Free, quota.KindAIFlashcards, 4, quota.ModeBulk)
		require.NoError(t, err)
		assert.Equal(t, int64(2), granted)
	})

	t.Run("yesterday does not count", func(t *testing.T) {
		t.Parallel()

		ledger := quota.NewMemoryLedger()
		user := uuid.New()
		addSubjects(ledger, user, 5, time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC))

		granted, err := newGuard(t, ledger).Check(ctx, user, tier.Free, quota.KindSubjects, 1, quota.ModeSingle)
		require.NoError(t, err)
		assert.Equal(t, int64(1), granted)
	})

	t.Run("soft deleted rows do not count", func(t *testing.T) {
		t.Parallel()

		ledger := quota.NewMemoryLedger()
		user := uuid.New()
		ids := addSubjects(ledger, user, 5, now)
		ledger.Delete(ids[0])

		granted, err := newGuard(t, ledger).Check(ctx, user, tier.Free, quota.KindSubjects, 1, quota.ModeSingle)
		require.NoError(t, err)
		assert.Equal(t, int64(1), granted)
	})

	t.Run("other users do not count", func(t *testing.T) {
		t.Parallel()

		ledger := quota.NewMemoryLedger()
		addSubjects(ledger, uuid.New(), 5, now)

		granted, err := newGuard(t, ledger).Check(ctx, uuid.New(), tier.Free, quota.KindSubjects, 1, quota.ModeSingle)
		require.NoError(t, err)
		assert.Equal(t, int64(1), granted)
	})

	t.Run("unlimited ceiling grants everything", func(t *testing.T) {
		t.Parallel()

		ledger := quota.NewMemoryLedger()
		user := uuid.New()
		addSubjects(ledger, user, 500, now)

		granted, err := newGuard(t, ledger).Check(ctx, user, tier.Premium, quota.KindSubjects, 50, quota.ModeBulk)
		require.NoError(t, err)
		assert.Equal(t, int64(50), granted)
	})

	t.Run("invalid requests", func(t *testing.T) {
		t.Parallel()

		g := newGuard(t, quota.NewMemoryLedger())
		_, err := g.Check(ctx, uuid.New(), tier.Free, quota.KindSubjects, 0, quota.ModeSingle)
		assert.ErrorIs(t, err, quota.ErrInvalidRequest)

		_, err = g.Check(ctx, uuid.New(), tier.Free, "topics", 1, quota.ModeSingle)
		assert.ErrorIs(t, err, quota.ErrUnknownKind)

		_, err = g.Check(ctx, uuid.New(), tier.Tier(9), quota.KindSubjects, 1, quota.ModeSingle)
		assert.ErrorIs(t, err, quota.ErrUnknownTier)
	})

	t.Run("ledger failure", func(t *testing.T) {
		t.Parallel()

		g := newGuard(t, failingLedger{err: errors.New("connection reset")})
		_, err := g.Check(ctx, uuid.New(), tier.Free, quota.KindSubjects, 1, quota.ModeSingle)
		assert.ErrorIs(t, err, quota.ErrFailedToCountUsage)
	})
}

func TestGuard_Usage(t *testing.T) {
	t.Parallel()

	ledger := quota.NewMemoryLedger()
	user := uuid.New()
	addSubjects(ledger, user, 2, now)
	addFlashcards(ledger, user, 3, false, now)
	addFlashcards(ledger, user, 1, true, now)

	usage, err := newGuard(t, ledger).Usage(context.Background(), user, tier.Free)
	require.NoError(t, err)

	assert.Equal(t, quota.Usage{Used: 4, Limit: 10}, usage[quota.KindFlashcards])
	assert.Equal(t, quota.Usage{Used: 1, Limit: 5}, usage[quota.KindAIFlashcards])
	assert.Equal(t, quota.Usage{Used: 2, Limit: 5}, usage[quota.KindSubjects])
	assert.Equal(t, "2/5", usage[quota.KindSubjects].String())
	assert.Equal(t, int64(3), usage[quota.KindSubjects].Remaining())

	premium, err := newGuard(t, ledger).Usage(context.Background(), user, tier.Premium)
	require.NoError(t, err)
	assert.Equal(t, "2/unlimited", premium[quota.KindSubjects].String())
	assert.Equal(t, quota.Unlimited, premium[quota.KindSubjects].Remaining())
}

func TestDayWindow(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("BRT", -3*60*60)
	w := quota.DayWindow(time.Date(2025, 3, 10, 22, 0, 0, 0, loc))

	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), w.End)
	assert.True(t, w.Contains(w.Start))
	assert.False(t, w.Contains(w.End))
}

type failingLedger struct {
	err error
}

func (l failingLedger) Count(context.Context, uuid.UUID, quota.Kind, quota.Window) (int64, error) {
	return 0, l.err
}
