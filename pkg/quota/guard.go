package quota

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lucasviinic/flashly-api/pkg/logger"
	"github.com/lucasviinic/flashly-api/pkg/metrics"
	"github.com/lucasviinic/flashly-api/pkg/tier"
)

// Guard checks requests against the policy. Safe for concurrent use.
type Guard struct {
	policy  *Policy
	ledger  Ledger
	now     func() time.Time
	log     *slog.Logger
	metrics *metrics.Metrics
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

func WithClock(now func() time.Time) GuardOption {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

func WithLogger(l *slog.Logger) GuardOption {
	return func(g *Guard) {
		if l != nil {
			g.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) GuardOption {
	return func(g *Guard) { g.metrics = m }
}

func NewGuard(policy *Policy, ledger Ledger, opts ...GuardOption) *Guard {
	if policy == nil || ledger == nil {
		panic("quota: policy and ledger are required")
	}
	g := &Guard{
		policy: policy,
		ledger: ledger,
		now:    time.Now,
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check returns how many of the requested items may be created today.
func (g *Guard) Check(ctx context.Context, userID uuid.UUID, t tier.Tier, kind Kind, requested int64, mode Mode) (int64, error) {
	if requested <= 0 {
		return 0, ErrInvalidRequest
	}
	if !kind.Valid() {
		return 0, ErrUnknownKind
	}

	window := DayWindow(g.now())

	// AI flashcards are also flashcards; check the stricter ceiling first.
	kinds := []Kind{kind}
	if kind == KindAIFlashcards {
		kinds = append(kinds, KindFlashcards)
	}

	granted := requested
	for _, k := range kinds {
		limit, err := g.policy.Limit(t, k)
		if err != nil {
			return 0, err
		}
		if limit == Unlimited {
			continue
		}

		used, err := g.ledger.Count(ctx, userID, k, window)
		if err != nil {
			return 0, errors.Join(ErrFailedToCountUsage, err)
		}

		available := limit - used
		if requested <= available {
			continue
		}
		if available <= 0 || mode == ModeSingle {
			g.metrics.ObserveQuotaDecision(string(kind), metrics.DecisionExceeded)
			g.log.InfoContext(ctx, "quota exceeded",
				logger.UserID(userID),
				logger.Tier(int(t)),
				logger.Resource(string(k)),
				slog.Int64("used", used),
				slog.Int64("limit", limit),
				slog.Int64("requested", requested),
			)
			return 0, &ExceededError{Kind: k, Detail: k.exceededDetail(), Limit: limit, Used: used, Requested: requested}
		}
		granted = min(granted, available)
	}

	if granted < requested {
		g.metrics.ObserveQuotaDecision(string(kind), metrics.DecisionPartial)
	} else {
		g.metrics.ObserveQuotaDecision(string(kind), metrics.DecisionGranted)
	}
	return granted, nil
}

// Usage reports consumption of every resource kind for t in the current window.
func (g *Guard) Usage(ctx context.Context, userID uuid.UUID, t tier.Tier) (map[Kind]Usage, error) {
	limits, err := g.policy.Limits(t)
	if err != nil {
		return nil, err
	}

	window := DayWindow(g.now())
	out := make(map[Kind]Usage, len(Kinds))
	for _, k := range Kinds {
		used, err := g.ledger.Count(ctx, userID, k, window)
		if err != nil {
			return nil, errors.Join(ErrFailedToCountUsage, err)
		}
		out[k] = Usage{Used: used, Limit: limits[k]}
	}
	return out, nil
}
