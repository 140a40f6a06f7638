package tier

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lucasviinic/flashly-api/pkg/entitlement"
	"github.com/lucasviinic/flashly-api/pkg/logger"
	"github.com/lucasviinic/flashly-api/pkg/metrics"
	"github.com/lucasviinic/flashly-api/pkg/playbilling"
)

// Resolution is the detailed outcome of Resolve.
type Resolution struct {
	Tier     Tier
	Previous Tier
	// Record is the refreshed subscription, nil for users without one.
	Record *entitlement.Record
	// Snapshot is the live provider result, nil unless Verified.
	Snapshot *playbilling.Snapshot
	Verified bool
	// Revoked is set when verification failed and the record was marked inactive.
	Revoked     bool
	VerifyError error
}

type Resolver struct {
	verifier Verifier
	store    EntitlementStore
	users    UserStore
	cache    DisplayCache
	now      func() time.Time
	log      *slog.Logger
	metrics  *metrics.Metrics
}

func NewResolver(verifier Verifier, store EntitlementStore, users UserStore, opts ...Option) *Resolver {
	if verifier == nil || store == nil || users == nil {
		panic("tier: verifier, entitlement store and user store are required")
	}
	r := &Resolver{
		verifier: verifier,
		store:    store,
		users:    users,
		now:      time.Now,
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the user's current tier and persists it.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID) (Tier, error) {
	res, err := r.ResolveDetailed(ctx, userID)
	if err != nil {
		return Free, err
	}
	return res.Tier, nil
}

// ResolveDetailed is Resolve with the intermediate results. Verification
// failures never surface as errors; only store failures do.
func (r *Resolver) ResolveDetailed(ctx context.Context, userID uuid.UUID) (*Resolution, error) {
	return r.resolve(ctx, userID, nil)
}

// ResolveFresh is ResolveDetailed for a caller that has just verified fresh.
// When the user's candidate record carries the same token, fresh is used
// instead of asking the provider again. The tier always comes from the
// user's own records, never from fresh alone.
func (r *Resolver) ResolveFresh(ctx context.Context, userID uuid.UUID, fresh *playbilling.Snapshot) (*Resolution, error) {
	return r.resolve(ctx, userID, fresh)
}

func (r *Resolver) resolve(ctx context.Context, userID uuid.UUID, fresh *playbilling.Snapshot) (*Resolution, error) {
	prev, err := r.users.GetTier(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := &Resolution{Tier: Free, Previous: prev}

	rec, err := r.store.GetActiveForUser(ctx, userID)
	switch {
	case errors.Is(err, entitlement.ErrNotFound):
		if err := r.persist(ctx, userID, res); err != nil {
			return nil, err
		}
		r.metrics.ObserveTierResolution(int(res.Tier), metrics.SourceNoSubscription)
		return res, nil
	case err != nil:
		return nil, err
	}

	var (
		snap *playbilling.Snapshot
		verr error
	)
	// A fresh snapshot of the candidate was stored by the caller already.
	reused := fresh != nil && fresh.PurchaseToken == rec.PurchaseToken
	if reused {
		snap = fresh
	} else {
		snap, verr = r.verifier.Verify(ctx, rec.PackageName, rec.PurchaseToken)
	}
	if verr != nil {
		r.log.WarnContext(ctx, "revoking entitlement after failed verification",
			logger.UserID(userID),
			logger.PurchaseToken(rec.PurchaseToken),
			logger.Error(verr),
		)
		if err := r.store.MarkInactive(ctx, rec.ID); err != nil {
			return nil, err
		}
		rec.IsActive = false
		rec.Entitled = false
		res.Record = rec
		res.Revoked = true
		res.VerifyError = verr
		if err := r.persist(ctx, userID, res); err != nil {
			return nil, err
		}
		r.metrics.ObserveTierResolution(int(res.Tier), metrics.SourceRevoked)
		return res, nil
	}

	updated := rec
	if !reused {
		if updated, err = r.store.Upsert(ctx, snap, rec.UserID); err != nil {
			return nil, err
		}
	}

	res.Record = updated
	res.Snapshot = snap
	res.Verified = true
	if snap.Entitled(r.now()) {
		res.Tier = Premium
	}
	if err := r.persist(ctx, userID, res); err != nil {
		return nil, err
	}
	r.metrics.ObserveTierResolution(int(res.Tier), metrics.SourceVerified)

	r.log.DebugContext(ctx, "tier resolved",
		logger.UserID(userID),
		logger.Tier(int(res.Tier)),
		logger.SubscriptionState(string(snap.State)),
	)
	return res, nil
}

// Apply persists t as the user's tier without consulting the provider. Used
// after an explicit verification already decided the tier, and to restore
// the previous tier when a quota-gated write is abandoned.
func (r *Resolver) Apply(ctx context.Context, userID uuid.UUID, t Tier) error {
	if !t.Valid() {
		return ErrInvalidTier
	}
	if err := r.users.SetTier(ctx, userID, t); err != nil {
		return err
	}
	r.refreshCache(ctx, userID, t)
	return nil
}

// Reload reads the persisted tier and overwrites the display cache with it.
// Callers use it after a transaction that wrote the tier failed to commit.
func (r *Resolver) Reload(ctx context.Context, userID uuid.UUID) (Tier, error) {
	t, err := r.users.GetTier(ctx, userID)
	if err != nil {
		return Free, err
	}
	r.refreshCache(ctx, userID, t)
	return t, nil
}

// Cached returns the persisted tier for display. It never verifies.
func (r *Resolver) Cached(ctx context.Context, userID uuid.UUID) (Tier, error) {
	if r.cache != nil {
		t, ok, err := r.cache.Get(ctx, userID)
		if err != nil {
			r.log.WarnContext(ctx, "tier cache read failed", logger.UserID(userID), logger.Error(err))
		} else if ok {
			return t, nil
		}
	}

	t, err := r.users.GetTier(ctx, userID)
	if err != nil {
		return Free, err
	}
	r.refreshCache(ctx, userID, t)
	return t, nil
}

func (r *Resolver) persist(ctx context.Context, userID uuid.UUID, res *Resolution) error {
	if err := r.users.SetTier(ctx, userID, res.Tier); err != nil {
		return err
	}
	r.refreshCache(ctx, userID, res.Tier)
	return nil
}

func (r *Resolver) refreshCache(ctx context.Context, userID uuid.UUID, t Tier) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, userID, t); err != nil {
		r.log.WarnContext(ctx, "tier cache write failed", logger.UserID(userID), logger.Error(err))
	}
}
