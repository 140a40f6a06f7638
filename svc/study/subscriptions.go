package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lucasviinic/flashly-api/pkg/entitlement"
	"github.com/lucasviinic/flashly-api/pkg/logger"
	"github.com/lucasviinic/flashly-api/pkg/playbilling"
	"github.com/lucasviinic/flashly-api/pkg/quota"
	"github.com/lucasviinic/flashly-api/pkg/tier"
)

// PurchaseResult is the outcome of an explicit purchase verification.
type PurchaseResult struct {
	Status playbilling.StatusInfo `json:"status"`
	Record *entitlement.Record    `json:"subscription"`
	Tier   tier.Tier              `json:"account_type"`
	Saved  bool                   `json:"saved"`
}

// Account is the user's tier, subscription and daily usage.
type Account struct {
	UserID       uuid.UUID                  `json:"id"`
	Tier         tier.Tier                  `json:"account_type"`
	Subscription *entitlement.Record        `json:"subscription,omitempty"`
	Status       *playbilling.StatusInfo    `json:"subscription_status,omitempty"`
	Usage        map[quota.Kind]quota.Usage `json:"usage"`
}

// PremiumStatus is the store-only view of a user's subscriptions. Tier is
// the persisted display tier.
type PremiumStatus struct {
	IsPremium bool                 `json:"is_premium"`
	Tier      tier.Tier            `json:"account_type"`
	ExpiresAt *time.Time           `json:"expires_at,omitempty"`
	Active    []entitlement.Record `json:"active_subscriptions"`
}

// VerifyPurchase checks a purchase with the provider and stores the result.
// The tier is then resolved from the user's own records, so a token owned by
// someone else grants nothing and an old expired token does not hide a live
// subscription. Provider failures are returned.
func (s *Service) VerifyPurchase(ctx context.Context, userID uuid.UUID, packageName, purchaseToken string) (*PurchaseResult, error) {
	prev, err := s.resolver.Cached(ctx, userID)
	if err != nil {
		return nil, userError(err)
	}

	snap, err := s.verifier.Verify(ctx, packageName, purchaseToken)
	if err != nil {
		s.log.WarnContext(ctx, "purchase verification failed",
			logger.UserID(userID),
			logger.PurchaseToken(purchaseToken),
			logger.Error(err),
		)
		return nil, err
	}

	rec, err := s.subs.Upsert(ctx, snap, userID)
	if err != nil {
		return nil, fmt.Errorf("store subscription: %w", err)
	}

	res, err := s.resolver.ResolveFresh(ctx, userID, snap)
	if err != nil {
		return nil, userError(err)
	}
	t := res.Tier
	if rec.UserID != userID {
		s.log.WarnContext(ctx, "verified purchase belongs to another user",
			logger.UserID(userID),
			logger.PurchaseToken(purchaseToken),
		)
	}

	s.log.InfoContext(ctx, "purchase verified",
		logger.UserID(userID),
		logger.PurchaseToken(purchaseToken),
		logger.SubscriptionState(string(snap.State)),
		logger.Tier(int(t)),
		slog.String("previous_tier", prev.String()),
	)

	return &PurchaseResult{Status: snap.Status(s.now()), Record: rec, Tier: t, Saved: true}, nil
}

// Account resolves the user's tier and reports the subscription and usage.
// Provider failures revoke the subscription instead of failing the call.
func (s *Service) Account(ctx context.Context, userID uuid.UUID) (*Account, error) {
	res, err := s.resolver.ResolveDetailed(ctx, userID)
	if err != nil {
		return nil, userError(err)
	}

	usage, err := s.guard.Usage(ctx, userID, res.Tier)
	if err != nil {
		return nil, err
	}

	acc := &Account{UserID: userID, Tier: res.Tier, Subscription: res.Record, Usage: usage}
	if res.Snapshot != nil {
		status := res.Snapshot.Status(s.now())
		acc.Status = &status
	}
	return acc, nil
}

// ActiveSubscriptions lists the user's active, unexpired subscriptions
// without contacting the provider.
func (s *Service) ActiveSubscriptions(ctx context.Context, userID uuid.UUID) ([]entitlement.Record, error) {
	recs, err := s.subs.ListActiveForUser(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []entitlement.Record{}
	}
	return recs, nil
}

// PremiumStatus reports premium access from stored subscriptions only.
func (s *Service) PremiumStatus(ctx context.Context, userID uuid.UUID) (*PremiumStatus, error) {
	t, err := s.resolver.Cached(ctx, userID)
	if err != nil {
		return nil, userError(err)
	}

	active, err := s.ActiveSubscriptions(ctx, userID)
	if err != nil {
		return nil, err
	}

	status := &PremiumStatus{IsPremium: len(active) > 0, Tier: t, Active: active}
	for _, r := range active {
		if status.ExpiresAt == nil || r.ExpirationDate.After(*status.ExpiresAt) {
			exp := r.ExpirationDate
			status.ExpiresAt = &exp
		}
	}
	return status, nil
}

// DeactivateSubscription deactivates one of the user's subscriptions and
// recomputes the tier.
func (s *Service) DeactivateSubscription(ctx context.Context, userID, subscriptionID uuid.UUID) error {
	if subscriptionID == uuid.Nil {
		return errors.Join(ErrInvalidInput, errors.New("subscription id is required"))
	}
	if err := s.subs.Deactivate(ctx, subscriptionID, userID); err != nil {
		return err
	}

	res, err := s.resolver.ResolveDetailed(ctx, userID)
	if err != nil {
		return userError(err)
	}
	s.log.InfoContext(ctx, "subscription deactivated",
		logger.UserID(userID),
		slog.String("subscription_id", subscriptionID.String()),
		logger.Tier(int(res.Tier)),
	)
	return nil
}
