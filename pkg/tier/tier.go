package tier

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/lucasviinic/flashly-api/pkg/entitlement"
	"github.com/lucasviinic/flashly-api/pkg/playbilling"
)

// Tier is the coarse account class gating quotas.
type Tier int

const (
	Free    Tier = 0
	Premium Tier = 1
)

func (t Tier) String() string {
	switch t {
	case Free:
		return "free"
	case Premium:
		return "premium"
	default:
		return "unknown"
	}
}

// Valid reports whether t is Free or Premium.
func (t Tier) Valid() bool {
	return t == Free || t == Premium
}

var (
	ErrUserNotFound = errors.New("tier: user not found")
	ErrInvalidTier  = errors.New("tier: invalid tier")
)

// Verifier checks a purchase with the billing provider.
type Verifier interface {
	Verify(ctx context.Context, packageName, purchaseToken string) (*playbilling.Snapshot, error)
}

// EntitlementStore is the part of entitlement.Store the resolver needs.
type EntitlementStore interface {
	GetActiveForUser(ctx context.Context, userID uuid.UUID) (*entitlement.Record, error)
	Upsert(ctx context.Context, snap *playbilling.Snapshot, userID uuid.UUID) (*entitlement.Record, error)
	MarkInactive(ctx context.Context, id uuid.UUID) error
}

// UserStore reads and writes the tier persisted on the user record.
// Implementations return ErrUserNotFound for unknown users.
type UserStore interface {
	GetTier(ctx context.Context, userID uuid.UUID) (Tier, error)
	SetTier(ctx context.Context, userID uuid.UUID, t Tier) error
}

// DisplayCache stores tiers for display reads.
type DisplayCache interface {
	Get(ctx context.Context, userID uuid.UUID) (Tier, bool, error)
	Set(ctx context.Context, userID uuid.UUID, t Tier) error
}
