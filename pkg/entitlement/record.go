package entitlement

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/lucasviinic/flashly-api/pkg/playbilling"
)

// Record is a stored subscription. Optional provider fields are empty
// strings when absent; PriceNanos is nil when the provider sent no price.
// IsActive is the strict provider check. Entitled also accepts grace period
// and account hold as of the last verification and selects the records
// that are re-verified.
type Record struct {
	ID                   uuid.UUID                        `json:"id"`
	UserID               uuid.UUID                        `json:"user_id"`
	PackageName          string                           `json:"package_name"`
	PurchaseToken        string                           `json:"purchase_token"`
	ProductID            string                           `json:"product_id"`
	StartDate            time.Time                        `json:"start_date"`
	ExpirationDate       time.Time                        `json:"expiration_date"`
	SubscriptionState    playbilling.State                `json:"subscription_state"`
	AutoRenewing         bool                             `json:"auto_renewing"`
	AcknowledgementState playbilling.AcknowledgementState `json:"acknowledgement_state,omitempty"`
	IsActive             bool                             `json:"is_active"`
	Entitled             bool                             `json:"entitled"`
	CurrencyCode         string                           `json:"currency_code,omitempty"`
	PriceNanos           *int64                           `json:"price_nanos,omitempty"`
	BasePlanID           string                           `json:"base_plan_id,omitempty"`
	LinkedPurchaseToken  string                           `json:"linked_purchase_token,omitempty"`
	LatestOrderID        string                           `json:"latest_order_id,omitempty"`
	RegionCode           string                           `json:"region_code,omitempty"`
	OriginalJSON         json.RawMessage                  `json:"-"`
	CreatedAt            time.Time                        `json:"created_at"`
	UpdatedAt            time.Time                        `json:"updated_at"`
	DeletedAt            *time.Time                       `json:"deleted_at,omitempty"`
}

// Store persists subscriptions keyed by purchase token.
type Store interface {
	// Upsert writes snap. An existing record keeps its ID, owner and
	// created_at; everything else is replaced and updated_at advances.
	Upsert(ctx context.Context, snap *playbilling.Snapshot, userID uuid.UUID) (*Record, error)
	// GetByToken returns the record for token, deleted or not.
	GetByToken(ctx context.Context, token string) (*Record, error)
	// GetActiveForUser returns the most recently updated entitled, non-deleted
	// record of the user.
	GetActiveForUser(ctx context.Context, userID uuid.UUID) (*Record, error)
	// ListActiveForUser returns the user's active, non-deleted records that
	// have not expired at now, newest first.
	ListActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]Record, error)
	// MarkInactive clears is_active and entitled and bumps updated_at.
	MarkInactive(ctx context.Context, id uuid.UUID) error
	// Deactivate is MarkInactive scoped to records owned by userID.
	Deactivate(ctx context.Context, id, userID uuid.UUID) error
	// SoftDelete sets deleted_at and clears is_active and entitled.
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

func validateUpsert(snap *playbilling.Snapshot, userID uuid.UUID) error {
	if snap == nil || snap.PurchaseToken == "" || userID == uuid.Nil {
		return ErrInvalidInput
	}
	return nil
}

// apply copies the provider derived fields of snap into r. now stands in for
// the verification time when snap carries none.
func (r *Record) apply(snap *playbilling.Snapshot, now time.Time) {
	r.PackageName = snap.PackageName
	r.PurchaseToken = snap.PurchaseToken
	r.ProductID = snap.ProductID
	r.StartDate = snap.StartDate
	r.ExpirationDate = snap.ExpirationDate
	r.SubscriptionState = snap.State
	r.AutoRenewing = snap.AutoRenewing
	r.AcknowledgementState = snap.AcknowledgementState
	r.IsActive = snap.IsActive
	checkedAt := snap.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = now
	}
	r.Entitled = snap.Entitled(checkedAt)
	r.CurrencyCode = ""
	r.PriceNanos = nil
	if snap.Price != nil {
		nanos := snap.Price.Nanos
		r.CurrencyCode = snap.Price.CurrencyCode
		r.PriceNanos = &nanos
	}
	r.BasePlanID = snap.BasePlanID
	r.LinkedPurchaseToken = snap.LinkedPurchaseToken
	r.LatestOrderID = snap.LatestOrderID
	r.RegionCode = snap.RegionCode
	r.OriginalJSON = json.RawMessage(snap.OriginalJSON)
}
