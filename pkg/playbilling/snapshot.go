package playbilling

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/lucasviinic/flashly-api/pkg/logger"
)

const nanosPerUnit = 1_000_000_000

// Price is the recurring price of the subscription's first line item.
type Price struct {
	CurrencyCode string
	// Nanos is the full amount in billionths of the currency unit.
	Nanos int64
}

// Amount returns the price in currency units.
func (p Price) Amount() float64 {
	return float64(p.Nanos) / nanosPerUnit
}

// Snapshot is the normalized result of one successful verification.
type Snapshot struct {
	PackageName          string
	PurchaseToken        string
	ProductID            string
	StartDate            time.Time
	ExpirationDate       time.Time
	State                State
	AcknowledgementState AcknowledgementState
	AutoRenewing         bool
	LatestOrderID        string
	RegionCode           string
	LinkedPurchaseToken  string
	BasePlanID           string
	Price                *Price
	OriginalJSON         []byte
	IsActive             bool
	CheckedAt            time.Time
}

// Entitled reports whether the subscription grants premium access at now.
// Unlike IsActive it accepts grace period and account hold.
func (s *Snapshot) Entitled(now time.Time) bool {
	return s != nil && s.State.Entitling() && s.ExpirationDate.After(now)
}

// StatusInfo summarises a snapshot for display.
type StatusInfo struct {
	IsActive        bool      `json:"is_active"`
	State           State     `json:"subscription_state"`
	Message         string    `json:"status_message"`
	AutoRenewing    bool      `json:"auto_renewing"`
	ExpirationDate  time.Time `json:"expiration_date"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
}

// Status builds the display summary relative to now.
func (s *Snapshot) Status(now time.Time) StatusInfo {
	info := StatusInfo{
		IsActive:       s.State == StateActive && s.ExpirationDate.After(now),
		State:          s.State,
		Message:        StatusMessage(s.State),
		AutoRenewing:   s.AutoRenewing,
		ExpirationDate: s.ExpirationDate,
	}
	if s.ExpirationDate.After(now) {
		info.DaysUntilExpiry = int(s.ExpirationDate.Sub(now) / (24 * time.Hour))
	}
	return info
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.OriginalJSON = slices.Clone(s.OriginalJSON)
	if s.Price != nil {
		p := *s.Price
		c.Price = &p
	}
	return &c
}

// mapper translates provider payloads into snapshots.
type mapper struct {
	unknownState State
	now          func() time.Time
	log          *slog.Logger
}

func (m mapper) snapshot(ctx context.Context, packageName, token string, p SubscriptionPurchaseV2, raw []byte) *Snapshot {
	now := m.now().UTC()

	var item LineItem
	if len(p.LineItems) > 0 {
		item = p.LineItems[0]
	}

	s := &Snapshot{
		PackageName:          packageName,
		PurchaseToken:        token,
		ProductID:            item.ProductID,
		StartDate:            m.parseTime(ctx, "startTime", p.StartTime, now),
		ExpirationDate:       m.parseTime(ctx, "expiryTime", item.ExpiryTime, now),
		State:                m.state(ctx, p.SubscriptionState),
		AcknowledgementState: parseAcknowledgement(p.AcknowledgementState),
		LatestOrderID:        p.LatestOrderID,
		RegionCode:           p.RegionCode,
		LinkedPurchaseToken:  p.LinkedPurchaseToken,
		OriginalJSON:         slices.Clone(raw),
		CheckedAt:            now,
	}

	if plan := item.AutoRenewingPlan; plan != nil {
		s.AutoRenewing = plan.AutoRenewEnabled
		if plan.RecurringPrice != nil {
			s.Price = m.price(ctx, *plan.RecurringPrice)
		}
	}
	if item.OfferDetails != nil {
		s.BasePlanID = item.OfferDetails.BasePlanID
	}

	s.IsActive = s.State == StateActive && s.ExpirationDate.After(now)
	return s
}

func (m mapper) state(ctx context.Context, raw string) State {
	if st := State(raw); st.Known() {
		return st
	}
	m.log.WarnContext(ctx, "unrecognised subscription state, applying default",
		logger.SubscriptionState(raw),
		slog.String("default", string(m.unknownState)),
	)
	return m.unknownState
}

func (m mapper) parseTime(ctx context.Context, field, raw string, now time.Time) time.Time {
	if raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return t.UTC()
		}
	}
	m.log.WarnContext(ctx, "unparseable provider timestamp, using current time",
		slog.String("field", field),
		slog.String("value", raw),
	)
	return now
}

func (m mapper) price(ctx context.Context, money Money) *Price {
	var units int64
	if money.Units != "" {
		v, err := strconv.ParseInt(money.Units, 10, 64)
		if err != nil {
			m.log.WarnContext(ctx, "unparseable price units", slog.String("value", money.Units))
		} else {
			units = v
		}
	}
	return &Price{
		CurrencyCode: money.CurrencyCode,
		Nanos:        units*nanosPerUnit + money.Nanos,
	}
}
