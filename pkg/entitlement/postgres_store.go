package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lucasviinic/flashly-api/pkg/logger"
	"github.com/lucasviinic/flashly-api/pkg/metrics"
	"github.com/lucasviinic/flashly-api/pkg/pg"
	"github.com/lucasviinic/flashly-api/pkg/playbilling"
)

const recordColumns = `id, user_id, package_name, purchase_token, product_id, start_date, expiration_date,
	subscription_state, auto_renewing, acknowledgement_state, is_active, entitled, currency_code, price_nanos,
	base_plan_id, linked_purchase_token, latest_order_id, region_code, original_json,
	created_at, updated_at, deleted_at`

const (
	updateByTokenQuery = `UPDATE subscriptions SET
		package_name = $2, product_id = $3, start_date = $4, expiration_date = $5,
		subscription_state = $6, auto_renewing = $7, acknowledgement_state = $8, is_active = $9,
		currency_code = $10, price_nanos = $11, base_plan_id = $12, linked_purchase_token = $13,
		latest_order_id = $14, region_code = $15, original_json = $16, entitled = $17, updated_at = now()
		WHERE purchase_token = $1
		RETURNING ` + recordColumns

	insertQuery = `INSERT INTO subscriptions (
		purchase_token, package_name, product_id, start_date, expiration_date,
		subscription_state, auto_renewing, acknowledgement_state, is_active,
		currency_code, price_nanos, base_plan_id, linked_purchase_token,
		latest_order_id, region_code, original_json, entitled, id, user_id
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	RETURNING ` + recordColumns

	getByTokenQuery = `SELECT ` + recordColumns + ` FROM subscriptions WHERE purchase_token = $1`

	getActiveForUserQuery = `SELECT ` + recordColumns + ` FROM subscriptions
		WHERE user_id = $1 AND entitled AND deleted_at IS NULL
		ORDER BY updated_at DESC
		LIMIT 1`

	listActiveForUserQuery = `SELECT ` + recordColumns + ` FROM subscriptions
		WHERE user_id = $1 AND is_active AND deleted_at IS NULL AND expiration_date > $2
		ORDER BY updated_at DESC`

	markInactiveQuery = `UPDATE subscriptions SET is_active = FALSE, entitled = FALSE, updated_at = now() WHERE id = $1`

	deactivateQuery = `UPDATE subscriptions SET is_active = FALSE, entitled = FALSE, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`

	softDeleteQuery = `UPDATE subscriptions SET deleted_at = now(), is_active = FALSE, entitled = FALSE, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`
)

// PostgresStore implements Store on the subscriptions table. It always
// writes through the pool so verification results persist even when the
// caller's transaction rolls back.
type PostgresStore struct {
	db      pg.DBTX
	log     *slog.Logger
	metrics *metrics.Metrics
}

// StoreOption configures a PostgresStore.
type StoreOption func(*PostgresStore)

func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(s *PostgresStore) {
		if l != nil {
			s.log = l
		}
	}
}

func WithStoreMetrics(m *metrics.Metrics) StoreOption {
	return func(s *PostgresStore) { s.metrics = m }
}

func NewPostgresStore(db pg.DBTX, opts ...StoreOption) *PostgresStore {
	s := &PostgresStore{db: db, log: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PostgresStore) Upsert(ctx context.Context, snap *playbilling.Snapshot, userID uuid.UUID) (*Record, error) {
	if err := validateUpsert(snap, userID); err != nil {
		return nil, err
	}

	var r Record
	r.apply(snap, time.Now())

	rec, err := s.update(ctx, &r)
	if err == nil {
		return rec, nil
	}
	if !pg.IsNotFoundError(err) {
		return nil, errors.Join(ErrStoreFailure, err)
	}

	rec, err = s.insert(ctx, &r, userID)
	if err == nil {
		return rec, nil
	}
	if !pg.IsDuplicateKeyError(err) {
		return nil, errors.Join(ErrStoreFailure, err)
	}

	// Another request inserted the token between our update and insert.
	s.metrics.ObserveUpsertRetry()
	s.log.DebugContext(ctx, "purchase token inserted concurrently, retrying as update",
		logger.PurchaseToken(snap.PurchaseToken),
		logger.RetryCount(1),
	)
	rec, err = s.update(ctx, &r)
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return rec, nil
}

func (s *PostgresStore) GetByToken(ctx context.Context, token string) (*Record, error) {
	return s.one(s.db.QueryRow(ctx, getByTokenQuery, token))
}

func (s *PostgresStore) GetActiveForUser(ctx context.Context, userID uuid.UUID) (*Record, error) {
	return s.one(s.db.QueryRow(ctx, getActiveForUserQuery, userID))
}

func (s *PostgresStore) ListActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]Record, error) {
	rows, err := s.db.Query(ctx, listActiveForUserQuery, userID, now)
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, errors.Join(ErrStoreFailure, err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return out, nil
}

func (s *PostgresStore) MarkInactive(ctx context.Context, id uuid.UUID) error {
	return s.exec(ctx, markInactiveQuery, id)
}

func (s *PostgresStore) Deactivate(ctx context.Context, id, userID uuid.UUID) error {
	return s.exec(ctx, deactivateQuery, id, userID)
}

func (s *PostgresStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return s.exec(ctx, softDeleteQuery, id)
}

func (s *PostgresStore) update(ctx context.Context, r *Record) (*Record, error) {
	return scanRecord(s.db.QueryRow(ctx, updateByTokenQuery, providerArgs(r)...))
}

func (s *PostgresStore) insert(ctx context.Context, r *Record, userID uuid.UUID) (*Record, error) {
	args := append(providerArgs(r), uuid.New(), userID)
	return scanRecord(s.db.QueryRow(ctx, insertQuery, args...))
}

func (s *PostgresStore) exec(ctx context.Context, query string, args ...any) error {
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) one(row pgx.Row) (*Record, error) {
	r, err := scanRecord(row)
	if pg.IsNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return r, nil
}

// providerArgs returns $1..$17 shared by the update and insert statements.
func providerArgs(r *Record) []any {
	var original []byte
	if len(r.OriginalJSON) > 0 {
		original = r.OriginalJSON
	}
	return []any{
		r.PurchaseToken,
		r.PackageName,
		r.ProductID,
		r.StartDate,
		r.ExpirationDate,
		string(r.SubscriptionState),
		r.AutoRenewing,
		nullable(string(r.AcknowledgementState)),
		r.IsActive,
		nullable(r.CurrencyCode),
		r.PriceNanos,
		nullable(r.BasePlanID),
		nullable(r.LinkedPurchaseToken),
		nullable(r.LatestOrderID),
		nullable(r.RegionCode),
		original,
		r.Entitled,
	}
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		r                                           Record
		state                                       string
		ack, currency, basePlan, linked, order, reg *string
		original                                    []byte
	)
	err := row.Scan(
		&r.ID, &r.UserID, &r.PackageName, &r.PurchaseToken, &r.ProductID, &r.StartDate, &r.ExpirationDate,
		&state, &r.AutoRenewing, &ack, &r.IsActive, &r.Entitled, &currency, &r.PriceNanos,
		&basePlan, &linked, &order, &reg, &original,
		&r.CreatedAt, &r.UpdatedAt, &r.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	r.SubscriptionState = playbilling.State(state)
	r.AcknowledgementState = playbilling.AcknowledgementState(deref(ack))
	r.CurrencyCode = deref(currency)
	r.BasePlanID = deref(basePlan)
	r.LinkedPurchaseToken = deref(linked)
	r.LatestOrderID = deref(order)
	r.RegionCode = deref(reg)
	r.OriginalJSON = original
	r.StartDate = r.StartDate.UTC()
	r.ExpirationDate = r.ExpirationDate.UTC()
	return &r, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
