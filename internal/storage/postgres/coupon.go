package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-api/internal/domain/coupon"
)

const (
	couponColumns = `code, discount_type, discount_value, min_purchase, max_discount,
		expires_at, active, usage_limit, usage_count, description`

	findCouponSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	// Conditional increment: the WHERE clause admits the update only while the
	// limit is not yet reached, so concurrent redemptions cannot overshoot it.
	redeemCouponSQL = `UPDATE coupons
		SET usage_count = usage_count + 1
		WHERE code = $1 AND active
		  AND (usage_limit <= 0 OR usage_count < usage_limit)`

	upsertCouponSQL = `INSERT INTO coupons
		(code, discount_type, discount_value, min_purchase, max_discount,
		 expires_at, active, usage_limit, usage_count, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			discount_value = EXCLUDED.discount_value,
			min_purchase = EXCLUDED.min_purchase,
			max_discount = EXCLUDED.max_discount,
			expires_at = EXCLUDED.expires_at,
			active = EXCLUDED.active,
			usage_limit = EXCLUDED.usage_limit,
			description = EXCLUDED.description`

	activateCouponsSQL = `UPDATE coupons SET active = $2 WHERE code = ANY($1)`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode returns the coupon rule for an exact, case-sensitive code.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Rule, error) {
	rows, err := r.pool.Query(ctx, findCouponSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}
	return &rule, nil
}

// Redeem increments usage_count atomically. When zero rows match it re-reads
// the rule to report the precise reason the redemption failed.
func (r *CouponRepository) Redeem(ctx context.Context, code string) error {
	return redeemCoupon(ctx, r.pool, code)
}

// redeemCoupon runs the conditional increment on any pgx querier so the order
// repository can reuse it inside a placement transaction.
func redeemCoupon(ctx context.Context, q querier, code string) error {
	tag, err := q.Exec(ctx, redeemCouponSQL, code)
	if err != nil {
		return fmt.Errorf("redeeming coupon %q: %w", code, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	rows, err := q.Query(ctx, findCouponSQL, code)
	if err != nil {
		return fmt.Errorf("diagnosing coupon %q: %w", code, err)
	}
	rule, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coupon.ErrNotFound
		}
		return fmt.Errorf("diagnosing coupon %q: %w", code, err)
	}

	if !rule.Active {
		return coupon.ErrInactive
	}
	return coupon.ErrUsageLimitReached
}

// Upsert inserts or replaces a coupon rule. Used by seeding and ingest tools.
func (r *CouponRepository) Upsert(ctx context.Context, rule *coupon.Rule) error {
	_, err := r.pool.Exec(ctx, upsertCouponSQL,
		rule.Code, rule.DiscountType, rule.DiscountValue, rule.MinPurchase, rule.MaxDiscount,
		rule.ExpiresAt, rule.Active, rule.UsageLimit, rule.UsageCount, rule.Description,
	)
	if err != nil {
		return fmt.Errorf("upserting coupon %q: %w", rule.Code, err)
	}
	return nil
}

// SetActive flips the active flag for a batch of codes. Used by the ingest
// tool to publish validated codes in one statement.
func (r *CouponRepository) SetActive(ctx context.Context, codes []string, active bool) error {
	if len(codes) == 0 {
		return nil
	}
	if _, err := r.pool.Exec(ctx, activateCouponsSQL, codes, active); err != nil {
		return fmt.Errorf("setting coupons active=%v: %w", active, err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Rule, error) {
	var c coupon.Rule
	err := row.Scan(
		&c.Code, &c.DiscountType, &c.DiscountValue, &c.MinPurchase, &c.MaxDiscount,
		&c.ExpiresAt, &c.Active, &c.UsageLimit, &c.UsageCount, &c.Description,
	)
	return c, err
}
