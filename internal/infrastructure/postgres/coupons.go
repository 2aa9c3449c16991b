package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/ec-checkout/internal/domain/coupon"
	"github.com/shopspring/decimal"
)

// CouponRegistry reads coupons from the coupons table
type CouponRegistry struct {
	db *sql.DB
}

func NewCouponRegistry(db *sql.DB) *CouponRegistry {
	return &CouponRegistry{db: db}
}

func (r *CouponRegistry) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	var c coupon.Coupon
	var kind, scopeKind, value string
	var expiresAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT code, kind, value::text, min_order_amount, expires_at, scope_kind, scope_target
		FROM coupons WHERE code = $1
	`, coupon.NormalizeCode(code)).Scan(&c.Code, &kind, &value, &c.MinOrderAmount, &expiresAt, &scopeKind, &c.Scope.Target)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, coupon.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query coupon: %w", err)
	}

	c.Value, err = decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("coupon %s has invalid value %q: %w", c.Code, value, err)
	}
	if expiresAt.Valid {
		c.ExpiresAt = expiresAt.Time
	}
	c.Kind = coupon.Kind(kind)
	c.Scope.Kind = coupon.ScopeKind(scopeKind)
	return &c, nil
}

// Upsert validates and creates or replaces a coupon
func (r *CouponRegistry) Upsert(ctx context.Context, c coupon.Coupon) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO coupons (code, kind, value, min_order_amount, expires_at, scope_kind, scope_target)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO UPDATE SET
			kind = EXCLUDED.kind,
			value = EXCLUDED.value,
			min_order_amount = EXCLUDED.min_order_amount,
			expires_at = EXCLUDED.expires_at,
			scope_kind = EXCLUDED.scope_kind,
			scope_target = EXCLUDED.scope_target
	`, coupon.NormalizeCode(c.Code), string(c.Kind), c.Value.String(), int64(c.MinOrderAmount),
		expiry(c), string(c.Scope.Kind), c.Scope.Target)
	if err != nil {
		return fmt.Errorf("upsert coupon %s: %w", c.Code, err)
	}
	return nil
}

// expiry maps a zero expiry to NULL
func expiry(c coupon.Coupon) sql.NullTime {
	return sql.NullTime{Time: c.ExpiresAt, Valid: !c.ExpiresAt.IsZero()}
}
