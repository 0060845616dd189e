package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the amount,
	// optionally capped at the rule's MaxDiscount.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount capped at the amount.
	DiscountFixed DiscountType = "fixed"
)

var (
	// ErrNotFound is returned when no coupon matches the given code.
	// Codes are matched case-sensitively as stored.
	ErrNotFound = errors.New("coupon not found")
	// ErrInactive is returned when the coupon has been deactivated.
	ErrInactive = errors.New("coupon is not active")
	// ErrExpired is returned when the coupon's expiry date has passed.
	ErrExpired = errors.New("coupon has expired")
	// ErrUsageLimitReached is returned when the coupon has exhausted its allowed uses.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrBelowMinimum is returned when the amount is below the coupon's minimum purchase.
	ErrBelowMinimum = errors.New("amount below coupon minimum purchase")
)

// Rule defines a coupon's discount behaviour and eligibility constraints.
type Rule struct {
	Code          string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	MinPurchase   decimal.Decimal
	// MaxDiscount caps percentage discounts when non-nil. Ignored for fixed.
	MaxDiscount *decimal.Decimal
	ExpiresAt   *time.Time
	Active      bool
	// UsageLimit of zero or less means unlimited.
	UsageLimit  int
	UsageCount  int
	Description string
}

// Discount holds the computed discount and the resulting amount.
type Discount struct {
	Amount decimal.Decimal
	Final  decimal.Decimal
}

// Repository provides lookup and redemption of coupon rules.
//
// Redeem consumes one use: it must increment the usage counter atomically and
// fail when the limit is already exhausted, so that concurrent redemptions can
// never push usage past the limit. Evaluation never redeems.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
	Redeem(ctx context.Context, code string) error
}
