package coupon

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Evaluate applies a coupon rule to a purchase amount and returns the computed
// discount. It is a pure function: it never mutates the rule or its usage
// counter. Redemption is a separate step performed inside the order
// transaction.
func Evaluate(rule *Rule, amount decimal.Decimal, now time.Time) (Discount, error) {
	if !rule.Active {
		return Discount{}, ErrInactive
	}
	if rule.ExpiresAt != nil && now.After(*rule.ExpiresAt) {
		return Discount{}, ErrExpired
	}
	if rule.UsageLimit > 0 && rule.UsageCount >= rule.UsageLimit {
		return Discount{}, ErrUsageLimitReached
	}
	if amount.LessThan(rule.MinPurchase) {
		return Discount{}, ErrBelowMinimum
	}

	var discount decimal.Decimal
	switch rule.DiscountType {
	case DiscountPercentage:
		discount = amount.Mul(rule.DiscountValue).Div(hundred)
		if rule.MaxDiscount != nil {
			discount = decimal.Min(discount, *rule.MaxDiscount)
		}
	case DiscountFixed:
		discount = rule.DiscountValue
	default:
		return Discount{}, errors.Errorf("unsupported discount type: %q", rule.DiscountType)
	}

	// A discount can never exceed the amount it applies to.
	discount = decimal.Min(discount, amount)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	discount = discount.Round(2)

	return Discount{
		Amount: discount,
		Final:  amount.Sub(discount).Round(2),
	}, nil
}
