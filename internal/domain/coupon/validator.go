package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validator validates a coupon code against a purchase amount and returns the
// computed discount without consuming a use.
type Validator interface {
	Validate(ctx context.Context, code string, amount decimal.Decimal) (*Discount, error)
}

// RepoValidator implements Validator by looking up coupon rules from a
// Repository and applying them via Evaluate.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate looks up the coupon rule for the given code and evaluates it
// against the amount. The usage counter is not touched; callers redeem
// separately once the order commits.
func (v *RepoValidator) Validate(ctx context.Context, code string, amount decimal.Decimal) (*Discount, error) {
	rule, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	d, err := Evaluate(rule, amount, v.now())
	if err != nil {
		return nil, err
	}

	return &d, nil
}
