package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCouponRepo struct {
	rule         *Rule
	err          error
	redeemedCode string
}

func (m *mockCouponRepo) FindByCode(_ context.Context, _ string) (*Rule, error) {
	return m.rule, m.err
}

func (m *mockCouponRepo) Redeem(_ context.Context, code string) error {
	m.redeemedCode = code
	return nil
}

func TestRepoValidator_Validate(t *testing.T) {
	repo := &mockCouponRepo{
		rule: &Rule{
			Code:          "SAVE10",
			DiscountType:  DiscountPercentage,
			DiscountValue: decimal.NewFromInt(10),
			Active:        true,
		},
	}

	v := NewRepoValidator(repo)
	v.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }

	got, err := v.Validate(context.Background(), "SAVE10", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(got.Amount))
	assert.True(t, decimal.NewFromInt(90).Equal(got.Final))
}

func TestRepoValidator_NotFound(t *testing.T) {
	repo := &mockCouponRepo{err: ErrNotFound}

	v := NewRepoValidator(repo)
	_, err := v.Validate(context.Background(), "BOGUS", decimal.NewFromInt(100))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRepoValidator_LookupError(t *testing.T) {
	repo := &mockCouponRepo{err: errors.New("db down")}

	v := NewRepoValidator(repo)
	_, err := v.Validate(context.Background(), "SAVE10", decimal.NewFromInt(100))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lookup coupon")
}

func TestRepoValidator_DoesNotRedeem(t *testing.T) {
	repo := &mockCouponRepo{
		rule: &Rule{
			Code:          "SAVE10",
			DiscountType:  DiscountPercentage,
			DiscountValue: decimal.NewFromInt(10),
			Active:        true,
		},
	}

	v := NewRepoValidator(repo)
	_, err := v.Validate(context.Background(), "SAVE10", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Empty(t, repo.redeemedCode, "validation must not consume a use")
}
