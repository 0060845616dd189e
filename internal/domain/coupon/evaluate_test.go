package coupon

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestEvaluate(t *testing.T) {
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	pastTime := fixedNow.Add(-24 * time.Hour)
	futureTime := fixedNow.Add(24 * time.Hour)

	tests := []struct {
		name       string
		rule       Rule
		amount     decimal.Decimal
		wantAmount decimal.Decimal
		wantFinal  decimal.Decimal
		wantErr    error
	}{
		{
			name: "percentage discount",
			rule: Rule{
				Code:          "SAVE10",
				DiscountType:  DiscountPercentage,
				DiscountValue: dec("10"),
				Active:        true,
			},
			amount:     dec("200"),
			wantAmount: dec("20"),
			wantFinal:  dec("180"),
		},
		{
			name: "percentage capped at max discount",
			rule: Rule{
				Code:          "SAVE10CAP",
				DiscountType:  DiscountPercentage,
				DiscountValue: dec("10"),
				MaxDiscount:   decPtr("50"),
				Active:        true,
			},
			amount:     dec("1000"),
			wantAmount: dec("50"),
			wantFinal:  dec("950"),
		},
		{
			name: "fixed discount",
			rule: Rule{
				Code:          "FLAT25",
				DiscountType:  DiscountFixed,
				DiscountValue: dec("25"),
				Active:        true,
			},
			amount:     dec("100"),
			wantAmount: dec("25"),
			wantFinal:  dec("75"),
		},
		{
			name: "fixed discount clamped to amount",
			rule: Rule{
				Code:          "FLAT200",
				DiscountType:  DiscountFixed,
				DiscountValue: dec("200"),
				Active:        true,
			},
			amount:     dec("150"),
			wantAmount: dec("150"),
			wantFinal:  dec("0"),
		},
		{
			name: "inactive coupon rejected",
			rule: Rule{
				Code:          "OFF",
				DiscountType:  DiscountFixed,
				DiscountValue: dec("5"),
				Active:        false,
			},
			amount:  dec("100"),
			wantErr: ErrInactive,
		},
		{
			name: "expired coupon rejected",
			rule: Rule{
				Code:          "OLD",
				DiscountType:  DiscountPercentage,
				DiscountValue: dec("10"),
				ExpiresAt:     &pastTime,
				Active:        true,
			},
			amount:  dec("100"),
			wantErr: ErrExpired,
		},
		{
			name: "expiry in future accepted",
			rule: Rule{
				Code:          "FRESH",
				DiscountType:  DiscountPercentage,
				DiscountValue: dec("10"),
				ExpiresAt:     &futureTime,
				Active:        true,
			},
			amount:     dec("100"),
			wantAmount: dec("10"),
			wantFinal:  dec("90"),
		},
		{
			name: "usage limit reached",
			rule: Rule{
				Code:          "LIMITED",
				DiscountType:  DiscountPercentage,
				DiscountValue: dec("10"),
				UsageLimit:    100,
				UsageCount:    100,
				Active:        true,
			},
			amount:  dec("100"),
			wantErr: ErrUsageLimitReached,
		},
		{
			name: "usage under limit accepted",
			rule: Rule{
				Code:          "HASROOM",
				DiscountType:  DiscountPercentage,
				DiscountValue: dec("10"),
				UsageLimit:    100,
				UsageCount:    99,
				Active:        true,
			},
			amount:     dec("100"),
			wantAmount: dec("10"),
			wantFinal:  dec("90"),
		},
		{
			name: "zero usage limit means unlimited",
			rule: Rule{
				Code:          "UNLIMITED",
				DiscountType:  DiscountFixed,
				DiscountValue: dec("5"),
				UsageLimit:    0,
				UsageCount:    9999,
				Active:        true,
			},
			amount:     dec("100"),
			wantAmount: dec("5"),
			wantFinal:  dec("95"),
		},
		{
			name: "amount below minimum purchase rejected",
			rule: Rule{
				Code:          "MIN1000",
				DiscountType:  DiscountPercentage,
				DiscountValue: dec("10"),
				MinPurchase:   dec("1000"),
				Active:        true,
			},
			amount:  dec("999"),
			wantErr: ErrBelowMinimum,
		},
		{
			name: "amount equal to minimum purchase accepted",
			rule: Rule{
				Code:          "MIN1000",
				DiscountType:  DiscountPercentage,
				DiscountValue: dec("10"),
				MinPurchase:   dec("1000"),
				Active:        true,
			},
			amount:     dec("1000"),
			wantAmount: dec("100"),
			wantFinal:  dec("900"),
		},
		{
			name: "negative discount value floored at zero",
			rule: Rule{
				Code:          "WEIRD",
				DiscountType:  DiscountFixed,
				DiscountValue: dec("-5"),
				Active:        true,
			},
			amount:     dec("100"),
			wantAmount: dec("0"),
			wantFinal:  dec("100"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(&tt.rule, tt.amount, fixedNow)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.True(t, tt.wantAmount.Equal(got.Amount),
				"expected discount %s, got %s", tt.wantAmount, got.Amount)
			assert.True(t, tt.wantFinal.Equal(got.Final),
				"expected final %s, got %s", tt.wantFinal, got.Final)
		})
	}
}

func TestEvaluate_Pure(t *testing.T) {
	rule := Rule{
		Code:          "PURE",
		DiscountType:  DiscountPercentage,
		DiscountValue: dec("10"),
		UsageLimit:    5,
		UsageCount:    2,
		Active:        true,
	}
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	first, err := Evaluate(&rule, dec("100"), now)
	require.NoError(t, err)
	second, err := Evaluate(&rule, dec("100"), now)
	require.NoError(t, err)

	assert.True(t, first.Amount.Equal(second.Amount))
	assert.Equal(t, 2, rule.UsageCount, "evaluation must not consume a use")
}

func TestEvaluate_UnknownType(t *testing.T) {
	rule := Rule{
		Code:          "BROKEN",
		DiscountType:  DiscountType("bogus"),
		DiscountValue: dec("10"),
		Active:        true,
	}

	_, err := Evaluate(&rule, dec("100"), time.Now())
	require.Error(t, err)
}
