package trading

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"crypto-monitor/internal/types"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLiquidationPrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		entry    string
		leverage int
		expected string
	}{
		{name: "btc_5x", entry: "30000", leverage: 5, expected: "21000"},
		{name: "2x", entry: "1000", leverage: 2, expected: "400"},
		{name: "5x_small_entry", entry: "100", leverage: 5, expected: "70"},
		{name: "leverage_below_one_treated_as_one", entry: "1000", leverage: 0, expected: "0"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			liq := LiquidationPrice(dec(tt.entry), tt.leverage)
			assert.True(t, liq.Equal(dec(tt.expected)), "got %s, want %s", liq, tt.expected)
		})
	}
}

func TestLiquidationPriceNeverNegative(t *testing.T) {
	t.Parallel()

	// 1 - 0.10 - 1/1 < 0 for leverage 1; the floor kicks in.
	liq := LiquidationPrice(dec("30000"), 1)
	assert.True(t, liq.Equal(decimal.Zero), "got %s", liq)
}

func TestMarginRatio(t *testing.T) {
	t.Parallel()

	ratio := MarginRatio(dec("4000"), dec("16000"))
	assert.True(t, ratio.Equal(dec("25")), "got %s", ratio)

	// Zero collateral reports the sentinel instead of dividing.
	sentinel := MarginRatio(dec("4000"), decimal.Zero)
	assert.True(t, sentinel.Equal(dec("999")), "got %s", sentinel)
}

func TestMarginRatioMonotonic(t *testing.T) {
	t.Parallel()

	collateral := dec("10000")
	low := MarginRatio(dec("1000"), collateral)
	high := MarginRatio(dec("5000"), collateral)
	assert.True(t, high.GreaterThan(low))

	borrowed := dec("5000")
	thin := MarginRatio(borrowed, dec("6000"))
	thick := MarginRatio(borrowed, dec("20000"))
	assert.True(t, thin.GreaterThan(thick))
}

func TestRiskLevelForRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ratio    string
		expected types.RiskLevel
	}{
		{ratio: "95", expected: types.RiskLevelHigh},
		{ratio: "80", expected: types.RiskLevelHigh},
		{ratio: "79.99", expected: types.RiskLevelMedium},
		{ratio: "60", expected: types.RiskLevelMedium},
		{ratio: "59.99", expected: types.RiskLevelLow},
		{ratio: "0", expected: types.RiskLevelLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, RiskLevelForRatio(dec(tt.ratio)), "ratio %s", tt.ratio)
	}
}

func TestDistanceToLiquidation(t *testing.T) {
	t.Parallel()

	dist := DistanceToLiquidation(dec("30000"), dec("21000"))
	assert.True(t, dist.Equal(dec("30")), "got %s", dist)

	assert.True(t, DistanceToLiquidation(decimal.Zero, dec("21000")).Equal(decimal.Zero))
}

func TestClampLeverage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		accountType types.AccountType
		requested   int
		max         int
		expected    int
	}{
		{name: "spot_forced_to_one", accountType: types.AccountTypeTrading, requested: 5, max: 5, expected: 1},
		{name: "finance_forced_to_one", accountType: types.AccountTypeFinance, requested: 3, max: 5, expected: 1},
		{name: "margin_within_limit", accountType: types.AccountTypeMargin, requested: 3, max: 5, expected: 3},
		{name: "margin_clamped_to_max", accountType: types.AccountTypeMargin, requested: 20, max: 5, expected: 5},
		{name: "margin_floor_one", accountType: types.AccountTypeMargin, requested: 0, max: 5, expected: 1},
		{name: "margin_zero_max_uses_default", accountType: types.AccountTypeMargin, requested: 10, max: 0, expected: 5},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, clampLeverage(tt.accountType, tt.requested, tt.max))
		})
	}
}
