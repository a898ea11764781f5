package trading

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-monitor/internal/model"
	"crypto-monitor/internal/types"
)

func spotAccount(balance string) model.Account {
	return model.Account{
		ID:             "acc-spot",
		AccountType:    types.AccountTypeTrading,
		Balance:        dec(balance),
		InitialBalance: dec("10000"),
		BorrowedAmount: decimal.Zero,
		MaxLeverage:    defaultMaxLeverage,
	}
}

func marginAccount(balance, borrowed string) model.Account {
	return model.Account{
		ID:             "acc-margin",
		AccountType:    types.AccountTypeMargin,
		Balance:        dec(balance),
		InitialBalance: dec("10000"),
		BorrowedAmount: dec(borrowed),
		MaxLeverage:    defaultMaxLeverage,
	}
}

func TestPlanBuyValidation(t *testing.T) {
	t.Parallel()

	acct := spotAccount("10000")

	tests := []struct {
		name     string
		symbol   string
		quantity string
		price    string
	}{
		{name: "empty_symbol", symbol: "  ", quantity: "1", price: "100"},
		{name: "zero_quantity", symbol: "BTCUSDT", quantity: "0", price: "100"},
		{name: "negative_quantity", symbol: "BTCUSDT", quantity: "-1", price: "100"},
		{name: "zero_price", symbol: "BTCUSDT", quantity: "1", price: "0"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := planBuy(acct, nil, decimal.Zero, tt.symbol, dec(tt.quantity), dec(tt.price), 1)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestPlanBuySpot(t *testing.T) {
	t.Parallel()

	acct := spotAccount("10000")
	plan, err := planBuy(acct, nil, decimal.Zero, "BTCUSDT", dec("0.1"), dec("20000"), 1)
	require.NoError(t, err)

	assert.True(t, plan.Total.Equal(dec("2000")), "total %s", plan.Total)
	assert.True(t, plan.RequiredMargin.Equal(dec("2000")), "margin %s", plan.RequiredMargin)
	assert.True(t, plan.BorrowedDelta.IsZero())
	assert.Equal(t, 1, plan.Leverage)
	assert.Nil(t, plan.LiquidationPrice)
	assert.Empty(t, plan.Notes)
	assert.True(t, plan.NewPositionQty.Equal(dec("0.1")))
	assert.True(t, plan.NewAvgEntry.Equal(dec("20000")))
}

func TestPlanBuySpotIgnoresLeverage(t *testing.T) {
	t.Parallel()

	// Leverage only applies to margin accounts; on spot the full
	// notional is debited regardless of what was requested.
	acct := spotAccount("10000")
	plan, err := planBuy(acct, nil, decimal.Zero, "BTCUSDT", dec("0.1"), dec("20000"), 5)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Leverage)
	assert.True(t, plan.RequiredMargin.Equal(dec("2000")))
}

func TestPlanBuyInsufficientFunds(t *testing.T) {
	t.Parallel()

	acct := spotAccount("1000")
	_, err := planBuy(acct, nil, decimal.Zero, "BTCUSDT", dec("0.1"), dec("20000"), 1)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestPlanBuyWeightedAverage(t *testing.T) {
	t.Parallel()

	acct := spotAccount("100000")
	held := &model.Position{
		Symbol:        "BTCUSDT",
		Quantity:      dec("1"),
		AvgEntryPrice: dec("20000"),
	}

	plan, err := planBuy(acct, held, decimal.Zero, "BTCUSDT", dec("1"), dec("30000"), 1)
	require.NoError(t, err)

	assert.True(t, plan.NewPositionQty.Equal(dec("2")), "qty %s", plan.NewPositionQty)
	assert.True(t, plan.NewAvgEntry.Equal(dec("25000")), "avg %s", plan.NewAvgEntry)
}

func TestPlanBuyMargin(t *testing.T) {
	t.Parallel()

	acct := marginAccount("10000", "0")
	plan, err := planBuy(acct, nil, decimal.Zero, "BTCUSDT", dec("1"), dec("5000"), 5)
	require.NoError(t, err)

	assert.Equal(t, 5, plan.Leverage)
	assert.True(t, plan.RequiredMargin.Equal(dec("1000")), "margin %s", plan.RequiredMargin)
	assert.True(t, plan.BorrowedDelta.Equal(dec("4000")), "borrowed %s", plan.BorrowedDelta)
	require.NotNil(t, plan.LiquidationPrice)
	assert.True(t, plan.LiquidationPrice.Equal(dec("3500")), "liq %s", plan.LiquidationPrice)
	assert.Equal(t, "Leverage: x5", plan.Notes)
}

func TestPlanBuyMarginClampsToMax(t *testing.T) {
	t.Parallel()

	acct := marginAccount("10000", "0")
	plan, err := planBuy(acct, nil, decimal.Zero, "BTCUSDT", dec("1"), dec("5000"), 50)
	require.NoError(t, err)
	assert.Equal(t, 5, plan.Leverage)
}

func TestPlanBuyMarginRatioRejected(t *testing.T) {
	t.Parallel()

	// Heavy existing debt pushes the projected ratio far past the limit.
	acct := marginAccount("1000", "50000")
	_, err := planBuy(acct, nil, decimal.Zero, "BTCUSDT", dec("1"), dec("5000"), 5)
	assert.ErrorIs(t, err, ErrMarginRisk)
}

func TestPlanBuyMarginMaintenanceRejected(t *testing.T) {
	t.Parallel()

	// Initial margin fits, but what remains cannot cover 10%
	// maintenance on the combined positions value.
	acct := marginAccount("1100", "0")
	_, err := planBuy(acct, nil, decimal.Zero, "BTCUSDT", dec("1"), dec("5000"), 5)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Contains(t, err.Error(), "maintenance")
}

func TestPlanSell(t *testing.T) {
	t.Parallel()

	held := &model.Position{
		Symbol:        "BTCUSDT",
		Quantity:      dec("0.1"),
		AvgEntryPrice: dec("20000"),
	}

	plan, err := planSell(held, "BTCUSDT", dec("0.1"), dec("25000"))
	require.NoError(t, err)

	assert.True(t, plan.Total.Equal(dec("2500")), "total %s", plan.Total)
	assert.True(t, plan.NetRevenue.Equal(dec("2497.5")), "net %s", plan.NetRevenue)
	assert.True(t, plan.RemainingQty.IsZero())
	assert.True(t, plan.ClosesOut)
}

func TestPlanSellPartial(t *testing.T) {
	t.Parallel()

	held := &model.Position{
		Symbol:        "ETHUSDT",
		Quantity:      dec("2"),
		AvgEntryPrice: dec("3000"),
	}

	plan, err := planSell(held, "ETHUSDT", dec("0.5"), dec("3200"))
	require.NoError(t, err)

	assert.True(t, plan.RemainingQty.Equal(dec("1.5")), "remaining %s", plan.RemainingQty)
	assert.False(t, plan.ClosesOut)
}

func TestPlanSellRejections(t *testing.T) {
	t.Parallel()

	held := &model.Position{Symbol: "BTCUSDT", Quantity: dec("0.1"), AvgEntryPrice: dec("20000")}

	t.Run("no_position", func(t *testing.T) {
		t.Parallel()
		_, err := planSell(nil, "BTCUSDT", dec("0.1"), dec("25000"))
		assert.ErrorIs(t, err, ErrInsufficientPosition)
	})

	t.Run("oversized", func(t *testing.T) {
		t.Parallel()
		_, err := planSell(held, "BTCUSDT", dec("0.2"), dec("25000"))
		assert.ErrorIs(t, err, ErrInsufficientPosition)
	})

	t.Run("bad_price", func(t *testing.T) {
		t.Parallel()
		_, err := planSell(held, "BTCUSDT", dec("0.1"), dec("-1"))
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestRealizedPnL(t *testing.T) {
	t.Parallel()

	open := model.Trade{
		Side:     types.TradeSideBuy,
		Quantity: dec("0.1"),
		Price:    dec("20000"),
		Total:    dec("2000"),
		FeeRate:  feeRate,
	}
	closing := model.Trade{
		Side:     types.TradeSideSell,
		Quantity: dec("0.1"),
		Price:    dec("25000"),
		Total:    dec("2500"),
		FeeRate:  feeRate,
	}

	pnl, pct := realizedPnL(open, closing)
	// 500 gross, minus 2.00 buy fee and 2.50 sell fee.
	assert.True(t, pnl.Equal(dec("495.5")), "pnl %s", pnl)
	assert.True(t, pct.Equal(dec("25")), "pct %s", pct)
}

func TestRealizedPnLLoss(t *testing.T) {
	t.Parallel()

	open := model.Trade{Quantity: dec("1"), Price: dec("3000"), Total: dec("3000"), FeeRate: feeRate}
	closing := model.Trade{Quantity: dec("1"), Price: dec("2700"), Total: dec("2700"), FeeRate: feeRate}

	pnl, pct := realizedPnL(open, closing)
	assert.True(t, pnl.Equal(dec("-305.7")), "pnl %s", pnl)
	assert.True(t, pct.Equal(dec("-10")), "pct %s", pct)
}

func TestLeverageFromNotes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		notes    string
		expected int
	}{
		{notes: "Leverage: x5", expected: 5},
		{notes: "Leverage: x2", expected: 2},
		{notes: "", expected: 1},
		{notes: "manual entry", expected: 1},
		{notes: "Leverage: x", expected: 1},
		{notes: "Leverage: x0", expected: 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, leverageFromNotes(tt.notes), "notes %q", tt.notes)
	}
}
