package trading

import (
	"github.com/shopspring/decimal"

	"crypto-monitor/internal/types"
)

var (
	// Fixed taker fee charged on every execution.
	feeRate = decimal.RequireFromString("0.001")
	// Cross-margin maintenance requirement, flat 10% for every symbol.
	maintenanceMarginRate = decimal.RequireFromString("0.10")
	// Leveraged buys are rejected once the projected ratio crosses this.
	marginRatioLimit = decimal.NewFromInt(80)
	// Reported when an account has no collateral at all; avoids a
	// division by zero while still reading as extreme risk.
	marginRatioSentinel = decimal.NewFromInt(999)

	seedBalance = decimal.NewFromInt(10000)

	oneHundred = decimal.NewFromInt(100)
)

const defaultMaxLeverage = 5

// LiquidationPrice estimates the long liquidation level for a leveraged
// entry: entry * (1 - maintenance - 1/leverage), floored at zero.
func LiquidationPrice(entryPrice decimal.Decimal, leverage int) decimal.Decimal {
	if leverage < 1 {
		leverage = 1
	}
	lev := decimal.NewFromInt(int64(leverage))
	factor := decimal.NewFromInt(1).Sub(maintenanceMarginRate).Sub(decimal.NewFromInt(1).Div(lev))
	liq := entryPrice.Mul(factor)
	if liq.IsNegative() {
		return decimal.Zero
	}
	return liq
}

// MarginRatio is borrowed funds as a percentage of total collateral.
func MarginRatio(totalBorrowed, totalCollateral decimal.Decimal) decimal.Decimal {
	if totalCollateral.IsZero() {
		return marginRatioSentinel
	}
	return totalBorrowed.Div(totalCollateral).Mul(oneHundred)
}

// RiskLevelForRatio buckets a margin ratio for display: liquidation is
// imminent at 80, worth watching from 60.
func RiskLevelForRatio(ratio decimal.Decimal) types.RiskLevel {
	switch {
	case ratio.GreaterThanOrEqual(marginRatioLimit):
		return types.RiskLevelHigh
	case ratio.GreaterThanOrEqual(decimal.NewFromInt(60)):
		return types.RiskLevelMedium
	default:
		return types.RiskLevelLow
	}
}

// DistanceToLiquidation is how far the mark price sits above the
// liquidation level, as a percentage of the mark price.
func DistanceToLiquidation(currentPrice, liquidationPrice decimal.Decimal) decimal.Decimal {
	if !currentPrice.IsPositive() {
		return decimal.Zero
	}
	return currentPrice.Sub(liquidationPrice).Div(currentPrice).Mul(oneHundred)
}

func clampLeverage(accountType types.AccountType, requested, maxLeverage int) int {
	if accountType != types.AccountTypeMargin {
		return 1
	}
	if maxLeverage < 1 {
		maxLeverage = defaultMaxLeverage
	}
	if requested < 1 {
		return 1
	}
	if requested > maxLeverage {
		return maxLeverage
	}
	return requested
}
