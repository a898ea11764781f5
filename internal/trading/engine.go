package trading

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"crypto-monitor/internal/model"
)

// The planning functions below decide what a buy or sell does to the
// account without touching storage: the service loads state, plans,
// then applies the plan inside one transaction. Rejections happen here,
// before anything is written.

type buyPlan struct {
	Symbol           string
	Quantity         decimal.Decimal
	Price            decimal.Decimal
	Total            decimal.Decimal
	RequiredMargin   decimal.Decimal
	BorrowedDelta    decimal.Decimal
	FeeRate          decimal.Decimal
	Leverage         int
	LiquidationPrice *decimal.Decimal
	Notes            string
	NewPositionQty   decimal.Decimal
	NewAvgEntry      decimal.Decimal
}

type sellPlan struct {
	Symbol       string
	Quantity     decimal.Decimal
	Price        decimal.Decimal
	Total        decimal.Decimal
	FeeRate      decimal.Decimal
	NetRevenue   decimal.Decimal
	RemainingQty decimal.Decimal
	ClosesOut    bool
}

func validateOrder(symbol string, quantity, price decimal.Decimal) error {
	if strings.TrimSpace(symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrValidation)
	}
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if !price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	return nil
}

// planBuy validates and prices a buy against the locked account state.
// openPositionsValue is the mark value of every position already open
// on the account; the margin admissibility check needs it.
func planBuy(account model.Account, position *model.Position, openPositionsValue decimal.Decimal, symbol string, quantity, price decimal.Decimal, leverage int) (buyPlan, error) {
	var plan buyPlan
	if err := validateOrder(symbol, quantity, price); err != nil {
		return plan, err
	}
	leverage = clampLeverage(account.AccountType, leverage, account.MaxLeverage)

	total := quantity.Mul(price)
	requiredMargin := total.Div(decimal.NewFromInt(int64(leverage)))

	if leverage > 1 {
		if err := checkMarginAdmissibility(account, openPositionsValue, total, requiredMargin); err != nil {
			return plan, err
		}
	}
	if account.Balance.LessThan(requiredMargin) {
		return plan, fmt.Errorf("%w: balance %s, required %s", ErrInsufficientFunds,
			account.Balance.StringFixed(2), requiredMargin.StringFixed(2))
	}

	plan = buyPlan{
		Symbol:         symbol,
		Quantity:       quantity,
		Price:          price,
		Total:          total,
		RequiredMargin: requiredMargin,
		BorrowedDelta:  decimal.Zero,
		FeeRate:        feeRate,
		Leverage:       leverage,
		NewPositionQty: quantity,
		NewAvgEntry:    price,
	}
	if leverage > 1 {
		plan.BorrowedDelta = total.Sub(requiredMargin)
		liq := LiquidationPrice(price, leverage)
		plan.LiquidationPrice = &liq
		plan.Notes = "Leverage: x" + strconv.Itoa(leverage)
	}
	if position != nil {
		// Cost-weighted average over the combined quantity.
		newQty := position.Quantity.Add(quantity)
		cost := position.Quantity.Mul(position.AvgEntryPrice).Add(total)
		plan.NewPositionQty = newQty
		plan.NewAvgEntry = cost.Div(newQty)
	}
	return plan, nil
}

// checkMarginAdmissibility projects the account past this trade and
// rejects it when the projected margin ratio crosses the limit, the
// initial margin cannot be reserved, or what remains after reserving it
// would not cover maintenance.
func checkMarginAdmissibility(account model.Account, openPositionsValue, total, requiredMargin decimal.Decimal) error {
	totalPositionsValue := openPositionsValue.Add(total)
	requiredMaintenance := totalPositionsValue.Mul(maintenanceMarginRate)

	borrowedAfter := total.Sub(requiredMargin)
	totalBorrowed := account.BorrowedAmount.Add(borrowedAfter)
	totalCollateral := account.Balance.Add(totalPositionsValue)

	ratio := MarginRatio(totalBorrowed, totalCollateral)
	if ratio.GreaterThan(marginRatioLimit) {
		return fmt.Errorf("%w: projected margin ratio %s%%", ErrMarginRisk, ratio.StringFixed(2))
	}
	if account.Balance.LessThan(requiredMargin) {
		return fmt.Errorf("%w: initial margin %s required", ErrInsufficientFunds, requiredMargin.StringFixed(2))
	}
	remaining := account.Balance.Sub(requiredMargin)
	if remaining.LessThan(requiredMaintenance) {
		return fmt.Errorf("%w: maintenance margin %s required after reserving initial margin", ErrInsufficientFunds, requiredMaintenance.StringFixed(2))
	}
	return nil
}

func planSell(position *model.Position, symbol string, quantity, price decimal.Decimal) (sellPlan, error) {
	var plan sellPlan
	if err := validateOrder(symbol, quantity, price); err != nil {
		return plan, err
	}
	if position == nil {
		return plan, fmt.Errorf("%w: no open position in %s", ErrInsufficientPosition, symbol)
	}
	if position.Quantity.LessThan(quantity) {
		return plan, fmt.Errorf("%w: holding %s, requested %s", ErrInsufficientPosition,
			position.Quantity.String(), quantity.String())
	}

	total := quantity.Mul(price)
	fee := total.Mul(feeRate)
	remaining := position.Quantity.Sub(quantity)
	return sellPlan{
		Symbol:       symbol,
		Quantity:     quantity,
		Price:        price,
		Total:        total,
		FeeRate:      feeRate,
		NetRevenue:   total.Sub(fee),
		RemainingQty: remaining,
		ClosesOut:    !remaining.IsPositive(),
	}, nil
}

// realizedPnL books the profit of a closing sell against its FIFO
// opening buy: price difference over the sold quantity, minus both
// trades' fees.
func realizedPnL(open, closing model.Trade) (pnl, pct decimal.Decimal) {
	diff := closing.Price.Sub(open.Price)
	pnl = diff.Mul(closing.Quantity).Sub(open.FeeAmount()).Sub(closing.FeeAmount())
	if open.Price.IsPositive() {
		pct = diff.Div(open.Price).Mul(oneHundred)
	}
	return pnl, pct
}

// leverageFromNotes recovers the leverage recorded on a margin buy
// ("Leverage: x5"). Unleveraged trades carry no note and report 1.
func leverageFromNotes(notes string) int {
	notes = strings.TrimSpace(notes)
	idx := strings.LastIndex(notes, "x")
	if idx < 0 {
		return 1
	}
	rest := strings.Fields(notes[idx+1:])
	if len(rest) == 0 {
		return 1
	}
	lev, err := strconv.Atoi(rest[0])
	if err != nil || lev < 1 {
		return 1
	}
	return lev
}
