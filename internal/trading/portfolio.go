package trading

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"crypto-monitor/internal/model"
	"crypto-monitor/internal/types"
)

type MarginStatus struct {
	HasPosition           bool             `json:"has_position"`
	Symbol                string           `json:"symbol,omitempty"`
	Quantity              decimal.Decimal  `json:"quantity,omitempty"`
	AvgEntryPrice         decimal.Decimal  `json:"avg_entry_price,omitempty"`
	CurrentPrice          decimal.Decimal  `json:"current_price,omitempty"`
	CurrentValue          decimal.Decimal  `json:"current_value,omitempty"`
	UnrealizedPnL         decimal.Decimal  `json:"unrealized_pnl,omitempty"`
	UnrealizedPnLPct      decimal.Decimal  `json:"unrealized_pnl_percent,omitempty"`
	Leverage              int              `json:"leverage,omitempty"`
	LiquidationPrice      *decimal.Decimal `json:"liquidation_price,omitempty"`
	DistanceToLiquidation *decimal.Decimal `json:"distance_to_liquidation,omitempty"`
	MarginRatio           decimal.Decimal  `json:"margin_ratio"`
	TotalBorrowed         decimal.Decimal  `json:"total_borrowed"`
	TotalCollateral       decimal.Decimal  `json:"total_collateral"`
	AccountBalance        decimal.Decimal  `json:"account_balance"`
	RiskLevel             types.RiskLevel  `json:"risk_level"`
}

// GetMarginStatus reports the live risk picture of the margin account
// for one symbol: liquidation level, margin ratio and risk tier.
func (s *Service) GetMarginStatus(ctx context.Context, profileID, symbol string) (MarginStatus, error) {
	account, err := s.GetAccount(ctx, profileID, types.AccountTypeMargin)
	if err != nil {
		return MarginStatus{}, err
	}
	positions, err := s.store.ListOpenPositions(ctx, s.pool, account.ID)
	if err != nil {
		return MarginStatus{}, err
	}
	var position *model.Position
	for i := range positions {
		if positions[i].Symbol == symbol {
			position = &positions[i]
			break
		}
	}
	if position == nil {
		ratio := MarginRatio(account.BorrowedAmount, account.Balance)
		return MarginStatus{
			HasPosition:     false,
			MarginRatio:     ratio,
			TotalBorrowed:   account.BorrowedAmount,
			TotalCollateral: account.Balance,
			AccountBalance:  account.Balance,
			RiskLevel:       RiskLevelForRatio(ratio),
		}, nil
	}

	price, err := s.markPrice(ctx, symbol)
	if err != nil {
		return MarginStatus{}, err
	}

	// Collateral counts every open position at its mark, not just the
	// requested symbol.
	openValue := position.Quantity.Mul(price)
	for _, p := range positions {
		if p.Symbol == symbol {
			continue
		}
		other, err := s.market.TickerPrice(ctx, p.Symbol)
		if err != nil {
			continue
		}
		openValue = openValue.Add(p.Quantity.Mul(other))
	}

	status := MarginStatus{
		HasPosition:     true,
		Symbol:          symbol,
		Quantity:        position.Quantity,
		AvgEntryPrice:   position.AvgEntryPrice,
		CurrentPrice:    price,
		CurrentValue:    position.Quantity.Mul(price),
		AccountBalance:  account.Balance,
		TotalBorrowed:   account.BorrowedAmount,
		TotalCollateral: account.Balance.Add(openValue),
	}
	status.UnrealizedPnL = price.Sub(position.AvgEntryPrice).Mul(position.Quantity)
	if position.AvgEntryPrice.IsPositive() {
		status.UnrealizedPnLPct = price.Sub(position.AvgEntryPrice).Div(position.AvgEntryPrice).Mul(oneHundred)
	}
	status.MarginRatio = MarginRatio(status.TotalBorrowed, status.TotalCollateral)
	status.RiskLevel = RiskLevelForRatio(status.MarginRatio)

	status.Leverage = 1
	if openBuy, err := s.store.OldestOpenBuy(ctx, s.pool, account.ID, symbol); err == nil && openBuy != nil {
		status.Leverage = leverageFromNotes(openBuy.Notes)
	}
	if status.Leverage > 1 {
		liq := LiquidationPrice(position.AvgEntryPrice, status.Leverage)
		status.LiquidationPrice = &liq
		dist := DistanceToLiquidation(price, liq)
		status.DistanceToLiquidation = &dist
	}
	return status, nil
}

type PositionView struct {
	model.Position
	CurrentPrice     *decimal.Decimal `json:"current_price,omitempty"`
	CurrentValue     *decimal.Decimal `json:"current_value,omitempty"`
	UnrealizedPnL    *decimal.Decimal `json:"unrealized_pnl,omitempty"`
	UnrealizedPnLPct *decimal.Decimal `json:"unrealized_pnl_percent,omitempty"`
}

type AccountSummary struct {
	Account           model.Account   `json:"account"`
	Positions         []PositionView  `json:"positions"`
	TotalValue        decimal.Decimal `json:"total_value"`
	UnrealizedPnL     decimal.Decimal `json:"unrealized_pnl"`
	AccountPnL        decimal.Decimal `json:"account_pnl"`
	AccountPnLPercent decimal.Decimal `json:"account_pnl_percent"`
	RecentTrades      []model.Trade   `json:"recent_trades"`
}

// GetAccountSummary values the account at current prices: balance plus
// marked open positions, and P&L against the initial balance. A symbol
// the gateway cannot price keeps its position listed without the mark
// fields, so a flaky gateway degrades the view instead of breaking it.
func (s *Service) GetAccountSummary(ctx context.Context, profileID string, accountType types.AccountType) (AccountSummary, error) {
	account, err := s.GetAccount(ctx, profileID, accountType)
	if err != nil {
		return AccountSummary{}, err
	}
	positions, err := s.store.ListOpenPositions(ctx, s.pool, account.ID)
	if err != nil {
		return AccountSummary{}, err
	}

	summary := AccountSummary{Account: account, Positions: make([]PositionView, 0, len(positions))}
	totalValue := account.Balance
	for _, p := range positions {
		view := PositionView{Position: p}
		if price, err := s.market.TickerPrice(ctx, p.Symbol); err == nil {
			value := p.Quantity.Mul(price)
			pnl := price.Sub(p.AvgEntryPrice).Mul(p.Quantity)
			view.CurrentPrice = &price
			view.CurrentValue = &value
			view.UnrealizedPnL = &pnl
			if p.AvgEntryPrice.IsPositive() {
				pct := price.Sub(p.AvgEntryPrice).Div(p.AvgEntryPrice).Mul(oneHundred)
				view.UnrealizedPnLPct = &pct
			}
			totalValue = totalValue.Add(value)
			summary.UnrealizedPnL = summary.UnrealizedPnL.Add(pnl)
		}
		summary.Positions = append(summary.Positions, view)
	}
	summary.TotalValue = totalValue
	summary.AccountPnL = totalValue.Sub(account.InitialBalance)
	if account.InitialBalance.IsPositive() {
		summary.AccountPnLPercent = summary.AccountPnL.Div(account.InitialBalance).Mul(oneHundred)
	}

	trades, err := s.store.ListTrades(ctx, s.pool, account.ID, 50)
	if err != nil {
		return AccountSummary{}, err
	}
	summary.RecentTrades = trades
	return summary, nil
}

type Overview struct {
	Accounts        []model.Account          `json:"accounts"`
	TotalBalance    decimal.Decimal          `json:"total_balance"`
	TotalInitial    decimal.Decimal          `json:"total_initial"`
	TotalPnL        decimal.Decimal          `json:"total_pnl"`
	TotalPnLPercent decimal.Decimal          `json:"total_pnl_percent"`
	RecentTrades    []model.Trade            `json:"recent_trades"`
	EquityCurves    map[string][]EquityPoint `json:"equity_curves"`
}

// GetOverview is the portfolio page: all three account types (created
// on first sight), combined totals and a 30-day equity curve each.
func (s *Service) GetOverview(ctx context.Context, profileID string) (Overview, error) {
	var overview Overview
	since := time.Now().UTC().AddDate(0, 0, -30)
	overview.EquityCurves = make(map[string][]EquityPoint, 3)

	for _, accountType := range []types.AccountType{types.AccountTypeFinance, types.AccountTypeTrading, types.AccountTypeMargin} {
		account, err := s.GetAccount(ctx, profileID, accountType)
		if err != nil {
			return overview, err
		}
		overview.Accounts = append(overview.Accounts, account)
		overview.TotalBalance = overview.TotalBalance.Add(account.Balance)
		overview.TotalInitial = overview.TotalInitial.Add(account.InitialBalance)

		curve, err := s.EquityCurve(ctx, account.ID, since)
		if err != nil {
			return overview, err
		}
		overview.EquityCurves[string(accountType)] = curve

		trades, err := s.store.ListTrades(ctx, s.pool, account.ID, 10)
		if err != nil {
			return overview, err
		}
		overview.RecentTrades = append(overview.RecentTrades, trades...)
	}
	overview.TotalPnL = overview.TotalBalance.Sub(overview.TotalInitial)
	if overview.TotalInitial.IsPositive() {
		overview.TotalPnLPercent = overview.TotalPnL.Div(overview.TotalInitial).Mul(oneHundred)
	}
	sort.Slice(overview.RecentTrades, func(i, j int) bool {
		return overview.RecentTrades[i].ExecutedAt.After(overview.RecentTrades[j].ExecutedAt)
	})
	if len(overview.RecentTrades) > 10 {
		overview.RecentTrades = overview.RecentTrades[:10]
	}
	return overview, nil
}
