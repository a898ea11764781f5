package trading

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"crypto-monitor/internal/model"
	"crypto-monitor/internal/types"
)

// MarketSource is the read-only slice of the market data gateway the
// ledger consumes. The concrete implementation lives in marketdata.
type MarketSource interface {
	TickerPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

type Service struct {
	pool   *pgxpool.Pool
	store  *Store
	market MarketSource
}

func NewService(pool *pgxpool.Pool, store *Store, market MarketSource) *Service {
	return &Service{pool: pool, store: store, market: market}
}

type BuyRequest struct {
	ProfileID   string
	Symbol      string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	AccountType types.AccountType
	Leverage    int
}

type SellRequest struct {
	ProfileID   string
	Symbol      string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	AccountType types.AccountType
}

type TradeResult struct {
	TradeID          string           `json:"trade_id"`
	NewBalance       decimal.Decimal  `json:"new_balance"`
	Leverage         int              `json:"leverage,omitempty"`
	LiquidationPrice *decimal.Decimal `json:"liquidation_price,omitempty"`
	RealizedPnL      *decimal.Decimal `json:"realized_pnl,omitempty"`
	RealizedPnLPct   *decimal.Decimal `json:"realized_pnl_percent,omitempty"`
}

func validAccountType(v types.AccountType) (types.AccountType, error) {
	if v == "" {
		return types.AccountTypeTrading, nil
	}
	if !types.ValidAccountType(v) {
		return v, fmt.Errorf("%w: unknown account type %q", ErrValidation, v)
	}
	return v, nil
}

// markPrice asks the gateway for the current price and translates any
// failure into the ledger's own rejection reason. Nothing has been
// written at this point, so a gateway outage aborts cleanly.
func (s *Service) markPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	price, err := s.market.TickerPrice(ctx, symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrMarketDataUnavailable, symbol)
	}
	return price, nil
}

// Buy executes a simulated market buy. The whole mutation set — trade
// row, balance, borrowed amount, position, wallet snapshot — commits in
// one transaction or not at all.
func (s *Service) Buy(ctx context.Context, req BuyRequest) (TradeResult, error) {
	var res TradeResult
	accountType, err := validAccountType(req.AccountType)
	if err != nil {
		return res, err
	}
	if err := validateOrder(req.Symbol, req.Quantity, req.Price); err != nil {
		return res, err
	}
	if _, err := s.markPrice(ctx, req.Symbol); err != nil {
		return res, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return res, err
	}
	defer tx.Rollback(ctx)

	account, err := s.ensureAccountTx(ctx, tx, req.ProfileID, accountType)
	if err != nil {
		return res, err
	}
	account, err = s.store.GetAccountForUpdate(ctx, tx, req.ProfileID, accountType)
	if err != nil {
		return res, err
	}
	position, err := s.store.GetPositionForUpdate(ctx, tx, account.ID, req.Symbol)
	if err != nil {
		return res, err
	}

	leverage := clampLeverage(account.AccountType, req.Leverage, account.MaxLeverage)
	openValue := decimal.Zero
	if leverage > 1 {
		openValue, err = s.openPositionsValue(ctx, tx, account.ID)
		if err != nil {
			return res, err
		}
	}

	plan, err := planBuy(account, position, openValue, req.Symbol, req.Quantity, req.Price, req.Leverage)
	if err != nil {
		return res, err
	}

	tradeID, err := s.store.InsertTrade(ctx, tx, model.Trade{
		AccountID: account.ID,
		Symbol:    plan.Symbol,
		Side:      types.TradeSideBuy,
		OrderType: types.OrderTypeMarket,
		Quantity:  plan.Quantity,
		Price:     plan.Price,
		Total:     plan.Total,
		FeeRate:   plan.FeeRate,
		Notes:     plan.Notes,
	})
	if err != nil {
		return res, err
	}
	newBalance := account.Balance.Sub(plan.RequiredMargin)
	newBorrowed := account.BorrowedAmount.Add(plan.BorrowedDelta)
	if err := s.store.UpdateAccountFunds(ctx, tx, account.ID, newBalance, newBorrowed); err != nil {
		return res, err
	}
	if err := s.store.UpsertPosition(ctx, tx, account.ID, plan.Symbol, plan.NewPositionQty, plan.NewAvgEntry); err != nil {
		return res, err
	}
	if err := s.store.AppendWalletSnapshot(ctx, tx, account.ID, newBalance); err != nil {
		return res, err
	}
	if err := tx.Commit(ctx); err != nil {
		return res, err
	}

	res = TradeResult{TradeID: tradeID, NewBalance: newBalance}
	if plan.Leverage > 1 {
		res.Leverage = plan.Leverage
		res.LiquidationPrice = plan.LiquidationPrice
	}
	return res, nil
}

// Sell executes a simulated market sell against the held position,
// matching realized P&L to the oldest still-open buy (FIFO).
func (s *Service) Sell(ctx context.Context, req SellRequest) (TradeResult, error) {
	var res TradeResult
	accountType, err := validAccountType(req.AccountType)
	if err != nil {
		return res, err
	}
	if err := validateOrder(req.Symbol, req.Quantity, req.Price); err != nil {
		return res, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return res, err
	}
	defer tx.Rollback(ctx)

	if _, err := s.ensureAccountTx(ctx, tx, req.ProfileID, accountType); err != nil {
		return res, err
	}
	account, err := s.store.GetAccountForUpdate(ctx, tx, req.ProfileID, accountType)
	if err != nil {
		return res, err
	}
	position, err := s.store.GetPositionForUpdate(ctx, tx, account.ID, req.Symbol)
	if err != nil {
		return res, err
	}

	plan, err := planSell(position, req.Symbol, req.Quantity, req.Price)
	if err != nil {
		return res, err
	}

	openBuy, err := s.store.OldestOpenBuy(ctx, tx, account.ID, req.Symbol)
	if err != nil {
		return res, err
	}
	sellTrade := model.Trade{
		AccountID: account.ID,
		Symbol:    plan.Symbol,
		Side:      types.TradeSideSell,
		OrderType: types.OrderTypeMarket,
		Quantity:  plan.Quantity,
		Price:     plan.Price,
		Total:     plan.Total,
		FeeRate:   plan.FeeRate,
	}
	if openBuy != nil {
		sellTrade.RelatedTradeID = &openBuy.ID
	}
	tradeID, err := s.store.InsertTrade(ctx, tx, sellTrade)
	if err != nil {
		return res, err
	}
	if openBuy != nil {
		pnl, pct := realizedPnL(*openBuy, sellTrade)
		if err := s.store.SetTradePnL(ctx, tx, tradeID, pnl, pct); err != nil {
			return res, err
		}
		res.RealizedPnL = &pnl
		res.RealizedPnLPct = &pct
	}
	newBalance := account.Balance.Add(plan.NetRevenue)
	if err := s.store.UpdateAccountFunds(ctx, tx, account.ID, newBalance, account.BorrowedAmount); err != nil {
		return res, err
	}
	if err := s.store.ReducePosition(ctx, tx, position.ID, plan.RemainingQty); err != nil {
		return res, err
	}
	if err := s.store.AppendWalletSnapshot(ctx, tx, account.ID, newBalance); err != nil {
		return res, err
	}
	if err := tx.Commit(ctx); err != nil {
		return res, err
	}

	res.TradeID = tradeID
	res.NewBalance = newBalance
	return res, nil
}

// GetAccount returns the account of the given type, creating it with
// the seed balance (and its first wallet snapshot) on first access.
func (s *Service) GetAccount(ctx context.Context, profileID string, accountType types.AccountType) (model.Account, error) {
	accountType, err := validAccountType(accountType)
	if err != nil {
		return model.Account{}, err
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.Account{}, err
	}
	defer tx.Rollback(ctx)
	account, err := s.ensureAccountTx(ctx, tx, profileID, accountType)
	if err != nil {
		return model.Account{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Account{}, err
	}
	return account, nil
}

func (s *Service) ensureAccountTx(ctx context.Context, tx pgx.Tx, profileID string, accountType types.AccountType) (model.Account, error) {
	account, created, err := s.store.EnsureAccount(ctx, tx, profileID, accountType, seedBalance)
	if err != nil {
		return account, err
	}
	if created {
		if err := s.store.AppendWalletSnapshot(ctx, tx, account.ID, account.InitialBalance); err != nil {
			return account, err
		}
	}
	return account, nil
}

func (s *Service) OpenPositions(ctx context.Context, accountID string) ([]model.Position, error) {
	return s.store.ListOpenPositions(ctx, s.pool, accountID)
}

type EquityPoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Balance   decimal.Decimal `json:"balance"`
}

// EquityCurve returns the wallet snapshots of an account since the
// given instant, oldest first.
func (s *Service) EquityCurve(ctx context.Context, accountID string, since time.Time) ([]EquityPoint, error) {
	history, err := s.store.ListWalletHistory(ctx, s.pool, accountID, since, 0)
	if err != nil {
		return nil, err
	}
	points := make([]EquityPoint, 0, len(history))
	for _, h := range history {
		points = append(points, EquityPoint{Timestamp: h.Timestamp, Balance: h.Balance})
	}
	return points, nil
}

// openPositionsValue marks every open position on the account at the
// current price. Positions the gateway cannot price right now
// contribute nothing, mirroring how the rest of the ledger degrades
// when candles or tickers are missing.
func (s *Service) openPositionsValue(ctx context.Context, q querier, accountID string) (decimal.Decimal, error) {
	positions, err := s.store.ListOpenPositions(ctx, q, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range positions {
		price, err := s.market.TickerPrice(ctx, p.Symbol)
		if err != nil {
			continue
		}
		total = total.Add(p.Quantity.Mul(price))
	}
	return total, nil
}
