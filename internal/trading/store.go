package trading

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"crypto-monitor/internal/model"
	"crypto-monitor/internal/types"
)

type Store struct{}

func NewStore() *Store {
	return &Store{}
}

// GetAccountForUpdate locks the account row for the rest of the
// transaction. Every buy/sell runs through here, which serializes
// concurrent requests against the same account.
func (s *Store) GetAccountForUpdate(ctx context.Context, tx pgx.Tx, profileID string, accountType types.AccountType) (model.Account, error) {
	var a model.Account
	var at string
	err := tx.QueryRow(ctx, `
		select id, profile_id, account_type, balance, initial_balance, borrowed_amount, max_leverage, created_at, updated_at
		from trading_accounts
		where profile_id = $1 and account_type = $2
		for update
	`, profileID, string(accountType)).Scan(&a.ID, &a.ProfileID, &at, &a.Balance, &a.InitialBalance, &a.BorrowedAmount, &a.MaxLeverage, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return a, err
	}
	a.AccountType = types.AccountType(at)
	return a, nil
}

// EnsureAccount is the idempotent get-or-create factory: the insert
// races are resolved by the (profile_id, account_type) unique
// constraint, and the follow-up select sees whichever row won.
func (s *Store) EnsureAccount(ctx context.Context, tx pgx.Tx, profileID string, accountType types.AccountType, seed decimal.Decimal) (model.Account, bool, error) {
	var id string
	created := true
	err := tx.QueryRow(ctx, `
		insert into trading_accounts (profile_id, account_type, balance, initial_balance)
		values ($1, $2, $3, $3)
		on conflict (profile_id, account_type) do nothing
		returning id
	`, profileID, string(accountType), seed).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		created = false
	} else if err != nil {
		return model.Account{}, false, err
	}
	var a model.Account
	var at string
	err = tx.QueryRow(ctx, `
		select id, profile_id, account_type, balance, initial_balance, borrowed_amount, max_leverage, created_at, updated_at
		from trading_accounts
		where profile_id = $1 and account_type = $2
	`, profileID, string(accountType)).Scan(&a.ID, &a.ProfileID, &at, &a.Balance, &a.InitialBalance, &a.BorrowedAmount, &a.MaxLeverage, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return a, false, err
	}
	a.AccountType = types.AccountType(at)
	return a, created, nil
}

func (s *Store) UpdateAccountFunds(ctx context.Context, tx pgx.Tx, accountID string, balance, borrowed decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		update trading_accounts set balance = $2, borrowed_amount = $3, updated_at = now()
		where id = $1
	`, accountID, balance, borrowed)
	return err
}

func (s *Store) GetPositionForUpdate(ctx context.Context, tx pgx.Tx, accountID, symbol string) (*model.Position, error) {
	var p model.Position
	err := tx.QueryRow(ctx, `
		select id, account_id, symbol, quantity, avg_entry_price, opened_at, updated_at
		from positions
		where account_id = $1 and symbol = $2
		for update
	`, accountID, symbol).Scan(&p.ID, &p.AccountID, &p.Symbol, &p.Quantity, &p.AvgEntryPrice, &p.OpenedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpsertPosition(ctx context.Context, tx pgx.Tx, accountID, symbol string, quantity, avgEntry decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		insert into positions (account_id, symbol, quantity, avg_entry_price)
		values ($1, $2, $3, $4)
		on conflict (account_id, symbol)
		do update set quantity = excluded.quantity, avg_entry_price = excluded.avg_entry_price, updated_at = now()
	`, accountID, symbol, quantity, avgEntry)
	return err
}

func (s *Store) ReducePosition(ctx context.Context, tx pgx.Tx, positionID string, remaining decimal.Decimal) error {
	if !remaining.IsPositive() {
		_, err := tx.Exec(ctx, "delete from positions where id = $1", positionID)
		return err
	}
	_, err := tx.Exec(ctx, "update positions set quantity = $2, updated_at = now() where id = $1", positionID, remaining)
	return err
}

func (s *Store) ListOpenPositions(ctx context.Context, q querier, accountID string) ([]model.Position, error) {
	rows, err := q.Query(ctx, `
		select id, account_id, symbol, quantity, avg_entry_price, opened_at, updated_at
		from positions
		where account_id = $1
		order by symbol
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Position
	for rows.Next() {
		var p model.Position
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Symbol, &p.Quantity, &p.AvgEntryPrice, &p.OpenedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) InsertTrade(ctx context.Context, tx pgx.Tx, t model.Trade) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		insert into trades (account_id, symbol, side, order_type, quantity, price, total, fee_rate, related_trade_id, notes, executed_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		returning id
	`, t.AccountID, t.Symbol, string(t.Side), string(t.OrderType), t.Quantity, t.Price, t.Total, t.FeeRate, t.RelatedTradeID, t.Notes, time.Now().UTC()).Scan(&id)
	return id, err
}

// SetTradePnL backfills realized P&L on a closing sell immediately
// after insert; trades are otherwise never updated.
func (s *Store) SetTradePnL(ctx context.Context, tx pgx.Tx, tradeID string, pnl, pct decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		update trades set profit_loss = $2, profit_loss_percent = $3 where id = $1
	`, tradeID, pnl, pct)
	return err
}

// OldestOpenBuy returns the earliest buy on account+symbol that no sell
// has claimed yet (FIFO). Ties on executed_at fall to the lower
// sequence, i.e. insertion order.
func (s *Store) OldestOpenBuy(ctx context.Context, q querier, accountID, symbol string) (*model.Trade, error) {
	row := q.QueryRow(ctx, `
		select id, account_id, symbol, side, order_type, quantity, price, total, fee_rate, related_trade_id, profit_loss, profit_loss_percent, notes, sequence, executed_at
		from trades
		where account_id = $1 and symbol = $2 and side = 'buy'
		  and id not in (
			select related_trade_id from trades
			where related_trade_id is not null and side = 'sell'
		  )
		order by executed_at, sequence
		limit 1
	`, accountID, symbol)
	t, err := scanTrade(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListTrades(ctx context.Context, q querier, accountID string, limit int) ([]model.Trade, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := q.Query(ctx, `
		select id, account_id, symbol, side, order_type, quantity, price, total, fee_rate, related_trade_id, profit_loss, profit_loss_percent, notes, sequence, executed_at
		from trades
		where account_id = $1
		order by executed_at desc, sequence desc
		limit $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) AppendWalletSnapshot(ctx context.Context, tx pgx.Tx, accountID string, balance decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		insert into wallet_history (account_id, balance) values ($1, $2)
	`, accountID, balance)
	return err
}

func (s *Store) ListWalletHistory(ctx context.Context, q querier, accountID string, since time.Time, limit int) ([]model.WalletSnapshot, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	rows, err := q.Query(ctx, `
		select id, account_id, balance, recorded_at
		from wallet_history
		where account_id = $1 and recorded_at >= $2
		order by recorded_at
		limit $3
	`, accountID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.WalletSnapshot
	for rows.Next() {
		var h model.WalletSnapshot
		if err := rows.Scan(&h.ID, &h.AccountID, &h.Balance, &h.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// querier covers both *pgxpool.Pool and pgx.Tx for read paths.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (model.Trade, error) {
	var t model.Trade
	var side, orderType string
	err := row.Scan(&t.ID, &t.AccountID, &t.Symbol, &side, &orderType, &t.Quantity, &t.Price, &t.Total, &t.FeeRate,
		&t.RelatedTradeID, &t.ProfitLoss, &t.ProfitLossPct, &t.Notes, &t.Sequence, &t.ExecutedAt)
	if err != nil {
		return t, err
	}
	t.Side = types.TradeSide(side)
	t.OrderType = types.OrderType(orderType)
	return t, nil
}
