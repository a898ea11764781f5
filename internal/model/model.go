package model

import (
	"time"

	"crypto-monitor/internal/types"

	"github.com/shopspring/decimal"
)

// Account is one simulated balance sheet per (profile, account type).
type Account struct {
	ID             string            `json:"id"`
	ProfileID      string            `json:"profile_id"`
	AccountType    types.AccountType `json:"account_type"`
	Balance        decimal.Decimal   `json:"balance"`
	InitialBalance decimal.Decimal   `json:"initial_balance"`
	BorrowedAmount decimal.Decimal   `json:"borrowed_amount"`
	MaxLeverage    int               `json:"max_leverage"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Position is the net open holding of one symbol within one account.
// Quantity is always positive; a position whose quantity reaches zero
// is deleted rather than kept at zero.
type Position struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"account_id"`
	Symbol        string          `json:"symbol"`
	Quantity      decimal.Decimal `json:"quantity"`
	AvgEntryPrice decimal.Decimal `json:"avg_entry_price"`
	OpenedAt      time.Time       `json:"opened_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Trade is an immutable execution record. Sells that close an earlier
// buy carry a back-reference to it plus the realized P&L; those three
// fields are backfilled right after insert and never touched again.
type Trade struct {
	ID             string           `json:"id"`
	AccountID      string           `json:"account_id"`
	Symbol         string           `json:"symbol"`
	Side           types.TradeSide  `json:"side"`
	OrderType      types.OrderType  `json:"order_type"`
	Quantity       decimal.Decimal  `json:"quantity"`
	Price          decimal.Decimal  `json:"price"`
	Total          decimal.Decimal  `json:"total"`
	FeeRate        decimal.Decimal  `json:"fee_rate"`
	RelatedTradeID *string          `json:"related_trade_id,omitempty"`
	ProfitLoss     *decimal.Decimal `json:"profit_loss,omitempty"`
	ProfitLossPct  *decimal.Decimal `json:"profit_loss_percent,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	Sequence       int64            `json:"sequence"`
	ExecutedAt     time.Time        `json:"executed_at"`
}

// FeeAmount is the absolute fee charged on this trade.
func (t Trade) FeeAmount() decimal.Decimal {
	return t.Total.Mul(t.FeeRate)
}

// WalletSnapshot is an append-only balance observation used to build
// the equity curve of an account.
type WalletSnapshot struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	Timestamp time.Time       `json:"timestamp"`
}
