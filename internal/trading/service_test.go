package trading

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"crypto-monitor/internal/types"
)

type staticMarket struct {
	price decimal.Decimal
	err   error
}

func (m staticMarket) TickerPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return m.price, m.err
}

func TestBuyRejectedWhenGatewayHasNoPrice(t *testing.T) {
	t.Parallel()

	// No transaction is opened before the price check, so a nil pool
	// proves the rejection happens with nothing written.
	svc := NewService(nil, NewStore(), staticMarket{err: errors.New("exchange timeout")})

	_, err := svc.Buy(context.Background(), BuyRequest{
		ProfileID:   "profile-1",
		Symbol:      "BTCUSDT",
		Quantity:    dec("0.1"),
		Price:       dec("20000"),
		AccountType: types.AccountTypeTrading,
	})
	assert.ErrorIs(t, err, ErrMarketDataUnavailable)
	assert.Contains(t, err.Error(), "BTCUSDT")
}

func TestBuyValidatesBeforeGateway(t *testing.T) {
	t.Parallel()

	// Bad parameters never reach the gateway or the database.
	svc := NewService(nil, NewStore(), staticMarket{err: errors.New("unreachable")})

	_, err := svc.Buy(context.Background(), BuyRequest{
		ProfileID:   "profile-1",
		Symbol:      "BTCUSDT",
		Quantity:    dec("-1"),
		Price:       dec("20000"),
		AccountType: types.AccountTypeTrading,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBuyRejectsUnknownAccountType(t *testing.T) {
	t.Parallel()

	svc := NewService(nil, NewStore(), staticMarket{price: dec("20000")})

	_, err := svc.Buy(context.Background(), BuyRequest{
		ProfileID:   "profile-1",
		Symbol:      "BTCUSDT",
		Quantity:    dec("0.1"),
		Price:       dec("20000"),
		AccountType: types.AccountType("savings"),
	})
	assert.ErrorIs(t, err, ErrValidation)
}
