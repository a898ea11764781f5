package trading

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-monitor/internal/types"
)

func TestTradeRequestAcceptsNumericAndStringAmounts(t *testing.T) {
	t.Parallel()

	var numeric tradeRequest
	require.NoError(t, json.Unmarshal(
		[]byte(`{"symbol":"btcusdt","quantity":0.1,"price":20000,"account_type":" margin ","leverage":5}`),
		&numeric))
	assert.True(t, numeric.Quantity.Equal(dec("0.1")), "quantity %s", numeric.Quantity)
	assert.True(t, numeric.Price.Equal(dec("20000")), "price %s", numeric.Price)
	assert.Equal(t, "BTCUSDT", numeric.symbol())
	assert.Equal(t, types.AccountTypeMargin, numeric.accountType())
	assert.Equal(t, 5, numeric.Leverage)

	var quoted tradeRequest
	require.NoError(t, json.Unmarshal(
		[]byte(`{"symbol":"ETHUSDT","quantity":"2.5","price":"3000.10"}`),
		&quoted))
	assert.True(t, quoted.Quantity.Equal(dec("2.5")), "quantity %s", quoted.Quantity)
	assert.True(t, quoted.Price.Equal(dec("3000.10")), "price %s", quoted.Price)
}

func TestTradeRequestRejectsGarbageAmounts(t *testing.T) {
	t.Parallel()

	var req tradeRequest
	err := json.Unmarshal([]byte(`{"symbol":"BTCUSDT","quantity":"lots","price":"1"}`), &req)
	assert.Error(t, err)
}
