package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicker24h(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ticker24hEndpoint, r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"symbol": "BTCUSDT",
			"lastPrice": "65000.10",
			"priceChangePercent": "2.35",
			"highPrice": "66000.00",
			"lowPrice": "63000.00",
			"volume": "12345.6",
			"quoteVolume": "802465400.00"
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	tick, err := c.Ticker24h(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", tick.Symbol)
	assert.True(t, tick.LastPrice.Equal(decimal.RequireFromString("65000.10")))
	assert.True(t, tick.PriceChangePercent.Equal(decimal.RequireFromString("2.35")))
}

func TestTicker24hUnknownSymbol(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Binance answers 400 with an error payload for symbols it
		// does not list.
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Ticker24h(context.Background(), "NOPEUSDT")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestTicker24hZeroPrice(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"DEADUSDT","lastPrice":"0"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Ticker24h(context.Background(), "DEADUSDT")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestTickerPrice(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, tickerPriceEndpoint, r.URL.Path)
		w.Write([]byte(`{"symbol":"ETHUSDT","price":"3210.55"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	price, err := c.TickerPrice(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("3210.55")), "price %s", price)
}

func TestTickerPriceEmptySymbol(t *testing.T) {
	t.Parallel()

	c := NewClient("http://unused.invalid")
	_, err := c.TickerPrice(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestKlines(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, klinesEndpoint, r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		w.Write([]byte(`[
			[1718064000000,"65000.0","66000.0","64000.0","65500.0","1200.5",1718150399999,"0","0","0","0","0"],
			[1718150400000,"65500.0","67000.0","65000.0","66800.0","1400.2",1718236799999,"0","0","0","0","0"]
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	klines, err := c.Klines(context.Background(), "BTCUSDT", "1d", 2)
	require.NoError(t, err)
	require.Len(t, klines, 2)

	assert.Equal(t, int64(1718064000000), klines[0].OpenTime)
	assert.True(t, klines[0].Open.Equal(decimal.RequireFromString("65000.0")))
	assert.True(t, klines[0].High.Equal(decimal.RequireFromString("66000.0")))
	assert.True(t, klines[1].Close.Equal(decimal.RequireFromString("66800.0")))
	assert.Equal(t, int64(1718236799999), klines[1].CloseTime)
}

func TestKlinesEmpty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Klines(context.Background(), "BTCUSDT", "1d", 10)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestKlinesLimitClamped(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1000", r.URL.Query().Get("limit"))
		w.Write([]byte(`[[1718064000000,"1","1","1","1","1",1718150399999]]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Klines(context.Background(), "BTCUSDT", "1h", 5000)
	require.NoError(t, err)
}

func TestOrderBook(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, depthEndpoint, r.URL.Path)
		w.Write([]byte(`{"lastUpdateId":42,"bids":[["64999.0","0.5"]],"asks":[["65001.0","0.3"]]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	book, err := c.OrderBook(context.Background(), "BTCUSDT", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(42), book.LastUpdateID)
	require.Len(t, book.Bids, 1)
	assert.Equal(t, []string{"64999.0", "0.5"}, book.Bids[0])
}

func TestRecentTrades(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, recentTradesEndpoint, r.URL.Path)
		w.Write([]byte(`[{"id":7,"price":"65000.0","qty":"0.01","time":1718064000000,"isBuyerMaker":true}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	trades, err := c.RecentTrades(context.Background(), "BTCUSDT", 1)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(7), trades[0].ID)
	assert.True(t, trades[0].IsBuyerMaker)
}

func TestGetJSONServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Ticker24h(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoData)
}
