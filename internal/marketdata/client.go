package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoData is returned when the exchange answered but had nothing
// usable for the requested symbol. Callers distinguish it from
// transport failures; both mean "no price" to the ledger.
var ErrNoData = errors.New("marketdata: no data")

const (
	ticker24hEndpoint    = "/api/v3/ticker/24hr"
	tickerPriceEndpoint  = "/api/v3/ticker/price"
	klinesEndpoint       = "/api/v3/klines"
	depthEndpoint        = "/api/v3/depth"
	recentTradesEndpoint = "/api/v3/trades"
)

// Client is a read-only Binance Spot REST client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type Ticker24h struct {
	Symbol             string          `json:"symbol"`
	LastPrice          decimal.Decimal `json:"lastPrice"`
	PriceChangePercent decimal.Decimal `json:"priceChangePercent"`
	HighPrice          decimal.Decimal `json:"highPrice"`
	LowPrice           decimal.Decimal `json:"lowPrice"`
	Volume             decimal.Decimal `json:"volume"`
	QuoteVolume        decimal.Decimal `json:"quoteVolume"`
}

// Kline is one candle as Binance reports it: open time in epoch
// milliseconds, prices as decimal strings.
type Kline struct {
	OpenTime  int64
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	CloseTime int64
}

type OrderBook struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

type RecentTrade struct {
	ID           int64           `json:"id"`
	Price        decimal.Decimal `json:"price"`
	Qty          decimal.Decimal `json:"qty"`
	Time         int64           `json:"time"`
	IsBuyerMaker bool            `json:"isBuyerMaker"`
}

// Ticker24h returns the 24h rolling statistics for one symbol.
func (c *Client) Ticker24h(ctx context.Context, symbol string) (Ticker24h, error) {
	var t Ticker24h
	if symbol == "" {
		return t, ErrNoData
	}
	params := url.Values{"symbol": {symbol}}
	if err := c.getJSON(ctx, ticker24hEndpoint, params, &t); err != nil {
		return t, err
	}
	if t.LastPrice.IsZero() {
		return t, ErrNoData
	}
	return t, nil
}

// TickerPrice returns the current price for one symbol.
func (c *Client) TickerPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if symbol == "" {
		return decimal.Zero, ErrNoData
	}
	var out struct {
		Symbol string          `json:"symbol"`
		Price  decimal.Decimal `json:"price"`
	}
	params := url.Values{"symbol": {symbol}}
	if err := c.getJSON(ctx, tickerPriceEndpoint, params, &out); err != nil {
		return decimal.Zero, err
	}
	if out.Price.IsZero() {
		return decimal.Zero, ErrNoData
	}
	return out.Price, nil
}

// Klines returns up to limit candles for symbol at the given interval
// (1m, 15m, 1h, 1d, ...), oldest first. An empty result is ErrNoData.
func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error) {
	if symbol == "" {
		return nil, ErrNoData
	}
	if interval == "" {
		interval = "1d"
	}
	if limit <= 0 {
		limit = 30
	}
	if limit > 1000 {
		limit = 1000
	}
	params := url.Values{
		"symbol":   {symbol},
		"interval": {interval},
		"limit":    {strconv.Itoa(limit)},
	}
	var raw [][]json.RawMessage
	if err := c.getJSON(ctx, klinesEndpoint, params, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNoData
	}
	klines := make([]Kline, 0, len(raw))
	for _, row := range raw {
		k, err := parseKline(row)
		if err != nil {
			return nil, err
		}
		klines = append(klines, k)
	}
	return klines, nil
}

func (c *Client) OrderBook(ctx context.Context, symbol string, limit int) (OrderBook, error) {
	var book OrderBook
	if symbol == "" {
		return book, ErrNoData
	}
	if limit <= 0 {
		limit = 20
	}
	params := url.Values{"symbol": {symbol}, "limit": {strconv.Itoa(limit)}}
	if err := c.getJSON(ctx, depthEndpoint, params, &book); err != nil {
		return book, err
	}
	return book, nil
}

func (c *Client) RecentTrades(ctx context.Context, symbol string, limit int) ([]RecentTrade, error) {
	if symbol == "" {
		return nil, ErrNoData
	}
	if limit <= 0 {
		limit = 20
	}
	params := url.Values{"symbol": {symbol}, "limit": {strconv.Itoa(limit)}}
	var trades []RecentTrade
	if err := c.getJSON(ctx, recentTradesEndpoint, params, &trades); err != nil {
		return nil, err
	}
	return trades, nil
}

// PopularPairs is the static list shown before a user has a watchlist.
func PopularPairs() []string {
	return []string{
		"BTCUSDT", "ETHUSDT", "BNBUSDT", "XRPUSDT", "ADAUSDT",
		"DOGEUSDT", "SOLUSDT", "MATICUSDT", "DOTUSDT", "LTCUSDT",
		"AVAXUSDT", "LINKUSDT", "UNIUSDT", "ATOMUSDT", "ETCUSDT",
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, v any) error {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("marketdata: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest {
		// Binance answers 400 for unknown symbols.
		io.Copy(io.Discard, resp.Body)
		return ErrNoData
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("marketdata: %s: unexpected status %d", endpoint, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func parseKline(row []json.RawMessage) (Kline, error) {
	var k Kline
	if len(row) < 7 {
		return k, fmt.Errorf("marketdata: malformed kline with %d fields", len(row))
	}
	if err := json.Unmarshal(row[0], &k.OpenTime); err != nil {
		return k, err
	}
	fields := []*decimal.Decimal{&k.Open, &k.High, &k.Low, &k.Close, &k.Volume}
	for i, dst := range fields {
		var s string
		if err := json.Unmarshal(row[i+1], &s); err != nil {
			return k, err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return k, err
		}
		*dst = d
	}
	if err := json.Unmarshal(row[6], &k.CloseTime); err != nil {
		return k, err
	}
	return k, nil
}
