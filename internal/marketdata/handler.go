package marketdata

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"crypto-monitor/internal/httputil"

	"github.com/shopspring/decimal"
)

type Handler struct {
	client *Client
	WS     *MarketWS
}

func NewHandler(client *Client, ws *MarketWS) *Handler {
	return &Handler{client: client, WS: ws}
}

func symbolParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
}

func limitParam(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func writeMarketError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNoData) {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "no market data for symbol"})
		return
	}
	httputil.WriteJSON(w, http.StatusBadGateway, httputil.ErrorResponse{Error: "market data unavailable"})
}

func (h *Handler) Ticker(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	if symbol == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "symbol is required"})
		return
	}
	t, err := h.client.Ticker24h(r.Context(), symbol)
	if err != nil {
		writeMarketError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"symbol":           t.Symbol,
		"price":            t.LastPrice,
		"change":           t.PriceChangePercent,
		"change_formatted": FormatPriceChange(t.PriceChangePercent.String()),
		"high":             t.HighPrice,
		"low":              t.LowPrice,
		"volume":           t.Volume,
		"volume_formatted": FormatVolume(t.Volume.String()),
		"quote_volume":     t.QuoteVolume,
	})
}

func (h *Handler) Klines(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	if symbol == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "symbol is required"})
		return
	}
	interval := r.URL.Query().Get("interval")
	klines, err := h.client.Klines(r.Context(), symbol, interval, limitParam(r, 30))
	if err != nil {
		writeMarketError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(klines))
	for _, k := range klines {
		out = append(out, map[string]any{
			"time":  k.OpenTime,
			"open":  k.Open,
			"high":  k.High,
			"low":   k.Low,
			"close": k.Close,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) Depth(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	if symbol == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "symbol is required"})
		return
	}
	book, err := h.client.OrderBook(r.Context(), symbol, limitParam(r, 20))
	if err != nil {
		writeMarketError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, book)
}

func (h *Handler) Trades(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	if symbol == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "symbol is required"})
		return
	}
	trades, err := h.client.RecentTrades(r.Context(), symbol, limitParam(r, 20))
	if err != nil {
		writeMarketError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, trades)
}

func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"symbols": PopularPairs()})
}

type pairStats struct {
	Symbol    string           `json:"symbol"`
	Price     decimal.Decimal  `json:"price"`
	Change24h decimal.Decimal  `json:"change_24h"`
	High24h   decimal.Decimal  `json:"high_24h"`
	Low24h    decimal.Decimal  `json:"low_24h"`
	ATH       *decimal.Decimal `json:"ath,omitempty"`
	ATL       *decimal.Decimal `json:"atl,omitempty"`
}

// Stats merges the 24h ticker with a 52-week high/low computed from
// weekly candles. Candle history is best-effort: without it the ATH/ATL
// fields are simply absent.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	symbol := symbolParam(r)
	if symbol == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "symbol is required"})
		return
	}
	t, err := h.client.Ticker24h(r.Context(), symbol)
	if err != nil {
		writeMarketError(w, err)
		return
	}
	stats := pairStats{
		Symbol:    t.Symbol,
		Price:     t.LastPrice,
		Change24h: t.PriceChangePercent,
		High24h:   t.HighPrice,
		Low24h:    t.LowPrice,
	}
	if ath, atl, ok := h.yearlyRange(r.Context(), symbol); ok {
		stats.ATH = &ath
		stats.ATL = &atl
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) yearlyRange(ctx context.Context, symbol string) (decimal.Decimal, decimal.Decimal, bool) {
	weekly, err := h.client.Klines(ctx, symbol, "1w", 52)
	if err != nil || len(weekly) == 0 {
		return decimal.Zero, decimal.Zero, false
	}
	high := weekly[0].High
	low := weekly[0].Low
	for _, k := range weekly[1:] {
		if k.High.GreaterThan(high) {
			high = k.High
		}
		if k.Low.LessThan(low) {
			low = k.Low
		}
	}
	return high, low, true
}
