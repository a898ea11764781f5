package marketdata

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type TickerMessage struct {
	Type      string `json:"type"`
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	Change    string `json:"change"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Volume    string `json:"volume"`
	Timestamp int64  `json:"ts"`
}

// MarketWS streams the 24h ticker for one symbol over a websocket,
// polling the exchange on a fixed interval.
type MarketWS struct {
	client   *Client
	origin   string
	interval time.Duration
	upgrader websocket.Upgrader
}

func NewMarketWS(client *Client, origin string) *MarketWS {
	return &MarketWS{
		client:   client,
		origin:   origin,
		interval: 3 * time.Second,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return allowOrigin(r, origin) }},
	}
}

func (h *MarketWS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		symbol = "BTCUSDT"
	}
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(r.Context(), h.interval)
			t, err := h.client.Ticker24h(ctx, symbol)
			cancel()
			if err != nil {
				// Keep the connection: the next poll may succeed.
				continue
			}
			msg := TickerMessage{
				Type:      "ticker",
				Symbol:    t.Symbol,
				Price:     t.LastPrice.String(),
				Change:    t.PriceChangePercent.String(),
				High:      t.HighPrice.String(),
				Low:       t.LowPrice.String(),
				Volume:    t.Volume.String(),
				Timestamp: time.Now().UTC().Unix(),
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func allowOrigin(r *http.Request, origin string) bool {
	if origin == "*" {
		return true
	}
	return strings.EqualFold(r.Header.Get("Origin"), origin)
}
