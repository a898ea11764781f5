package httpserver

import (
	"net/http"

	"crypto-monitor/internal/auth"
	"crypto-monitor/internal/health"
	"crypto-monitor/internal/httputil"
	"crypto-monitor/internal/marketdata"
	"crypto-monitor/internal/profiles"
	"crypto-monitor/internal/trading"
	"crypto-monitor/internal/watchlist"

	"github.com/go-chi/chi/v5"
)

type RouterDeps struct {
	AuthHandler      *auth.Handler
	ProfileHandler   *profiles.Handler
	TradingHandler   *trading.Handler
	MarketHandler    *marketdata.Handler
	WatchlistHandler *watchlist.Handler
	HealthHandler    *health.Handler
	AuthService      *auth.Service
}

// withUser adapts a (w, r, userID) handler to chi, rejecting requests
// that made it past WithAuth without a user in context.
func withUser(h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserID(r)
		if !ok {
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
			return
		}
		h(w, r, userID)
	}
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS middleware for development
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Use(SecurityHeaders)
	r.Use(RateLimitMiddleware)

	r.Get("/health", d.HealthHandler.Ready)
	r.Get("/health/live", d.HealthHandler.Live)
	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.AuthHandler.Register)
			r.Post("/login", d.AuthHandler.Login)
		})

		r.Route("/market", func(r chi.Router) {
			r.Get("/ticker", d.MarketHandler.Ticker)
			r.Get("/klines", d.MarketHandler.Klines)
			r.Get("/depth", d.MarketHandler.Depth)
			r.Get("/trades", d.MarketHandler.Trades)
			r.Get("/popular", d.MarketHandler.Popular)
			r.Get("/stats", d.MarketHandler.Stats)
			r.Get("/ws", d.MarketHandler.WS.ServeHTTP)
		})

		r.Group(func(r chi.Router) {
			r.Use(WithAuth(d.AuthService))
			r.Get("/me", withUser(d.AuthHandler.Me))

			r.Get("/profile", withUser(d.ProfileHandler.Get))
			r.Put("/profile", withUser(d.ProfileHandler.Update))

			r.Post("/trading/buy", withUser(d.TradingHandler.Buy))
			r.Post("/trading/sell", withUser(d.TradingHandler.Sell))
			r.Get("/portfolio", withUser(d.TradingHandler.Overview))
			r.Get("/accounts/{accountType}", withUser(d.TradingHandler.AccountSummary))
			r.Get("/accounts/{accountType}/balance", withUser(d.TradingHandler.AccountBalance))
			r.Get("/accounts/{accountType}/history", withUser(d.TradingHandler.AccountHistory))
			r.Get("/margin/position", withUser(d.TradingHandler.MarginPosition))

			r.Get("/watchlist", withUser(d.WatchlistHandler.List))
			r.Post("/watchlist", withUser(d.WatchlistHandler.Add))
			r.Delete("/watchlist/{symbol}", withUser(d.WatchlistHandler.Remove))
			r.Put("/watchlist/order", withUser(d.WatchlistHandler.Reorder))
		})
	})

	return r
}
