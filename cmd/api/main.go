package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-monitor/internal/auth"
	"crypto-monitor/internal/config"
	"crypto-monitor/internal/db"
	"crypto-monitor/internal/health"
	"crypto-monitor/internal/httpserver"
	"crypto-monitor/internal/marketdata"
	"crypto-monitor/internal/profiles"
	"crypto-monitor/internal/trading"
	"crypto-monitor/internal/watchlist"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal(err)
	}

	market := marketdata.NewClient(cfg.BinanceBaseURL)
	marketWS := marketdata.NewMarketWS(market, cfg.WebSocketOrigin)
	marketHandler := marketdata.NewHandler(market, marketWS)

	profileSvc := profiles.NewService(pool)
	profileHandler := profiles.NewHandler(profileSvc)

	tradingStore := trading.NewStore()
	tradingSvc := trading.NewService(pool, tradingStore, market)
	tradingHandler := trading.NewHandler(tradingSvc, profileSvc)

	watchlistStore := watchlist.NewStore(pool)
	watchlistHandler := watchlist.NewHandler(watchlistStore, market, profileSvc)

	healthHandler := health.NewHandler(pool, time.Now())

	authSvc := auth.NewService(pool, cfg.JWTIssuer, []byte(cfg.JWTSecret), cfg.JWTTTL)
	authHandler := auth.NewHandler(authSvc)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandler:      authHandler,
		ProfileHandler:   profileHandler,
		TradingHandler:   tradingHandler,
		MarketHandler:    marketHandler,
		WatchlistHandler: watchlistHandler,
		HealthHandler:    healthHandler,
		AuthService:      authSvc,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	log.Printf("server listening on %s", cfg.HTTPAddr)
	log.Printf("health endpoint: http://localhost%s/health", cfg.HTTPAddr)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
