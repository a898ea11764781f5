package health

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"crypto-monitor/internal/httputil"
)

// Handler serves liveness and readiness probes. Readiness pings the
// database, which is the only hard dependency; the market data gateway
// is degraded-but-up territory and is not checked here.
type Handler struct {
	pool      *pgxpool.Pool
	startedAt time.Time
}

func NewHandler(pool *pgxpool.Pool, startedAt time.Time) *Handler {
	start := startedAt.UTC()
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return &Handler{pool: pool, startedAt: start}
}

type liveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_sec"`
}

type readyResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	UptimeSec int64   `json:"uptime_sec"`
	Database  dbProbe `json:"database"`
}

type dbProbe struct {
	Reachable     bool   `json:"reachable"`
	PingMs        int64  `json:"ping_ms"`
	Error         string `json:"error,omitempty"`
	TotalConns    int32  `json:"total_conns"`
	IdleConns     int32  `json:"idle_conns"`
	AcquiredConns int32  `json:"acquired_conns"`
}

func (h *Handler) uptime(now time.Time) time.Duration {
	up := now.Sub(h.startedAt)
	if up < 0 {
		return 0
	}
	return up
}

// Live reports the process is running without touching dependencies.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	httputil.WriteJSON(w, http.StatusOK, liveResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(h.uptime(now).Seconds()),
	})
}

// Ready pings the database and answers 503 while it is unreachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	probe := h.probeDB(r.Context())

	status := "ok"
	code := http.StatusOK
	if !probe.Reachable {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, code, readyResponse{
		Status:    status,
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(h.uptime(now).Seconds()),
		Database:  probe,
	})
}

func (h *Handler) probeDB(ctx context.Context) dbProbe {
	var probe dbProbe
	if h.pool == nil {
		probe.Error = "pool is not configured"
		return probe
	}

	stat := h.pool.Stat()
	probe.TotalConns = stat.TotalConns()
	probe.IdleConns = stat.IdleConns()
	probe.AcquiredConns = stat.AcquiredConns()

	pingCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	start := time.Now()
	err := h.pool.Ping(pingCtx)
	probe.PingMs = time.Since(start).Milliseconds()
	if err != nil {
		probe.Error = err.Error()
		return probe
	}
	probe.Reachable = true
	return probe
}
