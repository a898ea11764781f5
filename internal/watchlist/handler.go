package watchlist

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"crypto-monitor/internal/httputil"
	"crypto-monitor/internal/marketdata"
	"crypto-monitor/internal/profiles"
)

type Handler struct {
	store    *Store
	market   *marketdata.Client
	profiles *profiles.Service
}

func NewHandler(store *Store, market *marketdata.Client, profileSvc *profiles.Service) *Handler {
	return &Handler{store: store, market: market, profiles: profileSvc}
}

type itemView struct {
	Item
	Price           string `json:"price,omitempty"`
	Change          string `json:"change,omitempty"`
	High            string `json:"high,omitempty"`
	Low             string `json:"low,omitempty"`
	VolumeFormatted string `json:"volume_formatted,omitempty"`
}

// List returns the watchlist with live quotes attached. Symbols the
// gateway cannot quote right now are returned bare rather than dropped.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, userID string) {
	profile, err := h.profiles.Ensure(r.Context(), userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	items, err := h.store.List(r.Context(), profile.ID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	views := make([]itemView, 0, len(items))
	for _, it := range items {
		view := itemView{Item: it}
		if t, err := h.market.Ticker24h(r.Context(), it.Symbol); err == nil {
			view.Price = t.LastPrice.String()
			view.Change = t.PriceChangePercent.String()
			view.High = t.HighPrice.String()
			view.Low = t.LowPrice.String()
			view.VolumeFormatted = marketdata.FormatVolume(t.Volume.String())
		}
		views = append(views, view)
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}

type addRequest struct {
	Symbol string `json:"symbol"`
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request, userID string) {
	var req addRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "symbol is required"})
		return
	}
	// Unknown symbols never resolve to quotes, reject them up front.
	if _, err := h.market.Ticker24h(r.Context(), symbol); err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "unknown symbol"})
			return
		}
		httputil.WriteJSON(w, http.StatusBadGateway, httputil.ErrorResponse{Error: "market data unavailable"})
		return
	}
	profile, err := h.profiles.Ensure(r.Context(), userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	item, err := h.store.Add(r.Context(), profile.ID, symbol)
	if err != nil {
		if errors.Is(err, ErrAlreadyWatched) {
			httputil.WriteJSON(w, http.StatusConflict, httputil.ErrorResponse{Error: err.Error()})
			return
		}
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, item)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request, userID string) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if symbol == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "symbol is required"})
		return
	}
	profile, err := h.profiles.Ensure(r.Context(), userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	removed, err := h.store.Remove(r.Context(), profile.ID, symbol)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if !removed {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "symbol not in watchlist"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type reorderRequest struct {
	Symbols []string `json:"symbols"`
}

func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request, userID string) {
	var req reorderRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if len(req.Symbols) == 0 {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "symbols are required"})
		return
	}
	for i, s := range req.Symbols {
		req.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	profile, err := h.profiles.Ensure(r.Context(), userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.store.Reorder(r.Context(), profile.ID, req.Symbols); err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
