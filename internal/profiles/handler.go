package profiles

import (
	"net/http"

	"crypto-monitor/internal/httputil"
	"crypto-monitor/internal/types"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, userID string) {
	profile, err := h.svc.Ensure(r.Context(), userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

type updateRequest struct {
	ProfileType      string `json:"profile_type"`
	MarketPreference string `json:"market_preference"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request, userID string) {
	var req updateRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	profile, err := h.svc.Update(r.Context(), userID, types.ProfileType(req.ProfileType), types.MarketPreference(req.MarketPreference))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}
