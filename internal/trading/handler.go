package trading

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"crypto-monitor/internal/httputil"
	"crypto-monitor/internal/profiles"
	"crypto-monitor/internal/types"
)

type Handler struct {
	svc      *Service
	profiles *profiles.Service
}

func NewHandler(svc *Service, profileSvc *profiles.Service) *Handler {
	return &Handler{svc: svc, profiles: profileSvc}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInsufficientPosition),
		errors.Is(err, ErrMarginRisk):
		return http.StatusBadRequest
	case errors.Is(err, ErrMarketDataUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeTradeError(w http.ResponseWriter, err error) {
	httputil.WriteJSON(w, statusForError(err), httputil.ErrorResponse{Error: err.Error()})
}

func (h *Handler) profileID(r *http.Request, userID string) (string, error) {
	profile, err := h.profiles.Ensure(r.Context(), userID)
	if err != nil {
		return "", err
	}
	return profile.ID, nil
}

// tradeRequest types quantity and price as decimals so clients may send
// either JSON numbers or decimal strings.
type tradeRequest struct {
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	AccountType string          `json:"account_type"`
	Leverage    int             `json:"leverage"`
}

func (req tradeRequest) symbol() string {
	return strings.ToUpper(strings.TrimSpace(req.Symbol))
}

func (req tradeRequest) accountType() types.AccountType {
	return types.AccountType(strings.TrimSpace(req.AccountType))
}

func (h *Handler) Buy(w http.ResponseWriter, r *http.Request, userID string) {
	var req tradeRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	profileID, err := h.profileID(r, userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	result, err := h.svc.Buy(r.Context(), BuyRequest{
		ProfileID:   profileID,
		Symbol:      req.symbol(),
		Quantity:    req.Quantity,
		Price:       req.Price,
		AccountType: req.accountType(),
		Leverage:    req.Leverage,
	})
	if err != nil {
		writeTradeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Sell(w http.ResponseWriter, r *http.Request, userID string) {
	var req tradeRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	profileID, err := h.profileID(r, userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	result, err := h.svc.Sell(r.Context(), SellRequest{
		ProfileID:   profileID,
		Symbol:      req.symbol(),
		Quantity:    req.Quantity,
		Price:       req.Price,
		AccountType: req.accountType(),
	})
	if err != nil {
		writeTradeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request, userID string) {
	profileID, err := h.profileID(r, userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	overview, err := h.svc.GetOverview(r.Context(), profileID)
	if err != nil {
		writeTradeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, overview)
}

func accountTypeParam(r *http.Request) (types.AccountType, error) {
	accountType := types.AccountType(chi.URLParam(r, "accountType"))
	if !types.ValidAccountType(accountType) {
		return "", errors.New("unknown account type")
	}
	return accountType, nil
}

func (h *Handler) AccountSummary(w http.ResponseWriter, r *http.Request, userID string) {
	accountType, err := accountTypeParam(r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	profileID, err := h.profileID(r, userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	summary, err := h.svc.GetAccountSummary(r.Context(), profileID, accountType)
	if err != nil {
		writeTradeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) AccountBalance(w http.ResponseWriter, r *http.Request, userID string) {
	accountType, err := accountTypeParam(r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	profileID, err := h.profileID(r, userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	account, err := h.svc.GetAccount(r.Context(), profileID, accountType)
	if err != nil {
		writeTradeError(w, err)
		return
	}
	positions, err := h.svc.OpenPositions(r.Context(), account.ID)
	if err != nil {
		writeTradeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"balance":      account.Balance,
		"account_type": account.AccountType,
		"positions":    positions,
	})
}

func (h *Handler) AccountHistory(w http.ResponseWriter, r *http.Request, userID string) {
	accountType, err := accountTypeParam(r)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 365 {
			days = n
		}
	}
	profileID, err := h.profileID(r, userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	account, err := h.svc.GetAccount(r.Context(), profileID, accountType)
	if err != nil {
		writeTradeError(w, err)
		return
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	curve, err := h.svc.EquityCurve(r.Context(), account.ID, since)
	if err != nil {
		writeTradeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"account_type": account.AccountType,
		"points":       curve,
	})
}

func (h *Handler) MarginPosition(w http.ResponseWriter, r *http.Request, userID string) {
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "symbol is required"})
		return
	}
	profileID, err := h.profileID(r, userID)
	if err != nil {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	status, err := h.svc.GetMarginStatus(r.Context(), profileID, symbol)
	if err != nil {
		writeTradeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}
