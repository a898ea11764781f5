package trading

import "errors"

// Rejection reasons surfaced to the caller. Handlers match with
// errors.Is; wrapped messages carry the specific detail.
var (
	ErrValidation            = errors.New("invalid trade parameters")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientPosition  = errors.New("insufficient quantity")
	ErrMarginRisk            = errors.New("margin risk too high")
	ErrMarketDataUnavailable = errors.New("market data unavailable")
	ErrNotFound              = errors.New("not found")
)
