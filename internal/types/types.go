package types

type AccountType string

type TradeSide string

type OrderType string

type RiskLevel string

type ProfileType string

type MarketPreference string

const (
	AccountTypeFinance AccountType = "finance"
	AccountTypeTrading AccountType = "trading"
	AccountTypeMargin  AccountType = "margin"
)

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

const (
	OrderTypeMarket OrderType = "market"
)

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

const (
	ProfileTypeBeginner ProfileType = "beginner"
	ProfileTypeTrader   ProfileType = "trader"
	ProfileTypeAnalyst  ProfileType = "analyst"
)

const (
	MarketPreferenceCrypto      MarketPreference = "crypto"
	MarketPreferenceFiat        MarketPreference = "fiat"
	MarketPreferenceCommodities MarketPreference = "commodities"
)

func ValidAccountType(v AccountType) bool {
	switch v {
	case AccountTypeFinance, AccountTypeTrading, AccountTypeMargin:
		return true
	}
	return false
}

func ValidProfileType(v ProfileType) bool {
	switch v {
	case ProfileTypeBeginner, ProfileTypeTrader, ProfileTypeAnalyst:
		return true
	}
	return false
}

func ValidMarketPreference(v MarketPreference) bool {
	switch v {
	case MarketPreferenceCrypto, MarketPreferenceFiat, MarketPreferenceCommodities:
		return true
	}
	return false
}
