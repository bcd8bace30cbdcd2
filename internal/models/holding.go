package models

import (
	"github.com/shopspring/decimal"
)

// Holding is the computed position for one asset. It is derived from the
// asset and its trades on every request and never persisted.
type Holding struct {
	ID          int             `json:"id"`
	Fund        string          `json:"fund"`
	SubAlloc    string          `json:"sub_alloc"`
	DisplayName string          `json:"display_name"`
	Position    decimal.Decimal `json:"position"`
	Mark        decimal.Decimal `json:"mark"`
	MarketValue decimal.Decimal `json:"market_value"`
	CostBasis   decimal.Decimal `json:"cost_basis"`
	MtmPnl      decimal.Decimal `json:"mtm_pnl"`
	Type        AssetType       `json:"type"`
	Issuer      string          `json:"issuer"`
}
