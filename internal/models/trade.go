package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade direction codes
const (
	DirectionBuyLong    = "Buy Long"
	DirectionSellShort  = "Sell Short"
	DirectionCoverShort = "Cover Short"
	DirectionSellLong   = "Sell Long"
)

// Directions lists the known trade direction codes
var Directions = []string{
	DirectionBuyLong,
	DirectionSellShort,
	DirectionCoverShort,
	DirectionSellLong,
}

// KnownDirection reports whether d is one of the known direction codes
func KnownDirection(d string) bool {
	for _, known := range Directions {
		if d == known {
			return true
		}
	}
	return false
}

// Trade is an entry in the trade ledger. Quantity is always a positive
// magnitude; the sign comes from Direction.
type Trade struct {
	ID            int             `json:"id"`
	TradeDate     Date            `json:"trade_date"`
	SettleDate    Date            `json:"settle_date"`
	Direction     string          `json:"direction"`
	AssetType     AssetType       `json:"asset_type"`
	AssetID       int             `json:"asset_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Counterparty  string          `json:"counterparty,omitempty"`
	FundAlloc     string          `json:"fund_alloc,omitempty"`
	SubAlloc      string          `json:"sub_alloc,omitempty"`
	AgreementType string          `json:"agreement_type,omitempty"`
	DocType       string          `json:"doc_type,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	ExternalID    string          `json:"external_id,omitempty"`
	CreatedBy     *int            `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TradeEvent is a booked execution consumed from Kafka
type TradeEvent struct {
	EventType string         `json:"event_type"`
	Source    string         `json:"source"`
	Timestamp time.Time      `json:"timestamp"`
	Data      TradeEventData `json:"data"`
}

// TradeEventData carries the booked execution. Numbers arrive as strings.
type TradeEventData struct {
	ExternalID   string `json:"external_id"`
	AssetID      int    `json:"asset_id"`
	Direction    string `json:"direction"`
	Quantity     string `json:"quantity"`
	Price        string `json:"price"`
	TradeDate    string `json:"trade_date"`
	SettleDate   string `json:"settle_date,omitempty"`
	Counterparty string `json:"counterparty,omitempty"`
	FundAlloc    string `json:"fund_alloc,omitempty"`
	SubAlloc     string `json:"sub_alloc,omitempty"`
	Notes        string `json:"notes,omitempty"`
}
