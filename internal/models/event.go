package models

import "time"

// Event types published after catalog and ledger writes
const (
	EventAssetCreated = "ASSET_CREATED"
	EventAssetUpdated = "ASSET_UPDATED"
	EventAssetDeleted = "ASSET_DELETED"
	EventTradeCreated = "TRADE_CREATED"
	EventTradeUpdated = "TRADE_UPDATED"
	EventTradeDeleted = "TRADE_DELETED"

	// EventTradeBooked is consumed, not published
	EventTradeBooked = "TRADE_BOOKED"
)

// EntityEvent represents a Kafka event for a catalog or ledger change
type EntityEvent struct {
	EventType string      `json:"event_type"`
	Entity    string      `json:"entity"`
	ID        int         `json:"id"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
