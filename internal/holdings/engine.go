// Package holdings reconstructs current positions from the trade ledger.
//
// The engine is a pure function of an asset and its trades: it keeps no
// state between calls and never fails on well-formed input.
package holdings

import (
	"github.com/shopspring/decimal"
	"github.com/trogers1052/oms-service/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Effect describes how a trade direction moves a position
type Effect struct {
	// Sign is +1 when the trade increases the position, -1 otherwise.
	Sign int
	// Opening trades contribute to the cost basis.
	Opening bool
}

// Classify maps a direction code to its effect on the position.
// Unknown directions decrease the position and are excluded from cost basis.
func Classify(direction string) Effect {
	switch direction {
	case models.DirectionBuyLong:
		return Effect{Sign: 1, Opening: true}
	case models.DirectionCoverShort:
		return Effect{Sign: 1, Opening: false}
	case models.DirectionSellShort:
		return Effect{Sign: -1, Opening: true}
	default:
		return Effect{Sign: -1, Opening: false}
	}
}

// Input pairs an asset with its trades in ledger retrieval order
type Input struct {
	Asset  *models.Asset
	Trades []*models.Trade
}

// Compute builds the holding for one asset
func Compute(asset *models.Asset, trades []*models.Trade) models.Holding {
	position := decimal.Zero
	totalCost := decimal.Zero
	for _, t := range trades {
		effect := Classify(t.Direction)
		if effect.Sign > 0 {
			position = position.Add(t.Quantity)
		} else {
			position = position.Sub(t.Quantity)
		}
		if effect.Opening {
			totalCost = totalCost.Add(t.Quantity.Mul(t.Price))
		}
	}

	// A flat position has no average entry price.
	avgCost := decimal.Zero
	if !position.IsZero() {
		avgCost = totalCost.Div(position)
	}

	mark := decimal.Zero
	if asset.Mark.Valid {
		mark = asset.Mark.Decimal
	}

	var marketValue, pnl decimal.Decimal
	if asset.Type.IsBondLike() {
		marketValue = mark.Div(hundred).Mul(position)
		pnl = mark.Sub(avgCost).Div(hundred).Mul(position)
	} else {
		marketValue = mark.Mul(position)
		pnl = marketValue.Sub(avgCost.Mul(position))
	}

	h := models.Holding{
		ID:          asset.ID,
		DisplayName: asset.DisplayName,
		Position:    position,
		Mark:        mark,
		MarketValue: marketValue,
		CostBasis:   avgCost,
		MtmPnl:      pnl,
		Type:        asset.Type,
		Issuer:      asset.Issuer,
	}
	if len(trades) > 0 {
		h.Fund = trades[0].FundAlloc
		h.SubAlloc = trades[0].SubAlloc
	}
	return h
}

// ComputeAll builds one holding per input, in input order
func ComputeAll(inputs []Input) []models.Holding {
	out := make([]models.Holding, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, Compute(in.Asset, in.Trades))
	}
	return out
}
