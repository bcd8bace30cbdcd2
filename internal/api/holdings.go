package api

import (
	"net/http"

	"github.com/trogers1052/oms-service/internal/models"
)

// holdingView is the display form of a holding
type holdingView struct {
	ID          int              `json:"id"`
	Fund        string           `json:"fund"`
	SubAlloc    string           `json:"sub_alloc"`
	DisplayName string           `json:"display_name"`
	Position    float64          `json:"position"`
	Mark        float64          `json:"mark"`
	MarketValue float64          `json:"market_value"`
	CostBasis   float64          `json:"cost_basis"`
	MtmPnl      float64          `json:"mtm_pnl"`
	Type        models.AssetType `json:"type"`
	Issuer      string           `json:"issuer"`
}

func newHoldingView(h models.Holding) holdingView {
	return holdingView{
		ID:          h.ID,
		Fund:        h.Fund,
		SubAlloc:    h.SubAlloc,
		DisplayName: h.DisplayName,
		Position:    h.Position.InexactFloat64(),
		Mark:        h.Mark.InexactFloat64(),
		MarketValue: h.MarketValue.InexactFloat64(),
		CostBasis:   h.CostBasis.InexactFloat64(),
		MtmPnl:      h.MtmPnl.InexactFloat64(),
		Type:        h.Type,
		Issuer:      h.Issuer,
	}
}

// GetHoldings handles GET /api/holdings
func (h *Handler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	result, err := h.holdings.Holdings(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	views := make([]holdingView, 0, len(result))
	for _, hl := range result {
		views = append(views, newHoldingView(hl))
	}
	respondJSON(w, http.StatusOK, views)
}
