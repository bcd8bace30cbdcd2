package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/trogers1052/oms-service/internal/access"
	"github.com/trogers1052/oms-service/internal/models"
	"github.com/trogers1052/oms-service/internal/refdata"
)

// assetFetchRequest is the body of POST /api/assetdata/fetch
type assetFetchRequest struct {
	CUSIP     string           `json:"cusip"`
	AssetType models.AssetType `json:"asset_type"`
}

// FetchAssetData handles POST /api/assetdata/fetch, returning the reference
// fields used to prefill a new asset
func (h *Handler) FetchAssetData(w http.ResponseWriter, r *http.Request) {
	if err := h.policy.Require(UserFromContext(r.Context()), models.ActionCreateAsset); err != nil {
		h.respondError(w, r, err)
		return
	}

	var req assetFetchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	req.CUSIP = strings.TrimSpace(req.CUSIP)
	if req.CUSIP == "" {
		h.respondError(w, r, fmt.Errorf("%w: cusip is required", models.ErrValidation))
		return
	}

	data, err := h.refdata.AssetData(r.Context(), req.CUSIP, req.AssetType)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, data)
}

// GetMacro handles GET /api/macro. Any group failing is reported as 503.
func (h *Handler) GetMacro(w http.ResponseWriter, r *http.Request) {
	if UserFromContext(r.Context()) == nil {
		h.respondError(w, r, access.ErrUnauthenticated)
		return
	}

	rows, err := h.refdata.Macro(r.Context())
	if err != nil {
		h.respondStatus(w, r, http.StatusServiceUnavailable, err)
		return
	}
	if rows == nil {
		rows = []refdata.MacroRow{}
	}

	respondJSON(w, http.StatusOK, rows)
}
