package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/trogers1052/oms-service/internal/database"
	"github.com/trogers1052/oms-service/internal/models"
)

// ListAssets handles GET /api/assets. Non-admins only see assets they created.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if err := h.policy.Require(user, models.ActionViewAsset); err != nil {
		h.respondError(w, r, err)
		return
	}

	offset, limit, err := parsePage(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	assets, err := h.store.ListAssetsForUser(r.Context(), user, offset, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, assets)
}

// GetAsset handles GET /api/assets/{id}
func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if err := h.policy.Require(user, models.ActionViewAsset); err != nil {
		h.respondError(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	asset, err := h.visibleAsset(r.Context(), user, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, asset)
}

// visibleAsset loads an asset the user may see. Assets created by someone
// else are reported as missing unless the user is an admin.
func (h *Handler) visibleAsset(ctx context.Context, user *models.User, id int) (*models.Asset, error) {
	asset, err := h.store.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && (asset.CreatedBy == nil || *asset.CreatedBy != user.ID) {
		return nil, fmt.Errorf("asset %d: %w", id, database.ErrNotFound)
	}
	return asset, nil
}

// CreateAsset handles POST /api/assets
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if err := h.policy.Require(user, models.ActionCreateAsset); err != nil {
		h.respondError(w, r, err)
		return
	}

	var asset models.Asset
	if err := decodeJSON(r, &asset); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := asset.Validate(); err != nil {
		h.respondError(w, r, err)
		return
	}
	asset.ID = 0
	asset.CreatedBy = &user.ID

	if err := h.store.CreateAsset(r.Context(), &asset); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.publisher.PublishAsset(r.Context(), models.EventAssetCreated, &asset)
	respondJSON(w, http.StatusCreated, asset)
}

// UpdateAsset handles PUT /api/assets/{id}
func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if err := h.policy.Require(user, models.ActionUpdateAsset); err != nil {
		h.respondError(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var asset models.Asset
	if err := decodeJSON(r, &asset); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := asset.Validate(); err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.visibleAsset(r.Context(), user, id); err != nil {
		h.respondError(w, r, err)
		return
	}
	asset.ID = id

	if err := h.store.UpdateAsset(r.Context(), &asset); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.publisher.PublishAsset(r.Context(), models.EventAssetUpdated, &asset)
	respondJSON(w, http.StatusOK, asset)
}

// DeleteAsset handles DELETE /api/assets/{id}. The asset's trades go with it.
// Non-admins may only delete assets they created.
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if err := h.policy.Require(user, models.ActionDeleteAsset); err != nil {
		h.respondError(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if _, err := h.visibleAsset(r.Context(), user, id); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.store.DeleteAsset(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.publisher.PublishAssetDeleted(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}
