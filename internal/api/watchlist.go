package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/trogers1052/oms-service/internal/database"
	"github.com/trogers1052/oms-service/internal/models"
	"github.com/trogers1052/oms-service/internal/refdata"
	"golang.org/x/sync/errgroup"
)

// ListWatchlist handles GET /api/watchlist. Each item is merged with live
// reference data; a failed lookup marks that item instead of failing the list.
func (h *Handler) ListWatchlist(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if err := h.policy.Require(user, models.ActionViewWatchlist); err != nil {
		h.respondError(w, r, err)
		return
	}

	offset, limit, err := parsePage(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	items, err := h.store.ListWatchItems(r.Context(), user.ID, offset, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, h.enrich(r.Context(), items))
}

func (h *Handler) enrich(ctx context.Context, items []*models.WatchItem) []*models.WatchItemWithData {
	out := make([]*models.WatchItemWithData, len(items))

	var g errgroup.Group
	g.SetLimit(h.opts.WatchlistConcurrency)
	for i, item := range items {
		g.Go(func() error {
			data, err := h.refdata.WatchData(ctx, item.CUSIP, item.AssetType)
			if err != nil {
				h.log.Warn().Err(err).
					Int("id", item.ID).
					Str("cusip", item.CUSIP).
					Msg("Watch list reference data lookup failed")
				msg := fmt.Sprintf("%d reference data not found", item.ID)
				data = &models.WatchItemWithData{Error: &msg}
			}
			data.ID = item.ID
			data.CUSIP = item.CUSIP
			data.AssetType = item.AssetType
			out[i] = data
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// AddWatchItem handles POST /api/watchlist
func (h *Handler) AddWatchItem(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if err := h.policy.Require(user, models.ActionEditWatchlist); err != nil {
		h.respondError(w, r, err)
		return
	}

	var item models.WatchItem
	if err := decodeJSON(r, &item); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := item.Validate(); err != nil {
		h.respondError(w, r, err)
		return
	}

	exists, err := h.store.WatchItemExists(r.Context(), item.CUSIP, user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if exists {
		h.respondError(w, r, fmt.Errorf("%s is already on your watch list: %w", item.CUSIP, database.ErrConflict))
		return
	}

	if _, err := h.refdata.WatchData(r.Context(), item.CUSIP, item.AssetType); err != nil {
		if errors.Is(err, refdata.ErrNotFound) {
			err = fmt.Errorf("no reference data found for %s (%s): %w", item.CUSIP, item.AssetType, refdata.ErrNotFound)
		}
		h.respondError(w, r, err)
		return
	}

	item.ID = 0
	item.CreatedBy = user.ID
	if err := h.store.CreateWatchItem(r.Context(), &item); err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

// DeleteWatchItem handles DELETE /api/watchlist/{id}. Only the owner can
// remove an item; anyone else gets 404.
func (h *Handler) DeleteWatchItem(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if err := h.policy.Require(user, models.ActionEditWatchlist); err != nil {
		h.respondError(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.store.DeleteWatchItem(r.Context(), id, user.ID); err != nil {
		h.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
