package api

import (
	"net/http"

	"github.com/trogers1052/oms-service/internal/metrics"
	"github.com/trogers1052/oms-service/internal/models"
)

// ListTrades handles GET /api/trades
func (h *Handler) ListTrades(w http.ResponseWriter, r *http.Request) {
	if err := h.policy.Require(UserFromContext(r.Context()), models.ActionViewTrade); err != nil {
		h.respondError(w, r, err)
		return
	}

	offset, limit, err := parsePage(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	trades, err := h.store.ListTrades(r.Context(), offset, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, trades)
}

// GetTrade handles GET /api/trades/{id}
func (h *Handler) GetTrade(w http.ResponseWriter, r *http.Request) {
	if err := h.policy.Require(UserFromContext(r.Context()), models.ActionViewTrade); err != nil {
		h.respondError(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	trade, err := h.store.GetTrade(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, trade)
}

// CreateTrade handles POST /api/trades. External ids are reserved for
// executions booked from Kafka.
func (h *Handler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if err := h.policy.Require(user, models.ActionCreateTrade); err != nil {
		h.respondError(w, r, err)
		return
	}

	var trade models.Trade
	if err := decodeJSON(r, &trade); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := trade.Validate(h.opts.StrictDirection); err != nil {
		h.respondError(w, r, err)
		return
	}
	trade.ID = 0
	trade.ExternalID = ""
	trade.CreatedBy = &user.ID

	if err := h.store.CreateTrade(r.Context(), &trade); err != nil {
		h.respondError(w, r, err)
		return
	}
	metrics.LedgerWritesTotal.WithLabelValues("create").Inc()

	h.publisher.PublishTrade(r.Context(), models.EventTradeCreated, &trade)
	respondJSON(w, http.StatusCreated, trade)
}

// UpdateTrade handles PUT /api/trades/{id}
func (h *Handler) UpdateTrade(w http.ResponseWriter, r *http.Request) {
	if err := h.policy.Require(UserFromContext(r.Context()), models.ActionUpdateTrade); err != nil {
		h.respondError(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var trade models.Trade
	if err := decodeJSON(r, &trade); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := trade.Validate(h.opts.StrictDirection); err != nil {
		h.respondError(w, r, err)
		return
	}
	trade.ID = id

	if err := h.store.UpdateTrade(r.Context(), &trade); err != nil {
		h.respondError(w, r, err)
		return
	}
	metrics.LedgerWritesTotal.WithLabelValues("update").Inc()

	h.publisher.PublishTrade(r.Context(), models.EventTradeUpdated, &trade)
	respondJSON(w, http.StatusOK, trade)
}

// DeleteTrade handles DELETE /api/trades/{id}
func (h *Handler) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	if err := h.policy.Require(UserFromContext(r.Context()), models.ActionDeleteTrade); err != nil {
		h.respondError(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.store.DeleteTrade(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	metrics.LedgerWritesTotal.WithLabelValues("delete").Inc()

	h.publisher.PublishTradeDeleted(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}
