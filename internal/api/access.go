package api

import (
	"fmt"
	"net/http"

	"github.com/trogers1052/oms-service/internal/access"
	"github.com/trogers1052/oms-service/internal/models"
)

// requireAdmin gates the access administration endpoints
func requireAdmin(user *models.User) error {
	if user == nil {
		return access.ErrUnauthenticated
	}
	if !user.IsAdmin() {
		return fmt.Errorf("%w: admin role required", access.ErrForbidden)
	}
	return nil
}

// ListUsers handles GET /access/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(UserFromContext(r.Context())); err != nil {
		h.respondError(w, r, err)
		return
	}

	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// ListRoles handles GET /access/roles
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(UserFromContext(r.Context())); err != nil {
		h.respondError(w, r, err)
		return
	}

	roles, err := h.store.ListRoles(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, roles)
}

// ListActions handles GET /access/actions
func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(UserFromContext(r.Context())); err != nil {
		h.respondError(w, r, err)
		return
	}

	actions, err := h.store.ListActions(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, actions)
}

// SetRoleActions handles PUT /access/roles/{id}/actions and rebuilds the
// permission table
func (h *Handler) SetRoleActions(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(UserFromContext(r.Context())); err != nil {
		h.respondError(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req struct {
		ActionIDs []int `json:"action_ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.store.SetRoleActions(r.Context(), id, req.ActionIDs); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.policy.Reload(r.Context(), h.store); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.log.Info().Int("role_id", id).Ints("action_ids", req.ActionIDs).Msg("Role actions replaced")
	w.WriteHeader(http.StatusNoContent)
}

// SetUserRoles handles PUT /access/users/{id}/roles
func (h *Handler) SetUserRoles(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(UserFromContext(r.Context())); err != nil {
		h.respondError(w, r, err)
		return
	}

	id, err := pathID(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var req struct {
		RoleIDs []int `json:"role_ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.store.SetUserRoles(r.Context(), id, req.RoleIDs); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.log.Info().Int("user_id", id).Ints("role_ids", req.RoleIDs).Msg("User roles replaced")
	w.WriteHeader(http.StatusNoContent)
}
