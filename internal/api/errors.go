package api

import (
	"errors"
	"net/http"

	"github.com/trogers1052/oms-service/internal/access"
	"github.com/trogers1052/oms-service/internal/database"
	"github.com/trogers1052/oms-service/internal/models"
	"github.com/trogers1052/oms-service/internal/refdata"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, access.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, access.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, database.ErrNotFound), errors.Is(err, refdata.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, database.ErrInvalidReference),
		errors.Is(err, database.ErrConstraint),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, refdata.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...}. Internal errors are logged and hidden.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	h.respondStatus(w, r, statusFor(err), err)
}

func (h *Handler) respondStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", RequestIDFromContext(r.Context())).
			Msg("Request failed")
		if status == http.StatusInternalServerError {
			msg = "internal server error"
		}
	}
	respondJSON(w, status, map[string]string{"error": msg})
}
