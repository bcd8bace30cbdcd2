package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/trogers1052/oms-service/internal/access"
	"github.com/trogers1052/oms-service/internal/database"
	"github.com/trogers1052/oms-service/internal/models"
)

// Header names set by the upstream gateway or echoed back to the caller
const (
	HeaderUserID    = "X-User-ID"
	HeaderRequestID = "X-Request-ID"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	userKey
)

// RequestIDFromContext returns the request id, or "" outside a request
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// UserFromContext returns the caller, or nil when the request carried no identity
func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// requestID propagates X-Request-ID or assigns a new one
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// logRequests writes one log line per request
func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		h.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.status).
			Int("bytes", ww.bytes).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", RequestIDFromContext(r.Context())).
			Msg("HTTP request")
	})
}

// recoverer turns a handler panic into a 500
func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", RequestIDFromContext(r.Context())).
					Msg("Handler panicked")
				h.respondStatus(w, r, http.StatusInternalServerError, fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// identify loads the caller named by X-User-ID. Requests without the header
// proceed anonymously and are rejected by the permission checks.
func (h *Handler) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(HeaderUserID)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			h.respondError(w, r, fmt.Errorf("%w: invalid %s", access.ErrUnauthenticated, HeaderUserID))
			return
		}

		user, err := h.store.GetUser(r.Context(), id)
		if errors.Is(err, database.ErrNotFound) {
			h.respondError(w, r, fmt.Errorf("%w: unknown user %d", access.ErrUnauthenticated, id))
			return
		}
		if err != nil {
			h.respondError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// responseRecorder captures the status code and body size
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *responseRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
