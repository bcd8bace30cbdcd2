package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/trogers1052/oms-service/internal/access"
	"github.com/trogers1052/oms-service/internal/models"
	"github.com/trogers1052/oms-service/internal/refdata"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// errBadRequest marks malformed requests (bad JSON, bad path or query values)
var errBadRequest = errors.New("bad request")

// Store is the persistence the HTTP layer needs
type Store interface {
	Ping(ctx context.Context) error

	CreateAsset(ctx context.Context, a *models.Asset) error
	GetAsset(ctx context.Context, id int) (*models.Asset, error)
	ListAssetsForUser(ctx context.Context, user *models.User, offset, limit int) ([]*models.Asset, error)
	UpdateAsset(ctx context.Context, a *models.Asset) error
	DeleteAsset(ctx context.Context, id int) error

	CreateTrade(ctx context.Context, t *models.Trade) error
	GetTrade(ctx context.Context, id int) (*models.Trade, error)
	ListTrades(ctx context.Context, offset, limit int) ([]*models.Trade, error)
	UpdateTrade(ctx context.Context, t *models.Trade) error
	DeleteTrade(ctx context.Context, id int) error

	CreateWatchItem(ctx context.Context, w *models.WatchItem) error
	WatchItemExists(ctx context.Context, cusip string, ownerID int) (bool, error)
	ListWatchItems(ctx context.Context, ownerID, offset, limit int) ([]*models.WatchItem, error)
	DeleteWatchItem(ctx context.Context, id, ownerID int) error

	GetUser(ctx context.Context, id int) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	ListRoles(ctx context.Context) ([]*models.Role, error)
	ListActions(ctx context.Context) ([]*models.Action, error)
	SetRoleActions(ctx context.Context, roleID int, actionIDs []int) error
	SetUserRoles(ctx context.Context, userID int, roleIDs []int) error
	LoadRoleGrants(ctx context.Context) (map[int][]string, error)
}

// Publisher emits change events after successful writes
type Publisher interface {
	PublishAsset(ctx context.Context, eventType string, asset *models.Asset)
	PublishAssetDeleted(ctx context.Context, id int)
	PublishTrade(ctx context.Context, eventType string, trade *models.Trade)
	PublishTradeDeleted(ctx context.Context, id int)
}

// HoldingsProvider computes the holdings view for a caller
type HoldingsProvider interface {
	Holdings(ctx context.Context, user *models.User) ([]models.Holding, error)
}

// RefDataProvider serves reference and market data
type RefDataProvider interface {
	WatchData(ctx context.Context, cusip string, assetType models.AssetType) (*models.WatchItemWithData, error)
	AssetData(ctx context.Context, cusip string, assetType models.AssetType) (*refdata.AssetData, error)
	Macro(ctx context.Context) ([]refdata.MacroRow, error)
}

// Policy checks permissions and can be rebuilt after grant changes
type Policy interface {
	access.Checker
	Reload(ctx context.Context, loader access.GrantLoader) error
}

// Options holds request handling switches
type Options struct {
	StrictDirection bool
	// WatchlistConcurrency bounds parallel reference data lookups per request.
	WatchlistConcurrency int
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store     Store
	publisher Publisher
	holdings  HoldingsProvider
	refdata   RefDataProvider
	policy    Policy
	opts      Options
	log       zerolog.Logger
}

// NewHandler creates a new Handler. A nil publisher disables events.
func NewHandler(store Store, publisher Publisher, holdings HoldingsProvider, rd RefDataProvider, policy Policy, opts Options, log zerolog.Logger) *Handler {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if opts.WatchlistConcurrency <= 0 {
		opts.WatchlistConcurrency = 8
	}
	return &Handler{
		store:     store,
		publisher: publisher,
		holdings:  holdings,
		refdata:   rd,
		policy:    policy,
		opts:      opts,
		log:       log.With().Str("component", "api").Logger(),
	}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn().Err(err).Msg("Health check failed")
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

func pathID(r *http.Request) (int, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}

// parsePage reads offset and limit query parameters
func parsePage(r *http.Request) (offset, limit int, err error) {
	offset, limit = 0, defaultLimit
	q := r.URL.Query()

	if raw := q.Get("offset"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("%w: invalid offset %q", errBadRequest, raw)
		}
	}
	if raw := q.Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit <= 0 {
			return 0, 0, fmt.Errorf("%w: invalid limit %q", errBadRequest, raw)
		}
		if limit > maxLimit {
			limit = maxLimit
		}
	}
	return offset, limit, nil
}

type noopPublisher struct{}

func (noopPublisher) PublishAsset(context.Context, string, *models.Asset) {}
func (noopPublisher) PublishAssetDeleted(context.Context, int) {}
func (noopPublisher) PublishTrade(context.Context, string, *models.Trade) {}
func (noopPublisher) PublishTradeDeleted(context.Context, int) {}
