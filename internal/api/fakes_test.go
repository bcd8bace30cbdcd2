package api

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/trogers1052/oms-service/internal/access"
	"github.com/trogers1052/oms-service/internal/database"
	"github.com/trogers1052/oms-service/internal/models"
	"github.com/trogers1052/oms-service/internal/refdata"
)

const (
	adminRoleID  = 1
	traderRoleID = 2
	viewerRoleID = 3

	adminID  = 1
	traderID = 2
	viewerID = 3
	otherID  = 4
)

// fakeStore is an in-memory Store
type fakeStore struct {
	mu      sync.Mutex
	pingErr error
	users   map[int]*models.User
	assets  map[int]*models.Asset
	trades  map[int]*models.Trade
	watch   map[int]*models.WatchItem
	grants  map[int][]string
	nextID  int

	lastPage    [2]int
	roleActions map[int][]int
}

func newFakeStore() *fakeStore {
	role := func(id int, name string) models.Role { return models.Role{ID: id, Name: name} }
	return &fakeStore{
		users: map[int]*models.User{
			adminID:  {ID: adminID, Username: "root", Roles: []models.Role{role(adminRoleID, "Admin")}},
			traderID: {ID: traderID, Username: "alice", Roles: []models.Role{role(traderRoleID, "trader")}},
			viewerID: {ID: viewerID, Username: "bob", Roles: []models.Role{role(viewerRoleID, "viewer")}},
			otherID:  {ID: otherID, Username: "carol", Roles: []models.Role{role(traderRoleID, "trader")}},
		},
		assets:      map[int]*models.Asset{},
		trades:      map[int]*models.Trade{},
		watch:       map[int]*models.WatchItem{},
		grants:      defaultGrants(),
		roleActions: map[int][]int{},
		nextID:      1,
	}
}

func defaultGrants() map[int][]string {
	return map[int][]string{
		adminRoleID: {
			models.ActionViewAsset, models.ActionCreateAsset, models.ActionUpdateAsset, models.ActionDeleteAsset,
			models.ActionViewTrade, models.ActionCreateTrade, models.ActionUpdateTrade, models.ActionDeleteTrade,
			models.ActionViewHoldings, models.ActionViewWatchlist, models.ActionEditWatchlist,
		},
		traderRoleID: {
			models.ActionViewAsset, models.ActionCreateAsset, models.ActionViewTrade, models.ActionCreateTrade,
			models.ActionViewHoldings, models.ActionViewWatchlist, models.ActionEditWatchlist,
		},
	}
}

func (s *fakeStore) id() int {
	id := s.nextID
	s.nextID++
	return id
}

func (s *fakeStore) Ping(ctx context.Context) error { return s.pingErr }

func (s *fakeStore) CreateAsset(ctx context.Context, a *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.assets {
		if existing.CUSIP == a.CUSIP && *existing.CreatedBy == *a.CreatedBy {
			return fmt.Errorf("%w: uq_user_asset_cusip", database.ErrConflict)
		}
	}
	a.ID = s.id()
	cp := *a
	s.assets[a.ID] = &cp
	return nil
}

func (s *fakeStore) GetAsset(ctx context.Context, id int) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %d: %w", id, database.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (s *fakeStore) ListAssetsForUser(ctx context.Context, user *models.User, offset, limit int) ([]*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPage = [2]int{offset, limit}
	out := []*models.Asset{}
	for _, id := range sortedKeys(s.assets) {
		a := s.assets[id]
		if user.IsAdmin() || (a.CreatedBy != nil && *a.CreatedBy == user.ID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateAsset(ctx context.Context, a *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.assets[a.ID]
	if !ok {
		return fmt.Errorf("asset %d: %w", a.ID, database.ErrNotFound)
	}
	a.CreatedBy = existing.CreatedBy
	cp := *a
	s.assets[a.ID] = &cp
	return nil
}

func (s *fakeStore) DeleteAsset(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[id]; !ok {
		return fmt.Errorf("asset %d: %w", id, database.ErrNotFound)
	}
	delete(s.assets, id)
	for tid, t := range s.trades {
		if t.AssetID == id {
			delete(s.trades, tid)
		}
	}
	return nil
}

func (s *fakeStore) CreateTrade(ctx context.Context, t *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[t.AssetID]
	if !ok {
		return fmt.Errorf("asset %d: %w", t.AssetID, database.ErrInvalidReference)
	}
	if t.AssetType == "" {
		t.AssetType = a.Type
	}
	t.ID = s.id()
	cp := *t
	s.trades[t.ID] = &cp
	return nil
}

func (s *fakeStore) GetTrade(ctx context.Context, id int) (*models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trades[id]
	if !ok {
		return nil, fmt.Errorf("trade %d: %w", id, database.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (s *fakeStore) ListTrades(ctx context.Context, offset, limit int) ([]*models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPage = [2]int{offset, limit}
	out := []*models.Trade{}
	for _, id := range sortedKeys(s.trades) {
		out = append(out, s.trades[id])
	}
	return out, nil
}

func (s *fakeStore) UpdateTrade(ctx context.Context, t *models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trades[t.ID]; !ok {
		return fmt.Errorf("trade %d: %w", t.ID, database.ErrNotFound)
	}
	cp := *t
	s.trades[t.ID] = &cp
	return nil
}

func (s *fakeStore) DeleteTrade(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trades[id]; !ok {
		return fmt.Errorf("trade %d: %w", id, database.ErrNotFound)
	}
	delete(s.trades, id)
	return nil
}

func (s *fakeStore) CreateWatchItem(ctx context.Context, w *models.WatchItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.ID = s.id()
	cp := *w
	s.watch[w.ID] = &cp
	return nil
}

func (s *fakeStore) WatchItemExists(ctx context.Context, cusip string, ownerID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.watch {
		if w.CUSIP == cusip && w.CreatedBy == ownerID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) ListWatchItems(ctx context.Context, ownerID, offset, limit int) ([]*models.WatchItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.WatchItem{}
	for _, id := range sortedKeys(s.watch) {
		if s.watch[id].CreatedBy == ownerID {
			out = append(out, s.watch[id])
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteWatchItem(ctx context.Context, id, ownerID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.watch[id]
	if !ok || w.CreatedBy != ownerID {
		return fmt.Errorf("watch item %d: %w", id, database.ErrNotFound)
	}
	delete(s.watch, id)
	return nil
}

func (s *fakeStore) GetUser(ctx context.Context, id int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, database.ErrNotFound)
	}
	return u, nil
}

func (s *fakeStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.User{}
	for _, id := range sortedKeys(s.users) {
		out = append(out, s.users[id])
	}
	return out, nil
}

func (s *fakeStore) ListRoles(ctx context.Context) ([]*models.Role, error) {
	return []*models.Role{{ID: adminRoleID, Name: "admin"}, {ID: traderRoleID, Name: "trader"}}, nil
}

func (s *fakeStore) ListActions(ctx context.Context) ([]*models.Action, error) {
	return []*models.Action{{ID: 1, Name: models.ActionViewAsset}}, nil
}

func (s *fakeStore) SetRoleActions(ctx context.Context, roleID int, actionIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if roleID != adminRoleID && roleID != traderRoleID && roleID != viewerRoleID {
		return fmt.Errorf("role %d: %w", roleID, database.ErrNotFound)
	}
	s.roleActions[roleID] = actionIDs
	return nil
}

func (s *fakeStore) SetUserRoles(ctx context.Context, userID int, roleIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %d: %w", userID, database.ErrNotFound)
	}
	u.Roles = nil
	for _, id := range roleIDs {
		u.Roles = append(u.Roles, models.Role{ID: id})
	}
	return nil
}

func (s *fakeStore) LoadRoleGrants(ctx context.Context) (map[int][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grants, nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// fakePublisher records published event types
type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *fakePublisher) record(eventType string, id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, fmt.Sprintf("%s:%d", eventType, id))
}

func (p *fakePublisher) PublishAsset(ctx context.Context, eventType string, a *models.Asset) {
	p.record(eventType, a.ID)
}

func (p *fakePublisher) PublishAssetDeleted(ctx context.Context, id int) {
	p.record(models.EventAssetDeleted, id)
}

func (p *fakePublisher) PublishTrade(ctx context.Context, eventType string, t *models.Trade) {
	p.record(eventType, t.ID)
}

func (p *fakePublisher) PublishTradeDeleted(ctx context.Context, id int) {
	p.record(models.EventTradeDeleted, id)
}

// fakeHoldings checks the permission and returns a fixed view
type fakeHoldings struct {
	checker access.Checker
	result  []models.Holding
}

func (f *fakeHoldings) Holdings(ctx context.Context, user *models.User) ([]models.Holding, error) {
	if err := f.checker.Require(user, models.ActionViewHoldings); err != nil {
		return nil, err
	}
	return f.result, nil
}

// fakeRefData answers watch data by CUSIP
type fakeRefData struct {
	watch    map[string]*models.WatchItemWithData
	asset    *refdata.AssetData
	macro    []refdata.MacroRow
	macroErr error
}

func (f *fakeRefData) WatchData(ctx context.Context, cusip string, assetType models.AssetType) (*models.WatchItemWithData, error) {
	if !assetType.IsBondLike() {
		return nil, refdata.ErrUnsupportedType
	}
	d, ok := f.watch[cusip]
	if !ok {
		return nil, fmt.Errorf("%s: %w", cusip, refdata.ErrNotFound)
	}
	cp := *d
	return &cp, nil
}

func (f *fakeRefData) AssetData(ctx context.Context, cusip string, assetType models.AssetType) (*refdata.AssetData, error) {
	if assetType != models.AssetTypeTermLoan && assetType != models.AssetTypeCorporateBond {
		return nil, refdata.ErrUnsupportedType
	}
	if f.asset == nil {
		return nil, refdata.ErrNotFound
	}
	return f.asset, nil
}

func (f *fakeRefData) Macro(ctx context.Context) ([]refdata.MacroRow, error) {
	return f.macro, f.macroErr
}
