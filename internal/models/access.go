package models

import "strings"

// Action names checked by the service layer
const (
	ActionViewAsset     = "VIEW_ASSET"
	ActionCreateAsset   = "CREATE_ASSET"
	ActionUpdateAsset   = "UPDATE_ASSET"
	ActionDeleteAsset   = "DELETE_ASSET"
	ActionViewTrade     = "VIEW_TRADE"
	ActionCreateTrade   = "CREATE_TRADE"
	ActionUpdateTrade   = "UPDATE_TRADE"
	ActionDeleteTrade   = "DELETE_TRADE"
	ActionViewHoldings  = "VIEW_HOLDINGS"
	ActionViewWatchlist = "VIEW_WATCHLIST"
	ActionEditWatchlist = "EDIT_WATCHLIST"
)

// RoleAdmin is the role name that grants unscoped visibility
const RoleAdmin = "admin"

// Action is a named permission
type Action struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Role groups actions
type Role struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Actions []Action `json:"actions"`
}

// IsAdmin reports whether the role is the admin role
func (r Role) IsAdmin() bool {
	return strings.EqualFold(r.Name, RoleAdmin)
}

// User is a caller of the service with its assigned roles
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Roles    []Role `json:"roles"`
}

// RoleIDs returns the ids of the user's roles
func (u *User) RoleIDs() []int {
	ids := make([]int, 0, len(u.Roles))
	for _, r := range u.Roles {
		ids = append(ids, r.ID)
	}
	return ids
}

// IsAdmin reports whether any of the user's roles is admin
func (u *User) IsAdmin() bool {
	for _, r := range u.Roles {
		if r.IsAdmin() {
			return true
		}
	}
	return false
}
