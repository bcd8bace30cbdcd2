// Package access answers whether a caller may perform an action.
package access

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/trogers1052/oms-service/internal/models"
)

// ErrForbidden is returned when none of the caller's roles grants the action
var ErrForbidden = errors.New("forbidden")

// ErrUnauthenticated is returned when there is no caller
var ErrUnauthenticated = errors.New("unauthenticated")

// GrantLoader reads the role -> action names table
type GrantLoader interface {
	LoadRoleGrants(ctx context.Context) (map[int][]string, error)
}

// Checker is the capability check consumed by the service layer
type Checker interface {
	Require(user *models.User, action string) error
}

// Policy is a precomputed role -> action set lookup, safe for concurrent use
type Policy struct {
	mu     sync.RWMutex
	grants map[int]map[string]struct{}
}

// NewPolicy builds a policy from role id -> action names
func NewPolicy(grants map[int][]string) *Policy {
	p := &Policy{}
	p.Replace(grants)
	return p
}

// Replace swaps the whole grant table
func (p *Policy) Replace(grants map[int][]string) {
	table := make(map[int]map[string]struct{}, len(grants))
	for roleID, actions := range grants {
		set := make(map[string]struct{}, len(actions))
		for _, a := range actions {
			set[a] = struct{}{}
		}
		table[roleID] = set
	}

	p.mu.Lock()
	p.grants = table
	p.mu.Unlock()
}

// Reload rebuilds the grant table from the loader
func (p *Policy) Reload(ctx context.Context, loader GrantLoader) error {
	grants, err := loader.LoadRoleGrants(ctx)
	if err != nil {
		return fmt.Errorf("failed to load role grants: %w", err)
	}
	p.Replace(grants)
	return nil
}

// Can reports whether any of the roles grants the action
func (p *Policy) Can(roleIDs []int, action string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, id := range roleIDs {
		if _, ok := p.grants[id][action]; ok {
			return true
		}
	}
	return false
}

// Require returns nil when the user may perform the action
func (p *Policy) Require(user *models.User, action string) error {
	if user == nil {
		return ErrUnauthenticated
	}
	if !p.Can(user.RoleIDs(), action) {
		return fmt.Errorf("%w: %s", ErrForbidden, action)
	}
	return nil
}
