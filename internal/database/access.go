package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/trogers1052/oms-service/internal/models"
)

// GetUser retrieves a user with its roles and their actions
func (db *DB) GetUser(ctx context.Context, id int) (*models.User, error) {
	var u models.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, email FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Username, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	roles, err := db.rolesForUsers(ctx, []int{id})
	if err != nil {
		return nil, err
	}
	u.Roles = roles[id]
	if u.Roles == nil {
		u.Roles = []models.Role{}
	}
	return &u, nil
}

// ListUsers returns every user with roles
func (db *DB) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, username, email FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	var ids []int
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
		ids = append(ids, u.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	roles, err := db.rolesForUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		u.Roles = roles[u.ID]
		if u.Roles == nil {
			u.Roles = []models.Role{}
		}
	}
	return users, nil
}

// rolesForUsers loads the roles (with actions) of each user id
func (db *DB) rolesForUsers(ctx context.Context, userIDs []int) (map[int][]models.Role, error) {
	out := make(map[int][]models.Role)
	if len(userIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT ur.user_id, r.id, r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = ANY($1)
		ORDER BY ur.user_id, r.id
	`
	rows, err := db.conn.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query user roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID int
		var r models.Role
		if err := rows.Scan(&userID, &r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("failed to scan user role: %w", err)
		}
		out[userID] = append(out[userID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user roles: %w", err)
	}

	actions, err := db.actionsByRole(ctx)
	if err != nil {
		return nil, err
	}
	for userID, roles := range out {
		for i := range roles {
			roles[i].Actions = actions[roles[i].ID]
		}
		out[userID] = roles
	}
	return out, nil
}

// ListRoles returns every role with its actions
func (db *DB) ListRoles(ctx context.Context) ([]*models.Role, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()

	roles := []*models.Role{}
	for rows.Next() {
		var r models.Role
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}

	actions, err := db.actionsByRole(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		r.Actions = actions[r.ID]
		if r.Actions == nil {
			r.Actions = []models.Action{}
		}
	}
	return roles, nil
}

// ListActions returns every action
func (db *DB) ListActions(ctx context.Context) ([]*models.Action, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name FROM actions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	actions := []*models.Action{}
	for rows.Next() {
		var a models.Action
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate actions: %w", err)
	}
	return actions, nil
}

func (db *DB) actionsByRole(ctx context.Context) (map[int][]models.Action, error) {
	query := `
		SELECT ra.role_id, a.id, a.name
		FROM role_actions ra
		JOIN actions a ON a.id = ra.action_id
		ORDER BY ra.role_id, a.id
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query role actions: %w", err)
	}
	defer rows.Close()

	out := make(map[int][]models.Action)
	for rows.Next() {
		var roleID int
		var a models.Action
		if err := rows.Scan(&roleID, &a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("failed to scan role action: %w", err)
		}
		out[roleID] = append(out[roleID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate role actions: %w", err)
	}
	return out, nil
}

// LoadRoleGrants returns role id -> action names for the access policy
func (db *DB) LoadRoleGrants(ctx context.Context) (map[int][]string, error) {
	actions, err := db.actionsByRole(ctx)
	if err != nil {
		return nil, err
	}
	grants := make(map[int][]string, len(actions))
	for roleID, list := range actions {
		for _, a := range list {
			grants[roleID] = append(grants[roleID], a.Name)
		}
	}
	return grants, nil
}

// SetRoleActions replaces the actions granted to a role. Unknown action ids
// are ignored.
func (db *DB) SetRoleActions(ctx context.Context, roleID int, actionIDs []int) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireRow(ctx, tx, `SELECT 1 FROM roles WHERE id = $1`, "role", roleID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM role_actions WHERE role_id = $1`, roleID); err != nil {
			return fmt.Errorf("failed to clear role actions: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO role_actions (role_id, action_id) SELECT $1, id FROM actions WHERE id = ANY($2)`,
			roleID, pq.Array(actionIDs),
		); err != nil {
			return fmt.Errorf("failed to assign role actions: %w", err)
		}
		return nil
	})
}

// SetUserRoles replaces the roles of a user. Unknown role ids are ignored.
func (db *DB) SetUserRoles(ctx context.Context, userID int, roleIDs []int) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireRow(ctx, tx, `SELECT 1 FROM users WHERE id = $1`, "user", userID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("failed to clear user roles: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role_id) SELECT $1, id FROM roles WHERE id = ANY($2)`,
			userID, pq.Array(roleIDs),
		); err != nil {
			return fmt.Errorf("failed to assign user roles: %w", err)
		}
		return nil
	})
}

func requireRow(ctx context.Context, q querier, query, what string, id int) error {
	var one int
	err := q.QueryRowContext(ctx, query, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", what, err)
	}
	return nil
}
