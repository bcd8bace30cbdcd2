package database

import (
	"context"
	"fmt"
	"time"

	"github.com/trogers1052/oms-service/internal/models"
)

// CreateWatchItem adds a CUSIP to the owner's watch list
func (db *DB) CreateWatchItem(ctx context.Context, w *models.WatchItem) error {
	query := `
		INSERT INTO watchlist (cusip, asset_type, created_by, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	now := time.Now().UTC()

	err := db.conn.QueryRowContext(ctx, query, w.CUSIP, w.AssetType, w.CreatedBy, now).Scan(&w.ID)
	if err != nil {
		return fmt.Errorf("failed to create watch item: %w", mapError(err))
	}
	w.CreatedAt = now
	return nil
}

// WatchItemExists reports whether the owner already watches the CUSIP
func (db *DB) WatchItemExists(ctx context.Context, cusip string, ownerID int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM watchlist WHERE cusip = $1 AND created_by = $2)`
	var exists bool
	if err := db.conn.QueryRowContext(ctx, query, cusip, ownerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check watch item existence: %w", err)
	}
	return exists, nil
}

// ListWatchItems pages through the owner's watch list
func (db *DB) ListWatchItems(ctx context.Context, ownerID, offset, limit int) ([]*models.WatchItem, error) {
	query := `
		SELECT id, cusip, asset_type, created_by, created_at
		FROM watchlist
		WHERE created_by = $1
		ORDER BY id ASC
		OFFSET $2 LIMIT $3
	`
	rows, err := db.conn.QueryContext(ctx, query, ownerID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query watch list: %w", err)
	}
	defer rows.Close()

	items := []*models.WatchItem{}
	for rows.Next() {
		var w models.WatchItem
		if err := rows.Scan(&w.ID, &w.CUSIP, &w.AssetType, &w.CreatedBy, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watch item: %w", err)
		}
		items = append(items, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate watch list: %w", err)
	}
	return items, nil
}

// DeleteWatchItem removes an item, only if the owner created it
func (db *DB) DeleteWatchItem(ctx context.Context, id, ownerID int) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM watchlist WHERE id = $1 AND created_by = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete watch item: %w", err)
	}
	return checkAffected(result, "watch item", id)
}
