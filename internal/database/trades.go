package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/trogers1052/oms-service/internal/models"
)

const tradeColumns = `
	id, trade_date, settle_date, direction, asset_type, asset_id, quantity, price,
	counterparty, fund_alloc, sub_alloc, agreement_type, doc_type, notes,
	external_id, created_by, created_at`

// CreateTrade inserts a new trade. The asset type is copied from the asset
// when the caller leaves it empty.
func (db *DB) CreateTrade(ctx context.Context, t *models.Trade) error {
	query := `
		INSERT INTO trades (
			trade_date, settle_date, direction, asset_type, asset_id, quantity, price,
			counterparty, fund_alloc, sub_alloc, agreement_type, doc_type, notes,
			external_id, created_by, created_at
		)
		SELECT $1, $2, $3, COALESCE(NULLIF($4, ''), a.type::text), a.id, $6, $7,
		       $8, $9, $10, $11, $12, $13, $14, $15, $16
		FROM assets a
		WHERE a.id = $5
		RETURNING id, asset_type
	`
	now := time.Now().UTC()

	err := db.conn.QueryRowContext(ctx, query,
		t.TradeDate, t.SettleDate, t.Direction, string(t.AssetType), t.AssetID, t.Quantity, t.Price,
		nullString(t.Counterparty), nullString(t.FundAlloc), nullString(t.SubAlloc),
		nullString(t.AgreementType), nullString(t.DocType), nullString(t.Notes),
		nullString(t.ExternalID), nullInt(t.CreatedBy), now,
	).Scan(&t.ID, &t.AssetType)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("asset %d: %w", t.AssetID, ErrInvalidReference)
	}
	if err != nil {
		return fmt.Errorf("failed to create trade: %w", mapError(err))
	}
	t.CreatedAt = now
	return nil
}

// GetTrade retrieves a trade by ID
func (db *DB) GetTrade(ctx context.Context, id int) (*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = $1`

	t, err := scanTrade(db.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trade %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return t, nil
}

// ListTrades pages through the ledger ordered by id
func (db *DB) ListTrades(ctx context.Context, offset, limit int) ([]*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades ORDER BY id ASC OFFSET $1 LIMIT $2`
	return scanTrades(db.conn.QueryContext(ctx, query, offset, limit))
}

// ListTradesForAsset returns every trade for an asset in booking order
func (db *DB) ListTradesForAsset(ctx context.Context, assetID int) ([]*models.Trade, error) {
	return listTradesForAsset(ctx, db.conn, assetID)
}

func listTradesForAsset(ctx context.Context, q querier, assetID int) ([]*models.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE asset_id = $1 ORDER BY id ASC`
	return scanTrades(q.QueryContext(ctx, query, assetID))
}

// TradeExistsByExternalID checks whether a booked execution was already stored
func (db *DB) TradeExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM trades WHERE external_id = $1)`
	var exists bool
	if err := db.conn.QueryRowContext(ctx, query, externalID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check trade existence: %w", err)
	}
	return exists, nil
}

// UpdateTrade replaces the mutable fields of an existing trade
func (db *DB) UpdateTrade(ctx context.Context, t *models.Trade) error {
	query := `
		UPDATE trades SET
			trade_date = $2, settle_date = $3, direction = $4,
			asset_type = COALESCE(NULLIF($5, ''), asset_type), asset_id = $6,
			quantity = $7, price = $8, counterparty = $9, fund_alloc = $10, sub_alloc = $11,
			agreement_type = $12, doc_type = $13, notes = $14
		WHERE id = $1
		RETURNING asset_type, external_id, created_by, created_at
	`
	var externalID sql.NullString
	var createdBy sql.NullInt64

	err := db.conn.QueryRowContext(ctx, query,
		t.ID, t.TradeDate, t.SettleDate, t.Direction, string(t.AssetType), t.AssetID,
		t.Quantity, t.Price, nullString(t.Counterparty), nullString(t.FundAlloc), nullString(t.SubAlloc),
		nullString(t.AgreementType), nullString(t.DocType), nullString(t.Notes),
	).Scan(&t.AssetType, &externalID, &createdBy, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("trade %d: %w", t.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update trade: %w", mapError(err))
	}
	t.ExternalID = externalID.String
	t.CreatedBy = intPtr(createdBy)
	return nil
}

// DeleteTrade removes a trade record by ID
func (db *DB) DeleteTrade(ctx context.Context, id int) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM trades WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	return checkAffected(result, "trade", id)
}

func scanTrade(row scanner) (*models.Trade, error) {
	var t models.Trade
	var counterparty, fundAlloc, subAlloc, agreementType, docType, notes, externalID sql.NullString
	var createdBy sql.NullInt64

	err := row.Scan(
		&t.ID, &t.TradeDate, &t.SettleDate, &t.Direction, &t.AssetType, &t.AssetID, &t.Quantity, &t.Price,
		&counterparty, &fundAlloc, &subAlloc, &agreementType, &docType, &notes,
		&externalID, &createdBy, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Counterparty = counterparty.String
	t.FundAlloc = fundAlloc.String
	t.SubAlloc = subAlloc.String
	t.AgreementType = agreementType.String
	t.DocType = docType.String
	t.Notes = notes.String
	t.ExternalID = externalID.String
	t.CreatedBy = intPtr(createdBy)

	return &t, nil
}

func scanTrades(rows *sql.Rows, err error) ([]*models.Trade, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := []*models.Trade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trades: %w", err)
	}
	return trades, nil
}
