package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/trogers1052/oms-service/internal/models"
)

const assetColumns = `
	id, cusip, type, display_name, issuer, deal_name, spread_coupon, maturity,
	payment_rank, moodys_cfr, moodys_asset, sp_cfr, sp_asset, amount_outstanding,
	mark, created_by, created_at, updated_at`

// CreateAsset inserts a new asset owned by a.CreatedBy
func (db *DB) CreateAsset(ctx context.Context, a *models.Asset) error {
	query := `
		INSERT INTO assets (
			cusip, type, display_name, issuer, deal_name, spread_coupon, maturity,
			payment_rank, moodys_cfr, moodys_asset, sp_cfr, sp_asset, amount_outstanding,
			mark, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`
	now := time.Now().UTC()

	err := db.conn.QueryRowContext(ctx, query,
		a.CUSIP, a.Type, a.DisplayName, nullString(a.Issuer), nullString(a.DealName), a.SpreadCoupon, a.Maturity,
		nullString(a.PaymentRank), nullString(a.MoodysCFR), nullString(a.MoodysAsset), nullString(a.SPCFR), nullString(a.SPAsset),
		nullInt64(a.AmountOutstanding), a.Mark, nullInt(a.CreatedBy), now, now,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", mapError(err))
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

// GetAsset retrieves an asset by ID
func (db *DB) GetAsset(ctx context.Context, id int) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`

	a, err := scanAsset(db.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("asset %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return a, nil
}

// ListAssetsForUser pages through the catalog. Admins see every asset,
// everyone else only the assets they created.
func (db *DB) ListAssetsForUser(ctx context.Context, user *models.User, offset, limit int) ([]*models.Asset, error) {
	if user.IsAdmin() {
		query := `SELECT ` + assetColumns + ` FROM assets ORDER BY id ASC OFFSET $1 LIMIT $2`
		return scanAssets(db.conn.QueryContext(ctx, query, offset, limit))
	}

	query := `SELECT ` + assetColumns + ` FROM assets WHERE created_by = $1 ORDER BY id ASC OFFSET $2 LIMIT $3`
	return scanAssets(db.conn.QueryContext(ctx, query, user.ID, offset, limit))
}

// ListAssets returns the whole catalog ordered by id
func (db *DB) ListAssets(ctx context.Context) ([]*models.Asset, error) {
	return listAllAssets(ctx, db.conn)
}

func listAllAssets(ctx context.Context, q querier) ([]*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets ORDER BY id ASC`
	return scanAssets(q.QueryContext(ctx, query))
}

// UpdateAsset replaces every mutable field of an existing asset
func (db *DB) UpdateAsset(ctx context.Context, a *models.Asset) error {
	query := `
		UPDATE assets SET
			cusip = $2, type = $3, display_name = $4, issuer = $5, deal_name = $6,
			spread_coupon = $7, maturity = $8, payment_rank = $9, moodys_cfr = $10,
			moodys_asset = $11, sp_cfr = $12, sp_asset = $13, amount_outstanding = $14,
			mark = $15, updated_at = $16
		WHERE id = $1
		RETURNING created_by, created_at
	`
	now := time.Now().UTC()
	var createdBy sql.NullInt64

	err := db.conn.QueryRowContext(ctx, query,
		a.ID, a.CUSIP, a.Type, a.DisplayName, nullString(a.Issuer), nullString(a.DealName),
		a.SpreadCoupon, a.Maturity, nullString(a.PaymentRank), nullString(a.MoodysCFR),
		nullString(a.MoodysAsset), nullString(a.SPCFR), nullString(a.SPAsset), nullInt64(a.AmountOutstanding),
		a.Mark, now,
	).Scan(&createdBy, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("asset %d: %w", a.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", mapError(err))
	}
	a.CreatedBy = intPtr(createdBy)
	a.UpdatedAt = now
	return nil
}

// DeleteAsset removes an asset and, by cascade, its trades
func (db *DB) DeleteAsset(ctx context.Context, id int) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return checkAffected(result, "asset", id)
}

func scanAsset(row scanner) (*models.Asset, error) {
	var a models.Asset
	var issuer, dealName, paymentRank, moodysCFR, moodysAsset, spCFR, spAsset sql.NullString
	var amountOutstanding, createdBy sql.NullInt64

	err := row.Scan(
		&a.ID, &a.CUSIP, &a.Type, &a.DisplayName, &issuer, &dealName, &a.SpreadCoupon, &a.Maturity,
		&paymentRank, &moodysCFR, &moodysAsset, &spCFR, &spAsset, &amountOutstanding,
		&a.Mark, &createdBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Issuer = issuer.String
	a.DealName = dealName.String
	a.PaymentRank = paymentRank.String
	a.MoodysCFR = moodysCFR.String
	a.MoodysAsset = moodysAsset.String
	a.SPCFR = spCFR.String
	a.SPAsset = spAsset.String
	if amountOutstanding.Valid {
		amt := amountOutstanding.Int64
		a.AmountOutstanding = &amt
	}
	a.CreatedBy = intPtr(createdBy)

	return &a, nil
}

func scanAssets(rows *sql.Rows, err error) ([]*models.Asset, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	assets := []*models.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}
	return assets, nil
}
