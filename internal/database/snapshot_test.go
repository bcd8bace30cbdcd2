package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/oms-service/internal/holdings"
	"github.com/trogers1052/oms-service/internal/models"
)

var tradeColumnNames = []string{
	"id", "trade_date", "settle_date", "direction", "asset_type", "asset_id", "quantity", "price",
	"counterparty", "fund_alloc", "sub_alloc", "agreement_type", "doc_type", "notes",
	"external_id", "created_by", "created_at",
}

var assetColumnNames = []string{
	"id", "cusip", "type", "display_name", "issuer", "deal_name", "spread_coupon", "maturity",
	"payment_rank", "moodys_cfr", "moodys_asset", "sp_cfr", "sp_asset", "amount_outstanding",
	"mark", "created_by", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return &DB{conn: sqlDB}, mock
}

func TestReadSnapshot_Success(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM assets ORDER BY id ASC").
		WillReturnRows(sqlmock.NewRows(assetColumnNames).
			AddRow(1, "123456AB7", "Corporate Bond", "ACME 5s", "Acme", nil, nil, nil,
				nil, nil, nil, nil, nil, nil, "101.5", 7, now, now))
	mock.ExpectQuery("SELECT .* FROM trades WHERE asset_id = \\$1 ORDER BY id ASC").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(tradeColumnNames).
			AddRow(10, now, now, "Buy Long", "Corporate Bond", 1, "1000000", "98",
				nil, "Fund I", "Core", nil, nil, nil, nil, 7, now))
	mock.ExpectCommit()

	var out []models.Holding
	err := db.ReadSnapshot(context.Background(), func(src holdings.Source) error {
		assets, err := src.ListAssets(context.Background())
		if err != nil {
			return err
		}
		trades, err := src.ListTradesForAsset(context.Background(), assets[0].ID)
		if err != nil {
			return err
		}
		out = holdings.ComputeAll([]holdings.Input{{Asset: assets[0], Trades: trades}})
		return nil
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].MtmPnl.Equal(decimal.NewFromInt(35000)))
	assert.Equal(t, "Core", out[0].SubAlloc)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadSnapshot_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	readErr := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM assets").WillReturnError(readErr)
	mock.ExpectRollback()

	err := db.ReadSnapshot(context.Background(), func(src holdings.Source) error {
		_, err := src.ListAssets(context.Background())
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, readErr)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadSnapshot_BeginError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	called := false
	err := db.ReadSnapshot(context.Background(), func(holdings.Source) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin transaction")
	assert.False(t, called)
}

func TestCreateTrade_UnknownAssetIsInvalidReference(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO trades")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "asset_type"}))

	trade := &models.Trade{
		TradeDate:  models.NewDate(2024, 3, 1),
		SettleDate: models.NewDate(2024, 3, 1),
		Direction:  models.DirectionBuyLong,
		AssetID:    99,
		Quantity:   decimal.NewFromInt(1),
		Price:      decimal.NewFromInt(1),
	}
	err := db.CreateTrade(context.Background(), trade)
	assert.ErrorIs(t, err, ErrInvalidReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTrade_UniqueViolationIsConflict(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO trades")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "trades_external_id_key"})

	err := db.CreateTrade(context.Background(), &models.Trade{AssetID: 1, ExternalID: "x"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "trades_external_id_key")
}

func TestCreateTrade_CheckViolationIsConstraint(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO trades")).
		WillReturnError(&pq.Error{Code: "23514", Constraint: "trades_quantity_check"})

	err := db.CreateTrade(context.Background(), &models.Trade{AssetID: 1})
	assert.ErrorIs(t, err, ErrConstraint)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapError(t *testing.T) {
	plain := errors.New("plain")

	assert.ErrorIs(t, mapError(&pq.Error{Code: "23505"}), ErrConflict)
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23503"}), ErrInvalidReference)
	assert.Equal(t, plain, mapError(plain))
	assert.False(t, errors.Is(mapError(&pq.Error{Code: "22001"}), ErrConflict))

	check := mapError(&pq.Error{Code: "23514", Constraint: "trades_quantity_check"})
	assert.ErrorIs(t, check, ErrConstraint)
	assert.Contains(t, check.Error(), "trades_quantity_check")
	assert.ErrorIs(t, mapError(&pq.Error{Code: "22003", Message: "numeric field overflow"}), ErrConstraint)
}

func TestDeleteWatchItem_NotOwnedIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM watchlist WHERE id = $1 AND created_by = $2")).
		WithArgs(5, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := db.DeleteWatchItem(context.Background(), 5, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
