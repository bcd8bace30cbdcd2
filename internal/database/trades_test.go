package database

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/oms-service/internal/holdings"
	"github.com/trogers1052/oms-service/internal/models"
)

func newTestAsset(t *testing.T, testDB *TestDB, cusip string, assetType models.AssetType, ownerID int) *models.Asset {
	t.Helper()
	a := &models.Asset{
		CUSIP:       cusip,
		Type:        assetType,
		DisplayName: cusip + " display",
		Issuer:      "Acme Corp",
		Mark:        decimal.NewNullDecimal(decimal.RequireFromString("101.5")),
		CreatedBy:   &ownerID,
	}
	require.NoError(t, testDB.CreateAsset(context.Background(), a))
	return a
}

func newTestTrade(assetID int, direction, qty, price string) *models.Trade {
	return &models.Trade{
		TradeDate:  models.NewDate(2024, time.March, 1),
		SettleDate: models.NewDate(2024, time.March, 3),
		Direction:  direction,
		AssetID:    assetID,
		Quantity:   decimal.RequireFromString(qty),
		Price:      decimal.RequireFromString(price),
		FundAlloc:  "Fund I",
		SubAlloc:   "Core",
	}
}

func TestTradesRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)
	ctx := context.Background()

	t.Run("CreateTrade copies asset type from asset", func(t *testing.T) {
		testDB.TruncateAll(t)
		owner := testDB.CreateUser(t, "alice", "trader")
		asset := newTestAsset(t, testDB, "123456AB7", models.AssetTypeCorporateBond, owner)

		trade := newTestTrade(asset.ID, models.DirectionBuyLong, "1000000", "98")
		require.NoError(t, testDB.CreateTrade(ctx, trade))

		assert.NotZero(t, trade.ID)
		assert.Equal(t, models.AssetTypeCorporateBond, trade.AssetType)
		assert.False(t, trade.CreatedAt.IsZero())
	})

	t.Run("CreateTrade rejects unknown asset", func(t *testing.T) {
		testDB.TruncateAll(t)

		err := testDB.CreateTrade(ctx, newTestTrade(999, models.DirectionBuyLong, "1", "1"))
		assert.ErrorIs(t, err, ErrInvalidReference)
	})

	t.Run("CreateTrade rejects duplicate external id", func(t *testing.T) {
		testDB.TruncateAll(t)
		owner := testDB.CreateUser(t, "alice", "trader")
		asset := newTestAsset(t, testDB, "123456AB7", models.AssetTypeEquity, owner)

		first := newTestTrade(asset.ID, models.DirectionBuyLong, "10", "5")
		first.ExternalID = "exec-1"
		require.NoError(t, testDB.CreateTrade(ctx, first))

		second := newTestTrade(asset.ID, models.DirectionBuyLong, "10", "5")
		second.ExternalID = "exec-1"
		assert.ErrorIs(t, testDB.CreateTrade(ctx, second), ErrConflict)

		exists, err := testDB.TradeExistsByExternalID(ctx, "exec-1")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = testDB.TradeExistsByExternalID(ctx, "exec-2")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("GetTrade round-trips exact decimals and dates", func(t *testing.T) {
		testDB.TruncateAll(t)
		owner := testDB.CreateUser(t, "alice", "trader")
		asset := newTestAsset(t, testDB, "123456AB7", models.AssetTypeTermLoan, owner)

		trade := newTestTrade(asset.ID, models.DirectionSellShort, "250000.5", "97.125")
		trade.Counterparty = "Dealer A"
		require.NoError(t, testDB.CreateTrade(ctx, trade))

		got, err := testDB.GetTrade(ctx, trade.ID)
		require.NoError(t, err)
		assert.True(t, got.Quantity.Equal(decimal.RequireFromString("250000.5")))
		assert.True(t, got.Price.Equal(decimal.RequireFromString("97.125")))
		assert.Equal(t, "2024-03-01", got.TradeDate.String())
		assert.Equal(t, "2024-03-03", got.SettleDate.String())
		assert.Equal(t, "Dealer A", got.Counterparty)
		assert.Equal(t, "Fund I", got.FundAlloc)
		assert.Empty(t, got.Notes)
	})

	t.Run("GetTrade returns ErrNotFound", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.GetTrade(ctx, 42)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ListTradesForAsset returns trades in booking order", func(t *testing.T) {
		testDB.TruncateAll(t)
		owner := testDB.CreateUser(t, "alice", "trader")
		asset := newTestAsset(t, testDB, "123456AB7", models.AssetTypeEquity, owner)
		other := newTestAsset(t, testDB, "999999ZZ9", models.AssetTypeEquity, owner)

		for _, qty := range []string{"1", "2", "3"} {
			require.NoError(t, testDB.CreateTrade(ctx, newTestTrade(asset.ID, models.DirectionBuyLong, qty, "10")))
		}
		require.NoError(t, testDB.CreateTrade(ctx, newTestTrade(other.ID, models.DirectionBuyLong, "9", "10")))

		trades, err := testDB.ListTradesForAsset(ctx, asset.ID)
		require.NoError(t, err)
		require.Len(t, trades, 3)
		for i, want := range []string{"1", "2", "3"} {
			assert.True(t, trades[i].Quantity.Equal(decimal.RequireFromString(want)))
		}
		assert.Less(t, trades[0].ID, trades[1].ID)
	})

	t.Run("ListTrades pages by offset and limit", func(t *testing.T) {
		testDB.TruncateAll(t)
		owner := testDB.CreateUser(t, "alice", "trader")
		asset := newTestAsset(t, testDB, "123456AB7", models.AssetTypeEquity, owner)
		for i := 0; i < 5; i++ {
			require.NoError(t, testDB.CreateTrade(ctx, newTestTrade(asset.ID, models.DirectionBuyLong, "1", "1")))
		}

		page, err := testDB.ListTrades(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, 3, page[0].ID)
	})

	t.Run("UpdateTrade changes fields and keeps external id", func(t *testing.T) {
		testDB.TruncateAll(t)
		owner := testDB.CreateUser(t, "alice", "trader")
		asset := newTestAsset(t, testDB, "123456AB7", models.AssetTypeEquity, owner)

		trade := newTestTrade(asset.ID, models.DirectionBuyLong, "10", "5")
		trade.ExternalID = "exec-9"
		require.NoError(t, testDB.CreateTrade(ctx, trade))

		update := newTestTrade(asset.ID, models.DirectionSellLong, "4", "6")
		update.ID = trade.ID
		require.NoError(t, testDB.UpdateTrade(ctx, update))
		assert.Equal(t, "exec-9", update.ExternalID)
		assert.Equal(t, models.AssetTypeEquity, update.AssetType)

		got, err := testDB.GetTrade(ctx, trade.ID)
		require.NoError(t, err)
		assert.Equal(t, models.DirectionSellLong, got.Direction)
		assert.True(t, got.Quantity.Equal(decimal.NewFromInt(4)))
	})

	t.Run("UpdateTrade returns ErrNotFound for missing trade", func(t *testing.T) {
		testDB.TruncateAll(t)

		missing := newTestTrade(1, models.DirectionBuyLong, "1", "1")
		missing.ID = 77
		assert.ErrorIs(t, testDB.UpdateTrade(ctx, missing), ErrNotFound)
	})

	t.Run("DeleteTrade removes trade", func(t *testing.T) {
		testDB.TruncateAll(t)
		owner := testDB.CreateUser(t, "alice", "trader")
		asset := newTestAsset(t, testDB, "123456AB7", models.AssetTypeEquity, owner)
		trade := newTestTrade(asset.ID, models.DirectionBuyLong, "1", "1")
		require.NoError(t, testDB.CreateTrade(ctx, trade))

		require.NoError(t, testDB.DeleteTrade(ctx, trade.ID))
		assert.ErrorIs(t, testDB.DeleteTrade(ctx, trade.ID), ErrNotFound)
	})

	t.Run("quantity check constraint rejects non-positive quantity", func(t *testing.T) {
		testDB.TruncateAll(t)
		owner := testDB.CreateUser(t, "alice", "trader")
		asset := newTestAsset(t, testDB, "123456AB7", models.AssetTypeEquity, owner)

		err := testDB.CreateTrade(ctx, newTestTrade(asset.ID, models.DirectionBuyLong, "0", "1"))
		assert.Error(t, err)
	})

	t.Run("ReadSnapshot feeds the holdings engine", func(t *testing.T) {
		testDB.TruncateAll(t)
		owner := testDB.CreateUser(t, "alice", "trader")
		asset := newTestAsset(t, testDB, "123456AB7", models.AssetTypeCorporateBond, owner)
		require.NoError(t, testDB.CreateTrade(ctx, newTestTrade(asset.ID, models.DirectionBuyLong, "1000000", "98")))

		var out []models.Holding
		err := testDB.ReadSnapshot(ctx, func(src holdings.Source) error {
			assets, err := src.ListAssets(ctx)
			if err != nil {
				return err
			}
			var inputs []holdings.Input
			for _, a := range assets {
				trades, err := src.ListTradesForAsset(ctx, a.ID)
				if err != nil {
					return err
				}
				inputs = append(inputs, holdings.Input{Asset: a, Trades: trades})
			}
			out = holdings.ComputeAll(inputs)
			return nil
		})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.True(t, out[0].MarketValue.Equal(decimal.NewFromInt(1015000)))
		assert.True(t, out[0].MtmPnl.Equal(decimal.NewFromInt(35000)))
		assert.Equal(t, "Fund I", out[0].Fund)
	})
}
