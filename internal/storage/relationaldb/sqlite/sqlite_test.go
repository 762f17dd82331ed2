package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cennznet/cennzx-go/internal/core/assets"
	"github.com/cennznet/cennzx-go/internal/storage/relationaldb"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func addr(b byte) assets.Address {
	var a assets.Address
	a[0] = b
	return a
}

func TestTradeHistory(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.InsertTrade(ctx, relationaldb.TradeRecord{
			Kind:         "sell",
			Trader:       addr(1),
			AssetSold:    16_000,
			AssetBought:  16_001,
			SoldAmount:   uint64(100 + i),
			BoughtAmount: uint64(90 + i),
			ExecutedAt:   now,
		}))
	}
	require.NoError(t, store.InsertTrade(ctx, relationaldb.TradeRecord{
		Kind:         "buy",
		Trader:       addr(2),
		AssetSold:    16_001,
		AssetBought:  16_000,
		SoldAmount:   55,
		BoughtAmount: 50,
		ExecutedAt:   now,
	}))

	records, err := store.RecentTrades(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Newest first.
	assert.Equal(t, "buy", records[0].Kind)
	assert.Equal(t, addr(2), records[0].Trader)
	assert.Equal(t, uint64(102), records[1].SoldAmount)
	assert.Equal(t, now, records[0].ExecutedAt)

	mine, err := store.TradesByTrader(ctx, addr(1), 10)
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	_, err = store.RecentTrades(ctx, 0)
	assert.ErrorIs(t, err, relationaldb.ErrInvalidLimit)
}

func TestLiquidityHistory(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertLiquidityChange(ctx, relationaldb.LiquidityRecord{
		Kind:        "add",
		Provider:    addr(1),
		TradeAsset:  16_001,
		CoreAmount:  1_000,
		AssetAmount: 2_000,
		Liquidity:   1_000,
		ExecutedAt:  time.Now(),
	}))
	require.NoError(t, store.InsertLiquidityChange(ctx, relationaldb.LiquidityRecord{
		Kind:        "remove",
		Provider:    addr(1),
		TradeAsset:  16_002,
		CoreAmount:  500,
		AssetAmount: 1_000,
		Liquidity:   500,
		ExecutedAt:  time.Now(),
	}))

	records, err := store.LiquidityChanges(ctx, 16_001, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "add", records[0].Kind)
	assert.Equal(t, uint64(2_000), records[0].AssetAmount)
}

func TestClosedStore(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Close())

	err := store.InsertTrade(context.Background(), relationaldb.TradeRecord{})
	assert.ErrorIs(t, err, relationaldb.ErrDatabaseClosed)
}
