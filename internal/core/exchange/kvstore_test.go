package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cennznet/cennzx-go/internal/core/assets"
	"github.com/cennznet/cennzx-go/internal/storage/keyValueDb/memory"
)

func mustKVPoolStore(t *testing.T) *KVPoolStore {
	t.Helper()
	store, err := NewKVPoolStore(memory.NewDB(), 128)
	require.NoError(t, err)
	return store
}

func TestKVPoolStoreRoundTrip(t *testing.T) {
	store := mustKVPoolStore(t)
	key := ExchangeKey{CoreAsset: coreAsset, TradeAsset: tradeAssetA}

	total, err := store.TotalLiquidity(key)
	require.NoError(t, err)
	assert.Zero(t, total)

	require.NoError(t, store.SetTotalLiquidity(key, 12_345))
	total, err = store.TotalLiquidity(key)
	require.NoError(t, err)
	assert.Equal(t, uint64(12_345), total)

	require.NoError(t, store.SetLiquidityBalance(key, addr(1), 7_000))
	require.NoError(t, store.SetLiquidityBalance(key, addr(2), 5_345))

	balance, err := store.LiquidityBalance(key, addr(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(7_000), balance)

	// Zero writes delete.
	require.NoError(t, store.SetLiquidityBalance(key, addr(1), 0))
	balance, err = store.LiquidityBalance(key, addr(1))
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestKVPoolStoreProviders(t *testing.T) {
	store := mustKVPoolStore(t)
	key := ExchangeKey{CoreAsset: coreAsset, TradeAsset: tradeAssetA}
	other := ExchangeKey{CoreAsset: coreAsset, TradeAsset: tradeAssetB}

	require.NoError(t, store.SetLiquidityBalance(key, addr(1), 100))
	require.NoError(t, store.SetLiquidityBalance(key, addr(2), 200))
	require.NoError(t, store.SetLiquidityBalance(other, addr(3), 300))

	providers, err := store.Providers(key)
	require.NoError(t, err)
	assert.ElementsMatch(t, []assets.Address{addr(1), addr(2)}, providers)
}
