package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cennznet/cennzx-go/internal/core/assets"
)

const (
	coreAsset   assets.AssetID = 16_001
	tradeAssetA assets.AssetID = 16_002
	tradeAssetB assets.AssetID = 16_003
)

func addr(b byte) assets.Address {
	var a assets.Address
	a[0] = b
	return a
}

// newTestExchange builds an exchange over an in-memory ledger where `alice`
// and `bob` each hold 1,000,000 of every asset.
func newTestExchange(t *testing.T, fee FeeRate) (*Exchange, assets.Ledger) {
	t.Helper()
	var endowments []assets.Endowment
	for _, who := range []assets.Address{addr(1), addr(2)} {
		for _, asset := range []assets.AssetID{coreAsset, tradeAssetA, tradeAssetB} {
			endowments = append(endowments, assets.Endowment{Asset: asset, Account: who, Amount: 1_000_000})
		}
	}
	ledger := assets.NewLedgerWithEndowments(endowments)
	ex := New(Config{CoreAssetID: coreAsset, FeeRate: fee}, ledger, NewMemoryPoolStore())
	return ex, ledger
}

func TestAddLiquidityNewPool(t *testing.T) {
	ex, ledger := newTestExchange(t, zeroFee)
	alice := addr(1)

	minted, err := ex.AddLiquidity(alice, tradeAssetA, 0, 200, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), minted)

	state, err := ex.PoolState(tradeAssetA)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), state.CoreReserve)
	assert.Equal(t, uint64(200), state.TradeReserve)
	assert.Equal(t, uint64(100), state.TotalLiquidity)

	assert.Equal(t, uint64(999_900), ledger.Balance(coreAsset, alice))
	assert.Equal(t, uint64(999_800), ledger.Balance(tradeAssetA, alice))
}

func TestAddLiquidityExistingPool(t *testing.T) {
	ex, _ := newTestExchange(t, zeroFee)
	alice, bob := addr(1), addr(2)

	_, err := ex.AddLiquidity(alice, tradeAssetA, 0, 200, 100)
	require.NoError(t, err)

	// Trade requirement rounds up: 100*200/100 + 1 = 201.
	_, err = ex.AddLiquidity(bob, tradeAssetA, 0, 200, 100)
	assert.ErrorIs(t, err, ErrSlippageExceeded)

	minted, err := ex.AddLiquidity(bob, tradeAssetA, 0, 201, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), minted)

	state, err := ex.PoolState(tradeAssetA)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), state.CoreReserve)
	assert.Equal(t, uint64(401), state.TradeReserve)
	assert.Equal(t, uint64(200), state.TotalLiquidity)
}

func TestAddLiquidityValidation(t *testing.T) {
	ex, _ := newTestExchange(t, zeroFee)
	alice := addr(1)

	_, err := ex.AddLiquidity(alice, tradeAssetA, 0, 0, 100)
	assert.ErrorIs(t, err, ErrZeroAmount)

	_, err = ex.AddLiquidity(alice, tradeAssetA, 0, 100, 0)
	assert.ErrorIs(t, err, ErrZeroAmount)

	_, err = ex.AddLiquidity(alice, tradeAssetA, 0, 100, 2_000_000)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = ex.AddLiquidity(alice, tradeAssetA, 101, 200, 100)
	assert.ErrorIs(t, err, ErrBelowMinimumLiquidity)
}

func TestRemoveLiquidity(t *testing.T) {
	ex, ledger := newTestExchange(t, zeroFee)
	alice := addr(1)

	_, err := ex.AddLiquidity(alice, tradeAssetA, 0, 200, 100)
	require.NoError(t, err)

	coreOut, tradeOut, err := ex.RemoveLiquidity(alice, tradeAssetA, 50, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), coreOut)
	assert.Equal(t, uint64(100), tradeOut)

	// Full withdrawal empties the pool.
	coreOut, tradeOut, err = ex.RemoveLiquidity(alice, tradeAssetA, 50, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), coreOut)
	assert.Equal(t, uint64(100), tradeOut)

	state, err := ex.PoolState(tradeAssetA)
	require.NoError(t, err)
	assert.Zero(t, state.TotalLiquidity)
	assert.Zero(t, state.CoreReserve)
	assert.Zero(t, state.TradeReserve)

	assert.Equal(t, uint64(1_000_000), ledger.Balance(coreAsset, alice))
	assert.Equal(t, uint64(1_000_000), ledger.Balance(tradeAssetA, alice))
}

func TestRemoveLiquidityValidation(t *testing.T) {
	ex, _ := newTestExchange(t, zeroFee)
	alice, bob := addr(1), addr(2)

	_, _, err := ex.RemoveLiquidity(alice, tradeAssetA, 0, 0, 0)
	assert.ErrorIs(t, err, ErrZeroAmount)

	_, err = ex.AddLiquidity(alice, tradeAssetA, 0, 200, 100)
	require.NoError(t, err)

	_, _, err = ex.RemoveLiquidity(bob, tradeAssetA, 10, 0, 0)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, _, err = ex.RemoveLiquidity(alice, tradeAssetA, 50, 101, 0)
	assert.ErrorIs(t, err, ErrBelowMinimumWithdrawal)

	_, _, err = ex.RemoveLiquidity(alice, tradeAssetA, 50, 0, 51)
	assert.ErrorIs(t, err, ErrBelowMinimumWithdrawal)
}

func TestShareConservation(t *testing.T) {
	ex, _ := newTestExchange(t, zeroFee)
	alice, bob := addr(1), addr(2)

	_, err := ex.AddLiquidity(alice, tradeAssetA, 0, 1_000, 500)
	require.NoError(t, err)
	mintedBob, err := ex.AddLiquidity(bob, tradeAssetA, 0, 10_000, 250)
	require.NoError(t, err)

	aliceValue, err := ex.AccountLiquidityValue(alice, tradeAssetA)
	require.NoError(t, err)
	bobValue, err := ex.AccountLiquidityValue(bob, tradeAssetA)
	require.NoError(t, err)

	state, err := ex.PoolState(tradeAssetA)
	require.NoError(t, err)
	assert.Equal(t, state.TotalLiquidity, aliceValue.Liquidity+bobValue.Liquidity)
	assert.Equal(t, uint64(250), mintedBob)
	assert.LessOrEqual(t, aliceValue.Core+bobValue.Core, state.CoreReserve)
	assert.LessOrEqual(t, aliceValue.Asset+bobValue.Asset, state.TradeReserve)
}

func TestSellAssetCoreForTrade(t *testing.T) {
	ex, ledger := newTestExchange(t, zeroFee)
	alice, bob := addr(1), addr(2)

	_, err := ex.AddLiquidity(alice, tradeAssetA, 0, 1_000, 1_000)
	require.NoError(t, err)

	bought, err := ex.SellAsset(bob, bob, coreAsset, tradeAssetA, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(90), bought)

	state, err := ex.PoolState(tradeAssetA)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_100), state.CoreReserve)
	assert.Equal(t, uint64(910), state.TradeReserve)
	assert.Equal(t, uint64(999_900), ledger.Balance(coreAsset, bob))
	assert.Equal(t, uint64(1_000_090), ledger.Balance(tradeAssetA, bob))
}

func TestSellAssetSlippage(t *testing.T) {
	ex, _ := newTestExchange(t, zeroFee)
	alice, bob := addr(1), addr(2)

	_, err := ex.AddLiquidity(alice, tradeAssetA, 0, 1_000, 1_000)
	require.NoError(t, err)

	before, err := ex.PoolState(tradeAssetA)
	require.NoError(t, err)

	_, err = ex.SellAsset(bob, bob, coreAsset, tradeAssetA, 100, 91)
	assert.ErrorIs(t, err, ErrSlippageExceeded)

	after, err := ex.PoolState(tradeAssetA)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestBuyAssetTradeWithCore(t *testing.T) {
	ex, ledger := newTestExchange(t, zeroFee)
	alice, bob := addr(1), addr(2)

	_, err := ex.AddLiquidity(alice, tradeAssetA, 0, 1_000, 1_000)
	require.NoError(t, err)

	// Cost = floor(1000*100/900) + 1 = 112.
	_, err = ex.BuyAsset(bob, bob, coreAsset, tradeAssetA, 100, 111)
	assert.ErrorIs(t, err, ErrSlippageExceeded)

	sold, err := ex.BuyAsset(bob, bob, coreAsset, tradeAssetA, 100, 112)
	require.NoError(t, err)
	assert.Equal(t, uint64(112), sold)

	state, err := ex.PoolState(tradeAssetA)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_112), state.CoreReserve)
	assert.Equal(t, uint64(900), state.TradeReserve)
	assert.Equal(t, uint64(1_000_100), ledger.Balance(tradeAssetA, bob))
}

func TestSwapSameAsset(t *testing.T) {
	ex, _ := newTestExchange(t, zeroFee)
	bob := addr(2)

	_, err := ex.SellAsset(bob, bob, tradeAssetA, tradeAssetA, 100, 0)
	assert.ErrorIs(t, err, ErrSameAsset)

	_, err = ex.BuyAsset(bob, bob, coreAsset, coreAsset, 100, 1_000)
	assert.ErrorIs(t, err, ErrSameAsset)
}

func TestChainedSwap(t *testing.T) {
	ex, ledger := newTestExchange(t, zeroFee)
	alice, bob := addr(1), addr(2)

	_, err := ex.AddLiquidity(alice, tradeAssetA, 0, 1_000, 1_000)
	require.NoError(t, err)
	_, err = ex.AddLiquidity(alice, tradeAssetB, 0, 1_000, 1_000)
	require.NoError(t, err)

	// A -> core: 90, core -> B: floor(1000*90/1090) = 82.
	bought, err := ex.SellAsset(bob, bob, tradeAssetA, tradeAssetB, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(82), bought)

	stateA, err := ex.PoolState(tradeAssetA)
	require.NoError(t, err)
	assert.Equal(t, uint64(910), stateA.CoreReserve)
	assert.Equal(t, uint64(1_100), stateA.TradeReserve)

	stateB, err := ex.PoolState(tradeAssetB)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_090), stateB.CoreReserve)
	assert.Equal(t, uint64(918), stateB.TradeReserve)

	assert.Equal(t, uint64(1_000_082), ledger.Balance(tradeAssetB, bob))
}

func TestChainedSwapEmptySecondPool(t *testing.T) {
	ex, _ := newTestExchange(t, zeroFee)
	alice, bob := addr(1), addr(2)

	_, err := ex.AddLiquidity(alice, tradeAssetA, 0, 1_000, 1_000)
	require.NoError(t, err)

	beforeA, err := ex.PoolState(tradeAssetA)
	require.NoError(t, err)

	_, err = ex.SellAsset(bob, bob, tradeAssetA, tradeAssetB, 100, 0)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	afterA, err := ex.PoolState(tradeAssetA)
	require.NoError(t, err)
	assert.Equal(t, beforeA, afterA)
}

func TestSwapToRecipient(t *testing.T) {
	ex, ledger := newTestExchange(t, zeroFee)
	alice, bob := addr(1), addr(2)
	carol := addr(3)

	_, err := ex.AddLiquidity(alice, tradeAssetA, 0, 1_000, 1_000)
	require.NoError(t, err)

	bought, err := ex.SellAsset(bob, carol, coreAsset, tradeAssetA, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, bought, ledger.Balance(tradeAssetA, carol))
	assert.Equal(t, uint64(999_900), ledger.Balance(coreAsset, bob))
}

func TestSwapInvariantProductGrows(t *testing.T) {
	ex, _ := newTestExchange(t, DefaultFeeRate())
	alice, bob := addr(1), addr(2)

	_, err := ex.AddLiquidity(alice, tradeAssetA, 0, 100_000, 100_000)
	require.NoError(t, err)

	for _, amount := range []uint64{1, 17, 500, 9_999} {
		before, err := ex.PoolState(tradeAssetA)
		require.NoError(t, err)

		_, err = ex.SellAsset(bob, bob, coreAsset, tradeAssetA, amount, 0)
		require.NoError(t, err)

		after, err := ex.PoolState(tradeAssetA)
		require.NoError(t, err)
		assert.GreaterOrEqual(t,
			after.CoreReserve*after.TradeReserve,
			before.CoreReserve*before.TradeReserve,
			"product shrank on trade of %d", amount)
	}
}

func TestBuyPriceChained(t *testing.T) {
	ex, _ := newTestExchange(t, zeroFee)
	alice := addr(1)

	_, err := ex.AddLiquidity(alice, tradeAssetA, 0, 1_000, 1_000)
	require.NoError(t, err)
	_, err = ex.AddLiquidity(alice, tradeAssetB, 0, 1_000, 1_000)
	require.NoError(t, err)

	// B costs 112 core, and 112 core costs floor(1000*112/888)+1 = 127 A.
	price, err := ex.BuyPrice(tradeAssetB, 100, tradeAssetA)
	require.NoError(t, err)
	assert.Equal(t, uint64(127), price)

	_, err = ex.BuyPrice(tradeAssetA, 100, tradeAssetA)
	assert.ErrorIs(t, err, ErrSameAsset)
}

func TestLiquidityValueAndPrice(t *testing.T) {
	ex, _ := newTestExchange(t, zeroFee)
	alice := addr(1)

	_, err := ex.AddLiquidity(alice, tradeAssetA, 0, 200, 100)
	require.NoError(t, err)

	value, err := ex.LiquidityValue(tradeAssetA, 50)
	require.NoError(t, err)
	assert.Equal(t, LiquidityValue{Liquidity: 50, Core: 50, Asset: 100}, value)

	// Requests above the supply are clamped.
	value, err = ex.LiquidityValue(tradeAssetA, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), value.Liquidity)

	price, err := ex.LiquidityPrice(tradeAssetA, 50)
	require.NoError(t, err)
	assert.Equal(t, LiquidityPrice{Core: 50, Asset: 101}, price)

	// On an empty pool the investor sets the rate.
	price, err = ex.LiquidityPrice(tradeAssetB, 75)
	require.NoError(t, err)
	assert.Equal(t, LiquidityPrice{Core: 75, Asset: 1}, price)
}

func TestSetFeeRate(t *testing.T) {
	ex, _ := newTestExchange(t, zeroFee)

	perThousand, err := NewFeeRate(5, PerThousand)
	require.NoError(t, err)
	require.NoError(t, ex.SetFeeRate(perThousand))
	assert.Equal(t, uint64(5_000), ex.FeeRate().Parts())
	assert.Equal(t, PerMillion, ex.FeeRate().Scale())
}

func TestEventsPublished(t *testing.T) {
	ex, _ := newTestExchange(t, zeroFee)
	alice, bob := addr(1), addr(2)

	events, cancel := ex.Events().Subscribe(16)
	defer cancel()

	_, err := ex.AddLiquidity(alice, tradeAssetA, 0, 1_000, 1_000)
	require.NoError(t, err)
	_, err = ex.SellAsset(bob, bob, coreAsset, tradeAssetA, 100, 0)
	require.NoError(t, err)
	_, _, err = ex.RemoveLiquidity(alice, tradeAssetA, 1_000, 0, 0)
	require.NoError(t, err)

	added := (<-events).(LiquidityAdded)
	assert.Equal(t, alice, added.Provider)
	assert.Equal(t, uint64(1_000), added.LiquidityMinted)

	sold := (<-events).(AssetSold)
	assert.Equal(t, bob, sold.Trader)
	assert.Equal(t, uint64(100), sold.SoldAmount)
	assert.Equal(t, uint64(90), sold.BoughtAmount)

	removed := (<-events).(LiquidityRemoved)
	assert.Equal(t, uint64(1_000), removed.LiquidityBurned)
}

func TestKVPoolStore(t *testing.T) {
	// The persistent store must behave exactly like the in-memory one.
	ex := New(Config{CoreAssetID: coreAsset}, assets.NewLedgerWithEndowments([]assets.Endowment{
		{Asset: coreAsset, Account: addr(1), Amount: 10_000},
		{Asset: tradeAssetA, Account: addr(1), Amount: 10_000},
	}), mustKVPoolStore(t))

	minted, err := ex.AddLiquidity(addr(1), tradeAssetA, 0, 2_000, 1_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), minted)

	state, err := ex.PoolState(tradeAssetA)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), state.TotalLiquidity)

	coreOut, tradeOut, err := ex.RemoveLiquidity(addr(1), tradeAssetA, 1_000, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), coreOut)
	assert.Equal(t, uint64(2_000), tradeOut)
}
