// Package exchange implements a constant-product spot exchange: one pool per
// trade asset, always paired against a single core asset, with pooled reserves
// escrowed at a deterministic per-pool address.
package exchange

import (
	"fmt"
	"sync"

	"github.com/cennznet/cennzx-go/internal/core/assets"
)

// Config carries the exchange-wide settings fixed at construction.
type Config struct {
	// CoreAssetID is the numeraire every pool is denominated against.
	CoreAssetID assets.AssetID
	// DefaultFeeRate is the per-trade fee. Zero value means DefaultFeeRate().
	FeeRate FeeRate
}

// Exchange is the spot exchange engine. Operations targeting any pool are
// serialized: reserve updates are read-modify-write and must never interleave.
type Exchange struct {
	mu        sync.Mutex
	coreAsset assets.AssetID
	feeRate   FeeRate
	ledger    assets.Ledger
	pools     PoolStore
	events    *Bus
}

// New creates an exchange over the given asset ledger and pool store.
func New(cfg Config, ledger assets.Ledger, pools PoolStore) *Exchange {
	fee := cfg.FeeRate
	if fee.Scale() == 0 {
		fee = DefaultFeeRate()
	}
	return &Exchange{
		coreAsset: cfg.CoreAssetID,
		feeRate:   fee,
		ledger:    ledger,
		pools:     pools,
		events:    NewBus(),
	}
}

// Events returns the bus carrying settlement notifications.
func (e *Exchange) Events() *Bus { return e.events }

// CoreAssetID returns the exchange's numeraire asset.
func (e *Exchange) CoreAssetID() assets.AssetID { return e.coreAsset }

// FeeRate returns the current exchange-wide fee rate.
func (e *Exchange) FeeRate() FeeRate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.feeRate
}

// SetFeeRate replaces the exchange-wide fee rate. Authorization of the caller
// is the embedding application's concern. Rates are normalized to per-million.
func (e *Exchange) SetFeeRate(rate FeeRate) error {
	normalized, err := rate.Convert(PerMillion)
	if err != nil {
		return err
	}
	if normalized.Parts() > uint64(PerMillion) {
		return fmt.Errorf("fee rate %s exceeds one unit: %w", rate, ErrOverflow)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.feeRate = normalized
	return nil
}

// ExchangeAddress returns the escrow address of the pool for `assetID`.
func (e *Exchange) ExchangeAddress(assetID assets.AssetID) assets.Address {
	return ExchangeAddress(e.coreAsset, assetID)
}

func (e *Exchange) key(assetID assets.AssetID) ExchangeKey {
	return ExchangeKey{CoreAsset: e.coreAsset, TradeAsset: assetID}
}

// reserves fetches the pool reserves for `assetID` from the escrow address.
func (e *Exchange) reserves(assetID assets.AssetID) (coreReserve, tradeReserve assets.Balance) {
	addr := e.ExchangeAddress(assetID)
	return e.ledger.Balance(e.coreAsset, addr), e.ledger.Balance(assetID, addr)
}

// PoolState is a read snapshot of one pool.
type PoolState struct {
	TradeAsset     assets.AssetID `json:"trade_asset"`
	CoreReserve    assets.Balance `json:"core_reserve"`
	TradeReserve   assets.Balance `json:"trade_reserve"`
	TotalLiquidity assets.Balance `json:"total_liquidity"`
}

// PoolState returns the current reserves and share supply of a pool.
func (e *Exchange) PoolState(assetID assets.AssetID) (PoolState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	total, err := e.pools.TotalLiquidity(e.key(assetID))
	if err != nil {
		return PoolState{}, err
	}
	core, trade := e.reserves(assetID)
	return PoolState{
		TradeAsset:     assetID,
		CoreReserve:    core,
		TradeReserve:   trade,
		TotalLiquidity: total,
	}, nil
}

//
// Liquidity
//

// AddLiquidity deposits core and trade asset at the pool's current ratio and
// mints liquidity shares for the provider. The first deposit into a pool sets
// its initial price ratio and takes the provider's full trade-asset offer.
// Returns the amount of liquidity minted.
func (e *Exchange) AddLiquidity(
	provider assets.Address,
	assetID assets.AssetID,
	minLiquidity assets.Balance,
	maxAssetAmount assets.Balance,
	coreAmount assets.Balance,
) (assets.Balance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if maxAssetAmount == 0 || coreAmount == 0 {
		return 0, fmt.Errorf("add liquidity: %w", ErrZeroAmount)
	}
	if e.ledger.Balance(e.coreAsset, provider) < coreAmount {
		return 0, fmt.Errorf("add liquidity: core asset: %w", ErrInsufficientBalance)
	}
	if e.ledger.Balance(assetID, provider) < maxAssetAmount {
		return 0, fmt.Errorf("add liquidity: trade asset: %w", ErrInsufficientBalance)
	}

	key := e.key(assetID)
	totalLiquidity, err := e.pools.TotalLiquidity(key)
	if err != nil {
		return 0, err
	}
	coreReserve, tradeReserve := e.reserves(assetID)

	var tradeAmount, liquidityMinted assets.Balance
	if totalLiquidity == 0 || coreReserve == 0 {
		// New exchange pool: the provider sets the price.
		tradeAmount = maxAssetAmount
		liquidityMinted = coreAmount
	} else {
		// Trade asset requirement rounds up, minted shares round down.
		tradeAmount, err = mulDiv(coreAmount, tradeReserve, coreReserve)
		if err != nil {
			return 0, err
		}
		if tradeAmount+1 < tradeAmount {
			return 0, fmt.Errorf("add liquidity: %w", ErrOverflow)
		}
		tradeAmount++
		liquidityMinted, err = mulDiv(coreAmount, totalLiquidity, coreReserve)
		if err != nil {
			return 0, err
		}
	}

	if liquidityMinted < minLiquidity {
		return 0, fmt.Errorf("add liquidity: mintable %d < minimum %d: %w",
			liquidityMinted, minLiquidity, ErrBelowMinimumLiquidity)
	}
	if tradeAmount > maxAssetAmount {
		return 0, fmt.Errorf("add liquidity: required %d > offered %d: %w",
			tradeAmount, maxAssetAmount, ErrSlippageExceeded)
	}

	escrow := e.ExchangeAddress(assetID)
	err = e.ledger.ApplyAll([]assets.Transfer{
		{Asset: e.coreAsset, From: provider, To: escrow, Amount: coreAmount},
		{Asset: assetID, From: provider, To: escrow, Amount: tradeAmount},
	})
	if err != nil {
		return 0, fmt.Errorf("add liquidity: %w", err)
	}

	if err := e.mintLiquidity(key, provider, liquidityMinted); err != nil {
		return 0, err
	}

	e.events.Publish(LiquidityAdded{
		Provider:        provider,
		TradeAsset:      assetID,
		CoreAmount:      coreAmount,
		TradeAmount:     tradeAmount,
		LiquidityMinted: liquidityMinted,
	})
	return liquidityMinted, nil
}

// RemoveLiquidity burns the provider's liquidity shares and withdraws core
// and trade asset proportional to the burned share of the total supply.
// Returns the withdrawn (core, trade) amounts.
func (e *Exchange) RemoveLiquidity(
	provider assets.Address,
	assetID assets.AssetID,
	liquidityToWithdraw assets.Balance,
	minAssetWithdraw assets.Balance,
	minCoreWithdraw assets.Balance,
) (coreOut, tradeOut assets.Balance, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if liquidityToWithdraw == 0 {
		return 0, 0, fmt.Errorf("remove liquidity: %w", ErrZeroAmount)
	}

	key := e.key(assetID)
	accountLiquidity, err := e.pools.LiquidityBalance(key, provider)
	if err != nil {
		return 0, 0, err
	}
	if accountLiquidity < liquidityToWithdraw {
		return 0, 0, fmt.Errorf("remove liquidity: holding %d < requested %d: %w",
			accountLiquidity, liquidityToWithdraw, ErrInsufficientLiquidity)
	}
	totalLiquidity, err := e.pools.TotalLiquidity(key)
	if err != nil {
		return 0, 0, err
	}
	if totalLiquidity == 0 {
		return 0, 0, fmt.Errorf("remove liquidity: empty pool: %w", ErrInsufficientLiquidity)
	}

	coreReserve, tradeReserve := e.reserves(assetID)
	coreOut, err = mulDiv(liquidityToWithdraw, coreReserve, totalLiquidity)
	if err != nil {
		return 0, 0, err
	}
	tradeOut, err = mulDiv(liquidityToWithdraw, tradeReserve, totalLiquidity)
	if err != nil {
		return 0, 0, err
	}
	if coreOut < minCoreWithdraw {
		return 0, 0, fmt.Errorf("remove liquidity: core %d < minimum %d: %w",
			coreOut, minCoreWithdraw, ErrBelowMinimumWithdrawal)
	}
	if tradeOut < minAssetWithdraw {
		return 0, 0, fmt.Errorf("remove liquidity: trade %d < minimum %d: %w",
			tradeOut, minAssetWithdraw, ErrBelowMinimumWithdrawal)
	}

	escrow := e.ExchangeAddress(assetID)
	var transfers []assets.Transfer
	if coreOut > 0 {
		transfers = append(transfers, assets.Transfer{Asset: e.coreAsset, From: escrow, To: provider, Amount: coreOut})
	}
	if tradeOut > 0 {
		transfers = append(transfers, assets.Transfer{Asset: assetID, From: escrow, To: provider, Amount: tradeOut})
	}
	if len(transfers) > 0 {
		if err := e.ledger.ApplyAll(transfers); err != nil {
			return 0, 0, fmt.Errorf("remove liquidity: %w", err)
		}
	}

	if err := e.burnLiquidity(key, provider, liquidityToWithdraw); err != nil {
		return 0, 0, err
	}

	e.events.Publish(LiquidityRemoved{
		Provider:        provider,
		TradeAsset:      assetID,
		CoreAmount:      coreOut,
		TradeAmount:     tradeOut,
		LiquidityBurned: liquidityToWithdraw,
	})
	return coreOut, tradeOut, nil
}

// mintLiquidity credits shares to a provider and grows the total supply.
func (e *Exchange) mintLiquidity(key ExchangeKey, who assets.Address, increase assets.Balance) error {
	balance, err := e.pools.LiquidityBalance(key, who)
	if err != nil {
		return err
	}
	if err := e.pools.SetLiquidityBalance(key, who, saturatingAdd(balance, increase)); err != nil {
		return err
	}
	total, err := e.pools.TotalLiquidity(key)
	if err != nil {
		return err
	}
	return e.pools.SetTotalLiquidity(key, saturatingAdd(total, increase))
}

// burnLiquidity debits shares from a provider and shrinks the total supply.
// The caller has already verified the provider holds at least `decrease`.
func (e *Exchange) burnLiquidity(key ExchangeKey, who assets.Address, decrease assets.Balance) error {
	balance, err := e.pools.LiquidityBalance(key, who)
	if err != nil {
		return err
	}
	if decrease > balance {
		decrease = balance
	}
	if err := e.pools.SetLiquidityBalance(key, who, balance-decrease); err != nil {
		return err
	}
	total, err := e.pools.TotalLiquidity(key)
	if err != nil {
		return err
	}
	if decrease > total {
		decrease = total
	}
	return e.pools.SetTotalLiquidity(key, total-decrease)
}

func saturatingAdd(a, b assets.Balance) assets.Balance {
	sum := a + b
	if sum < a {
		return ^assets.Balance(0)
	}
	return sum
}

//
// Liquidity valuation (read paths)
//

// LiquidityValue is the redemption value of an amount of liquidity shares.
type LiquidityValue struct {
	Liquidity assets.Balance `json:"liquidity"`
	Core      assets.Balance `json:"core"`
	Asset     assets.Balance `json:"asset"`
}

// LiquidityPrice is the deposit required to mint an amount of liquidity.
type LiquidityPrice struct {
	Core  assets.Balance `json:"core"`
	Asset assets.Balance `json:"asset"`
}

// LiquidityValue returns the withdrawable value of `liquidity` shares in the
// pool for `assetID`. Requests above the total supply are clamped to it.
func (e *Exchange) LiquidityValue(assetID assets.AssetID, liquidity assets.Balance) (LiquidityValue, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.liquidityValue(assetID, liquidity)
}

// AccountLiquidityValue returns the withdrawable value of everything `who`
// holds in the pool for `assetID`.
func (e *Exchange) AccountLiquidityValue(who assets.Address, assetID assets.AssetID) (LiquidityValue, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	accountLiquidity, err := e.pools.LiquidityBalance(e.key(assetID), who)
	if err != nil {
		return LiquidityValue{}, err
	}
	return e.liquidityValue(assetID, accountLiquidity)
}

func (e *Exchange) liquidityValue(assetID assets.AssetID, liquidity assets.Balance) (LiquidityValue, error) {
	totalLiquidity, err := e.pools.TotalLiquidity(e.key(assetID))
	if err != nil {
		return LiquidityValue{}, err
	}
	if totalLiquidity == 0 {
		return LiquidityValue{}, nil
	}
	if liquidity > totalLiquidity {
		liquidity = totalLiquidity
	}
	coreReserve, tradeReserve := e.reserves(assetID)
	core, err := mulDiv(liquidity, coreReserve, totalLiquidity)
	if err != nil {
		return LiquidityValue{}, err
	}
	asset, err := mulDiv(liquidity, tradeReserve, totalLiquidity)
	if err != nil {
		return LiquidityValue{}, err
	}
	return LiquidityValue{Liquidity: liquidity, Core: core, Asset: asset}, nil
}

// LiquidityPrice returns the core and trade asset amounts required to mint
// `liquidityToBuy` shares. On an empty pool the investor sets the exchange
// rate, so the trade asset cost is reported as one unit.
func (e *Exchange) LiquidityPrice(assetID assets.AssetID, liquidityToBuy assets.Balance) (LiquidityPrice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	totalLiquidity, err := e.pools.TotalLiquidity(e.key(assetID))
	if err != nil {
		return LiquidityPrice{}, err
	}
	coreReserve, tradeReserve := e.reserves(assetID)
	if totalLiquidity == 0 || coreReserve == 0 {
		return LiquidityPrice{Core: liquidityToBuy, Asset: 1}, nil
	}

	core, err := mulDiv(liquidityToBuy, coreReserve, totalLiquidity)
	if err != nil {
		return LiquidityPrice{}, err
	}
	asset, err := mulDiv(core, tradeReserve, coreReserve)
	if err != nil {
		return LiquidityPrice{}, err
	}
	if asset+1 < asset {
		return LiquidityPrice{}, fmt.Errorf("liquidity price: %w", ErrOverflow)
	}
	return LiquidityPrice{Core: core, Asset: asset + 1}, nil
}

//
// Pricing (read paths)
//

// BuyPrice answers: to buy `amountToBuy` of `assetToBuy`, how much
// `assetToPay` does it cost? Non-core pairs are priced through the core asset.
func (e *Exchange) BuyPrice(assetToBuy assets.AssetID, amountToBuy assets.Balance, assetToPay assets.AssetID) (assets.Balance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buyPrice(assetToBuy, amountToBuy, assetToPay)
}

func (e *Exchange) buyPrice(assetToBuy assets.AssetID, amountToBuy assets.Balance, assetToPay assets.AssetID) (assets.Balance, error) {
	if assetToBuy == assetToPay {
		return 0, ErrSameAsset
	}

	coreAmount := amountToBuy
	if assetToBuy != e.coreAsset {
		var err error
		coreAmount, err = e.coreToAssetOutputPrice(assetToBuy, amountToBuy)
		if err != nil {
			return 0, err
		}
	}
	if assetToPay == e.coreAsset {
		return coreAmount, nil
	}
	return e.assetToCoreOutputPrice(assetToPay, coreAmount)
}

// SellPrice answers: selling `amountToSell` of `assetToSell`, how much
// `assetToPayout` comes back? Non-core pairs are priced through the core asset.
func (e *Exchange) SellPrice(assetToSell assets.AssetID, amountToSell assets.Balance, assetToPayout assets.AssetID) (assets.Balance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sellPrice(assetToSell, amountToSell, assetToPayout)
}

func (e *Exchange) sellPrice(assetToSell assets.AssetID, amountToSell assets.Balance, assetToPayout assets.AssetID) (assets.Balance, error) {
	if assetToSell == assetToPayout {
		return 0, ErrSameAsset
	}

	coreAmount := amountToSell
	if assetToSell != e.coreAsset {
		var err error
		coreAmount, err = e.assetToCoreInputPrice(assetToSell, amountToSell)
		if err != nil {
			return 0, err
		}
	}
	if assetToPayout == e.coreAsset {
		return coreAmount, nil
	}
	return e.coreToAssetInputPrice(assetToPayout, coreAmount)
}

// assetToCoreOutputPrice: trade asset needed to buy `buyAmount` of core.
func (e *Exchange) assetToCoreOutputPrice(assetID assets.AssetID, buyAmount assets.Balance) (assets.Balance, error) {
	if buyAmount == 0 {
		return 0, fmt.Errorf("buy amount: %w", ErrZeroAmount)
	}
	coreReserve, tradeReserve := e.reserves(assetID)
	return OutputPrice(buyAmount, tradeReserve, coreReserve, e.feeRate)
}

// coreToAssetOutputPrice: core needed to buy `buyAmount` of the trade asset.
func (e *Exchange) coreToAssetOutputPrice(assetID assets.AssetID, buyAmount assets.Balance) (assets.Balance, error) {
	if buyAmount == 0 {
		return 0, fmt.Errorf("buy amount: %w", ErrZeroAmount)
	}
	coreReserve, tradeReserve := e.reserves(assetID)
	return OutputPrice(buyAmount, coreReserve, tradeReserve, e.feeRate)
}

// assetToCoreInputPrice: core received for selling `sellAmount` of trade asset.
func (e *Exchange) assetToCoreInputPrice(assetID assets.AssetID, sellAmount assets.Balance) (assets.Balance, error) {
	if sellAmount == 0 {
		return 0, fmt.Errorf("sell amount: %w", ErrZeroAmount)
	}
	coreReserve, tradeReserve := e.reserves(assetID)
	return InputPrice(sellAmount, tradeReserve, coreReserve, e.feeRate)
}

// coreToAssetInputPrice: trade asset received for selling `sellAmount` of core.
func (e *Exchange) coreToAssetInputPrice(assetID assets.AssetID, sellAmount assets.Balance) (assets.Balance, error) {
	if sellAmount == 0 {
		return 0, fmt.Errorf("sell amount: %w", ErrZeroAmount)
	}
	coreReserve, tradeReserve := e.reserves(assetID)
	return InputPrice(sellAmount, coreReserve, tradeReserve, e.feeRate)
}

//
// Trading
//

// BuyAsset buys an exact `buyAmount` of `assetToBuy`, paying at most
// `maximumSell` of `assetToSell`. The bought amount is delivered to
// `recipient`. Returns the amount actually sold.
func (e *Exchange) BuyAsset(
	trader, recipient assets.Address,
	assetToSell, assetToBuy assets.AssetID,
	buyAmount assets.Balance,
	maximumSell assets.Balance,
) (assets.Balance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	amountToSell, err := e.buyPrice(assetToBuy, buyAmount, assetToSell)
	if err != nil {
		return 0, err
	}
	if amountToSell > maximumSell {
		return 0, fmt.Errorf("buy asset: cost %d > maximum %d: %w", amountToSell, maximumSell, ErrSlippageExceeded)
	}
	if e.ledger.Balance(assetToSell, trader) < amountToSell {
		return 0, fmt.Errorf("buy asset: %w", ErrInsufficientBalance)
	}

	if err := e.executeTrade(trader, recipient, assetToSell, assetToBuy, amountToSell, buyAmount); err != nil {
		return 0, err
	}

	e.events.Publish(AssetBought{
		AssetSold:    assetToSell,
		AssetBought:  assetToBuy,
		Trader:       trader,
		SoldAmount:   amountToSell,
		BoughtAmount: buyAmount,
	})
	return amountToSell, nil
}

// SellAsset sells an exact `sellAmount` of `assetToSell` for at least
// `minimumBuy` of `assetToBuy`, delivered to `recipient`. Returns the amount
// actually bought.
func (e *Exchange) SellAsset(
	trader, recipient assets.Address,
	assetToSell, assetToBuy assets.AssetID,
	sellAmount assets.Balance,
	minimumBuy assets.Balance,
) (assets.Balance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ledger.Balance(assetToSell, trader) < sellAmount {
		return 0, fmt.Errorf("sell asset: %w", ErrInsufficientBalance)
	}
	amountToBuy, err := e.sellPrice(assetToSell, sellAmount, assetToBuy)
	if err != nil {
		return 0, err
	}
	if amountToBuy < minimumBuy {
		return 0, fmt.Errorf("sell asset: proceeds %d < minimum %d: %w", amountToBuy, minimumBuy, ErrSlippageExceeded)
	}

	if err := e.executeTrade(trader, recipient, assetToSell, assetToBuy, sellAmount, amountToBuy); err != nil {
		return 0, err
	}

	e.events.Publish(AssetSold{
		AssetSold:    assetToSell,
		AssetBought:  assetToBuy,
		Trader:       trader,
		SoldAmount:   sellAmount,
		BoughtAmount: amountToBuy,
	})
	return amountToBuy, nil
}

// executeTrade settles a priced trade. A core↔trade pair touches one pool;
// any other pair is routed through both pools with the intermediate core leg
// moved pool-to-pool. All transfers commit atomically.
func (e *Exchange) executeTrade(
	trader, recipient assets.Address,
	assetToSell, assetToBuy assets.AssetID,
	amountToSell, amountToBuy assets.Balance,
) error {
	if assetToSell == e.coreAsset || assetToBuy == e.coreAsset {
		var escrow assets.Address
		if assetToBuy == e.coreAsset {
			escrow = e.ExchangeAddress(assetToSell)
		} else {
			escrow = e.ExchangeAddress(assetToBuy)
		}
		return e.ledger.ApplyAll([]assets.Transfer{
			{Asset: assetToSell, From: trader, To: escrow, Amount: amountToSell},
			{Asset: assetToBuy, From: escrow, To: recipient, Amount: amountToBuy},
		})
	}

	escrowA := e.ExchangeAddress(assetToSell)
	escrowB := e.ExchangeAddress(assetToBuy)
	coreAmount, err := e.assetToCoreInputPrice(assetToSell, amountToSell)
	if err != nil {
		return err
	}
	return e.ledger.ApplyAll([]assets.Transfer{
		{Asset: assetToSell, From: trader, To: escrowA, Amount: amountToSell},
		{Asset: e.coreAsset, From: escrowA, To: escrowB, Amount: coreAmount},
		{Asset: assetToBuy, From: escrowB, To: recipient, Amount: amountToBuy},
	})
}
