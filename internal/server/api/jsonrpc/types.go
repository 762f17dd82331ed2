package jsonrpc

import (
	"encoding/json"
)

// Request represents a JSON-RPC 2.0 request
type Request struct {
	JsonRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id"`
}

// Response represents a JSON-RPC 2.0 response
type Response struct {
	JsonRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error represents a JSON-RPC 2.0 error object
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON-RPC 2.0 error codes, plus one server range code for exchange failures.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeExchangeError  = -32000
)

// BuyPriceParams asks the cost of buying an exact amount.
type BuyPriceParams struct {
	AssetToBuy uint32 `json:"asset_to_buy"`
	Amount     uint64 `json:"amount"`
	AssetToPay uint32 `json:"asset_to_pay"`
}

// SellPriceParams asks the proceeds of selling an exact amount.
type SellPriceParams struct {
	AssetToSell   uint32 `json:"asset_to_sell"`
	Amount        uint64 `json:"amount"`
	AssetToPayout uint32 `json:"asset_to_payout"`
}

// PriceResult carries a single priced amount.
type PriceResult struct {
	Price uint64 `json:"price"`
}

// PoolStateParams identifies a pool by its trade asset.
type PoolStateParams struct {
	TradeAsset uint32 `json:"trade_asset"`
}

// BalanceParams asks an account's balance of one asset.
type BalanceParams struct {
	Asset   uint32 `json:"asset"`
	Address string `json:"address"`
}

// BalanceResult carries one account balance.
type BalanceResult struct {
	Balance uint64 `json:"balance"`
}

// LiquidityValueParams values liquidity shares, either a stated amount or an
// account's full holding when Address is set.
type LiquidityValueParams struct {
	TradeAsset uint32 `json:"trade_asset"`
	Liquidity  uint64 `json:"liquidity,omitempty"`
	Address    string `json:"address,omitempty"`
}

// LiquidityPriceParams asks the deposit needed to mint liquidity.
type LiquidityPriceParams struct {
	TradeAsset     uint32 `json:"trade_asset"`
	LiquidityToBuy uint64 `json:"liquidity_to_buy"`
}

// BuyAssetParams executes an exact-output swap.
type BuyAssetParams struct {
	Trader      string `json:"trader"`
	Recipient   string `json:"recipient,omitempty"`
	AssetToSell uint32 `json:"asset_to_sell"`
	AssetToBuy  uint32 `json:"asset_to_buy"`
	BuyAmount   uint64 `json:"buy_amount"`
	MaximumSell uint64 `json:"maximum_sell"`
}

// SellAssetParams executes an exact-input swap.
type SellAssetParams struct {
	Trader      string `json:"trader"`
	Recipient   string `json:"recipient,omitempty"`
	AssetToSell uint32 `json:"asset_to_sell"`
	AssetToBuy  uint32 `json:"asset_to_buy"`
	SellAmount  uint64 `json:"sell_amount"`
	MinimumBuy  uint64 `json:"minimum_buy"`
}

// SwapResult reports both legs of a settled swap.
type SwapResult struct {
	SoldAmount   uint64 `json:"sold_amount"`
	BoughtAmount uint64 `json:"bought_amount"`
}

// AddLiquidityParams deposits into a pool.
type AddLiquidityParams struct {
	Provider       string `json:"provider"`
	TradeAsset     uint32 `json:"trade_asset"`
	MinLiquidity   uint64 `json:"min_liquidity"`
	MaxAssetAmount uint64 `json:"max_asset_amount"`
	CoreAmount     uint64 `json:"core_amount"`
}

// AddLiquidityResult reports minted shares.
type AddLiquidityResult struct {
	LiquidityMinted uint64 `json:"liquidity_minted"`
}

// RemoveLiquidityParams withdraws from a pool.
type RemoveLiquidityParams struct {
	Provider         string `json:"provider"`
	TradeAsset       uint32 `json:"trade_asset"`
	Liquidity        uint64 `json:"liquidity"`
	MinAssetWithdraw uint64 `json:"min_asset_withdraw"`
	MinCoreWithdraw  uint64 `json:"min_core_withdraw"`
}

// RemoveLiquidityResult reports withdrawn amounts.
type RemoveLiquidityResult struct {
	CoreWithdrawn  uint64 `json:"core_withdrawn"`
	AssetWithdrawn uint64 `json:"asset_withdrawn"`
}

// SetFeeRateParams replaces the exchange fee rate.
type SetFeeRateParams struct {
	Parts uint64 `json:"parts"`
	Scale uint64 `json:"scale"`
}

// FeeRateResult reports the active fee rate.
type FeeRateResult struct {
	Parts uint64 `json:"parts"`
	Scale uint64 `json:"scale"`
}

// RecentTradesParams pages through settled trades.
type RecentTradesParams struct {
	Limit  int    `json:"limit,omitempty"`
	Trader string `json:"trader,omitempty"`
}

// LiquidityChangesParams pages through one pool's liquidity history.
type LiquidityChangesParams struct {
	TradeAsset uint32 `json:"trade_asset"`
	Limit      int    `json:"limit,omitempty"`
}
