package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cennznet/cennzx-go/internal/core/assets"
	"github.com/cennznet/cennzx-go/internal/core/exchange"
	"github.com/cennznet/cennzx-go/internal/storage/relationaldb"
)

const defaultTradeLimit = 50

type methodFunc func(ctx context.Context, params json.RawMessage) (interface{}, *Error)

// Handler dispatches exchange JSON-RPC methods.
type Handler struct {
	exchange *exchange.Exchange
	ledger   assets.Ledger
	history  relationaldb.Store // nil when history is disabled
	methods  map[string]methodFunc
}

// NewHandler wires all cennzx_* methods. history may be nil; the trade query
// methods then report an error.
func NewHandler(ex *exchange.Exchange, ledger assets.Ledger, history relationaldb.Store) *Handler {
	h := &Handler{
		exchange: ex,
		ledger:   ledger,
		history:  history,
	}
	h.methods = map[string]methodFunc{
		"cennzx_ping":             h.ping,
		"cennzx_feeRate":          h.feeRate,
		"cennzx_buyPrice":         h.buyPrice,
		"cennzx_sellPrice":        h.sellPrice,
		"cennzx_poolState":        h.poolState,
		"cennzx_balance":          h.balance,
		"cennzx_liquidityValue":   h.liquidityValue,
		"cennzx_liquidityPrice":   h.liquidityPrice,
		"cennzx_buyAsset":         h.buyAsset,
		"cennzx_sellAsset":        h.sellAsset,
		"cennzx_addLiquidity":     h.addLiquidity,
		"cennzx_removeLiquidity":  h.removeLiquidity,
		"cennzx_setFeeRate":       h.setFeeRate,
		"cennzx_recentTrades":     h.recentTrades,
		"cennzx_liquidityChanges": h.liquidityChanges,
	}
	return h
}

// Handle dispatches one method call.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (interface{}, *Error) {
	fn, ok := h.methods[method]
	if !ok {
		return nil, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", method)}
	}
	return fn(ctx, params)
}

func decodeParams[T any](params json.RawMessage) (T, *Error) {
	var out T
	if len(params) == 0 {
		return out, &Error{Code: CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(params, &out); err != nil {
		return out, &Error{Code: CodeInvalidParams, Message: "invalid params: " + err.Error()}
	}
	return out, nil
}

func decodeAddress(raw string) (assets.Address, *Error) {
	addr, err := assets.AddressFromHex(raw)
	if err != nil {
		return assets.Address{}, &Error{Code: CodeInvalidParams, Message: "invalid address: " + err.Error()}
	}
	return addr, nil
}

// exchangeError maps engine failures onto the server error range, keeping the
// sentinel text visible to clients.
func exchangeError(err error) *Error {
	return &Error{Code: CodeExchangeError, Message: err.Error()}
}

func (h *Handler) ping(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	return map[string]string{"status": "ok"}, nil
}

func (h *Handler) feeRate(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	rate := h.exchange.FeeRate()
	return FeeRateResult{Parts: rate.Parts(), Scale: uint64(rate.Scale())}, nil
}

func (h *Handler) buyPrice(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	p, rpcErr := decodeParams[BuyPriceParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	price, err := h.exchange.BuyPrice(assets.AssetID(p.AssetToBuy), p.Amount, assets.AssetID(p.AssetToPay))
	if err != nil {
		return nil, exchangeError(err)
	}
	return PriceResult{Price: price}, nil
}

func (h *Handler) sellPrice(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	p, rpcErr := decodeParams[SellPriceParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	price, err := h.exchange.SellPrice(assets.AssetID(p.AssetToSell), p.Amount, assets.AssetID(p.AssetToPayout))
	if err != nil {
		return nil, exchangeError(err)
	}
	return PriceResult{Price: price}, nil
}

func (h *Handler) poolState(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	p, rpcErr := decodeParams[PoolStateParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	state, err := h.exchange.PoolState(assets.AssetID(p.TradeAsset))
	if err != nil {
		return nil, exchangeError(err)
	}
	return state, nil
}

func (h *Handler) balance(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	p, rpcErr := decodeParams[BalanceParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := decodeAddress(p.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	return BalanceResult{Balance: h.ledger.Balance(assets.AssetID(p.Asset), addr)}, nil
}

func (h *Handler) liquidityValue(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	p, rpcErr := decodeParams[LiquidityValueParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var (
		value exchange.LiquidityValue
		err   error
	)
	if p.Address != "" {
		addr, rpcErr := decodeAddress(p.Address)
		if rpcErr != nil {
			return nil, rpcErr
		}
		value, err = h.exchange.AccountLiquidityValue(addr, assets.AssetID(p.TradeAsset))
	} else {
		value, err = h.exchange.LiquidityValue(assets.AssetID(p.TradeAsset), p.Liquidity)
	}
	if err != nil {
		return nil, exchangeError(err)
	}
	return value, nil
}

func (h *Handler) liquidityPrice(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	p, rpcErr := decodeParams[LiquidityPriceParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	price, err := h.exchange.LiquidityPrice(assets.AssetID(p.TradeAsset), p.LiquidityToBuy)
	if err != nil {
		return nil, exchangeError(err)
	}
	return price, nil
}

func (h *Handler) buyAsset(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	p, rpcErr := decodeParams[BuyAssetParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	trader, rpcErr := decodeAddress(p.Trader)
	if rpcErr != nil {
		return nil, rpcErr
	}
	recipient := trader
	if p.Recipient != "" {
		if recipient, rpcErr = decodeAddress(p.Recipient); rpcErr != nil {
			return nil, rpcErr
		}
	}
	sold, err := h.exchange.BuyAsset(trader, recipient,
		assets.AssetID(p.AssetToSell), assets.AssetID(p.AssetToBuy), p.BuyAmount, p.MaximumSell)
	if err != nil {
		return nil, exchangeError(err)
	}
	return SwapResult{SoldAmount: sold, BoughtAmount: p.BuyAmount}, nil
}

func (h *Handler) sellAsset(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	p, rpcErr := decodeParams[SellAssetParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	trader, rpcErr := decodeAddress(p.Trader)
	if rpcErr != nil {
		return nil, rpcErr
	}
	recipient := trader
	if p.Recipient != "" {
		if recipient, rpcErr = decodeAddress(p.Recipient); rpcErr != nil {
			return nil, rpcErr
		}
	}
	bought, err := h.exchange.SellAsset(trader, recipient,
		assets.AssetID(p.AssetToSell), assets.AssetID(p.AssetToBuy), p.SellAmount, p.MinimumBuy)
	if err != nil {
		return nil, exchangeError(err)
	}
	return SwapResult{SoldAmount: p.SellAmount, BoughtAmount: bought}, nil
}

func (h *Handler) addLiquidity(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	p, rpcErr := decodeParams[AddLiquidityParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	provider, rpcErr := decodeAddress(p.Provider)
	if rpcErr != nil {
		return nil, rpcErr
	}
	minted, err := h.exchange.AddLiquidity(provider,
		assets.AssetID(p.TradeAsset), p.MinLiquidity, p.MaxAssetAmount, p.CoreAmount)
	if err != nil {
		return nil, exchangeError(err)
	}
	return AddLiquidityResult{LiquidityMinted: minted}, nil
}

func (h *Handler) removeLiquidity(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	p, rpcErr := decodeParams[RemoveLiquidityParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	provider, rpcErr := decodeAddress(p.Provider)
	if rpcErr != nil {
		return nil, rpcErr
	}
	coreOut, assetOut, err := h.exchange.RemoveLiquidity(provider,
		assets.AssetID(p.TradeAsset), p.Liquidity, p.MinAssetWithdraw, p.MinCoreWithdraw)
	if err != nil {
		return nil, exchangeError(err)
	}
	return RemoveLiquidityResult{CoreWithdrawn: coreOut, AssetWithdrawn: assetOut}, nil
}

func (h *Handler) setFeeRate(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	p, rpcErr := decodeParams[SetFeeRateParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	rate, err := exchange.NewFeeRate(p.Parts, exchange.Scale(p.Scale))
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
	}
	if err := h.exchange.SetFeeRate(rate); err != nil {
		return nil, exchangeError(err)
	}
	active := h.exchange.FeeRate()
	return FeeRateResult{Parts: active.Parts(), Scale: uint64(active.Scale())}, nil
}

func (h *Handler) recentTrades(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	if h.history == nil {
		return nil, &Error{Code: CodeExchangeError, Message: "trade history is disabled"}
	}

	p := RecentTradesParams{Limit: defaultTradeLimit}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &Error{Code: CodeInvalidParams, Message: "invalid params: " + err.Error()}
		}
	}
	if p.Limit <= 0 {
		p.Limit = defaultTradeLimit
	}

	var (
		trades []relationaldb.TradeRecord
		err    error
	)
	if p.Trader != "" {
		addr, rpcErr := decodeAddress(p.Trader)
		if rpcErr != nil {
			return nil, rpcErr
		}
		trades, err = h.history.TradesByTrader(ctx, addr, p.Limit)
	} else {
		trades, err = h.history.RecentTrades(ctx, p.Limit)
	}
	if err != nil {
		if errors.Is(err, relationaldb.ErrInvalidLimit) {
			return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
		}
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	if trades == nil {
		trades = []relationaldb.TradeRecord{}
	}
	return trades, nil
}

func (h *Handler) liquidityChanges(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	if h.history == nil {
		return nil, &Error{Code: CodeExchangeError, Message: "trade history is disabled"}
	}

	p, rpcErr := decodeParams[LiquidityChangesParams](params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if p.Limit <= 0 {
		p.Limit = defaultTradeLimit
	}

	changes, err := h.history.LiquidityChanges(ctx, assets.AssetID(p.TradeAsset), p.Limit)
	if err != nil {
		if errors.Is(err, relationaldb.ErrInvalidLimit) {
			return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
		}
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	if changes == nil {
		changes = []relationaldb.LiquidityRecord{}
	}
	return changes, nil
}
