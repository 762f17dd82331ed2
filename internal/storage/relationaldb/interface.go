// Package relationaldb records settled exchange activity for query APIs.
// Execution never depends on it; recording is strictly after the fact.
package relationaldb

import (
	"context"
	"errors"
	"time"

	"github.com/cennznet/cennzx-go/internal/core/assets"
)

var (
	// ErrDatabaseClosed is returned when operating on a closed history store
	ErrDatabaseClosed = errors.New("history database is closed")

	// ErrInvalidLimit is returned for non-positive query limits
	ErrInvalidLimit = errors.New("query limit must be positive")
)

// TradeRecord is one settled swap.
type TradeRecord struct {
	ID           int64          `json:"id"`
	Kind         string         `json:"kind"` // "buy" or "sell"
	Trader       assets.Address `json:"trader"`
	AssetSold    assets.AssetID `json:"asset_sold"`
	AssetBought  assets.AssetID `json:"asset_bought"`
	SoldAmount   assets.Balance `json:"sold_amount"`
	BoughtAmount assets.Balance `json:"bought_amount"`
	ExecutedAt   time.Time      `json:"executed_at"`
}

// LiquidityRecord is one liquidity deposit or withdrawal.
type LiquidityRecord struct {
	ID          int64          `json:"id"`
	Kind        string         `json:"kind"` // "add" or "remove"
	Provider    assets.Address `json:"provider"`
	TradeAsset  assets.AssetID `json:"trade_asset"`
	CoreAmount  assets.Balance `json:"core_amount"`
	AssetAmount assets.Balance `json:"asset_amount"`
	Liquidity   assets.Balance `json:"liquidity"`
	ExecutedAt  time.Time      `json:"executed_at"`
}

// Store persists and queries exchange history.
type Store interface {
	InsertTrade(ctx context.Context, record TradeRecord) error
	InsertLiquidityChange(ctx context.Context, record LiquidityRecord) error

	// RecentTrades returns up to limit trades, newest first.
	RecentTrades(ctx context.Context, limit int) ([]TradeRecord, error)

	// TradesByTrader returns up to limit trades by one account, newest first.
	TradesByTrader(ctx context.Context, trader assets.Address, limit int) ([]TradeRecord, error)

	// LiquidityChanges returns up to limit liquidity events for one pool,
	// newest first.
	LiquidityChanges(ctx context.Context, tradeAsset assets.AssetID, limit int) ([]LiquidityRecord, error)

	Close() error
}
