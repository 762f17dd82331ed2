package relationaldb

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cennznet/cennzx-go/internal/core/exchange"
)

// Recorder drains an exchange event stream into a history store.
type Recorder struct {
	store  Store
	logger *zap.Logger
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store Store, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{store: store, logger: logger}
}

// Run consumes events until the channel closes or ctx is cancelled. Insert
// failures are logged and skipped; history must never stall the exchange.
func (r *Recorder) Run(ctx context.Context, events <-chan exchange.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := r.record(ctx, event); err != nil {
				r.logger.Error("failed to record exchange event",
					zap.String("event", event.EventName()), zap.Error(err))
			}
		}
	}
}

func (r *Recorder) record(ctx context.Context, event exchange.Event) error {
	now := time.Now().UTC()
	switch ev := event.(type) {
	case exchange.AssetBought:
		return r.store.InsertTrade(ctx, TradeRecord{
			Kind:         "buy",
			Trader:       ev.Trader,
			AssetSold:    ev.AssetSold,
			AssetBought:  ev.AssetBought,
			SoldAmount:   ev.SoldAmount,
			BoughtAmount: ev.BoughtAmount,
			ExecutedAt:   now,
		})
	case exchange.AssetSold:
		return r.store.InsertTrade(ctx, TradeRecord{
			Kind:         "sell",
			Trader:       ev.Trader,
			AssetSold:    ev.AssetSold,
			AssetBought:  ev.AssetBought,
			SoldAmount:   ev.SoldAmount,
			BoughtAmount: ev.BoughtAmount,
			ExecutedAt:   now,
		})
	case exchange.LiquidityAdded:
		return r.store.InsertLiquidityChange(ctx, LiquidityRecord{
			Kind:        "add",
			Provider:    ev.Provider,
			TradeAsset:  ev.TradeAsset,
			CoreAmount:  ev.CoreAmount,
			AssetAmount: ev.TradeAmount,
			Liquidity:   ev.LiquidityMinted,
			ExecutedAt:  now,
		})
	case exchange.LiquidityRemoved:
		return r.store.InsertLiquidityChange(ctx, LiquidityRecord{
			Kind:        "remove",
			Provider:    ev.Provider,
			TradeAsset:  ev.TradeAsset,
			CoreAmount:  ev.CoreAmount,
			AssetAmount: ev.TradeAmount,
			Liquidity:   ev.LiquidityBurned,
			ExecutedAt:  now,
		})
	default:
		return nil
	}
}
