package exchange

import (
	"sync"

	"github.com/cennznet/cennzx-go/internal/core/assets"
)

// Event is a notification emitted after an exchange operation commits.
type Event interface {
	EventName() string
}

// AssetBought is emitted when an exact-output trade settles.
type AssetBought struct {
	AssetSold    assets.AssetID `json:"asset_sold"`
	AssetBought  assets.AssetID `json:"asset_bought"`
	Trader       assets.Address `json:"trader"`
	SoldAmount   assets.Balance `json:"sold_amount"`
	BoughtAmount assets.Balance `json:"bought_amount"`
}

func (AssetBought) EventName() string { return "AssetBought" }

// AssetSold is emitted when an exact-input trade settles.
type AssetSold struct {
	AssetSold    assets.AssetID `json:"asset_sold"`
	AssetBought  assets.AssetID `json:"asset_bought"`
	Trader       assets.Address `json:"trader"`
	SoldAmount   assets.Balance `json:"sold_amount"`
	BoughtAmount assets.Balance `json:"bought_amount"`
}

func (AssetSold) EventName() string { return "AssetSold" }

// LiquidityAdded is emitted when a provider deposits into a pool.
type LiquidityAdded struct {
	Provider        assets.Address `json:"provider"`
	TradeAsset      assets.AssetID `json:"trade_asset"`
	CoreAmount      assets.Balance `json:"core_amount"`
	TradeAmount     assets.Balance `json:"trade_amount"`
	LiquidityMinted assets.Balance `json:"liquidity_minted"`
}

func (LiquidityAdded) EventName() string { return "LiquidityAdded" }

// LiquidityRemoved is emitted when a provider withdraws from a pool.
type LiquidityRemoved struct {
	Provider        assets.Address `json:"provider"`
	TradeAsset      assets.AssetID `json:"trade_asset"`
	CoreAmount      assets.Balance `json:"core_amount"`
	TradeAmount     assets.Balance `json:"trade_amount"`
	LiquidityBurned assets.Balance `json:"liquidity_burned"`
}

func (LiquidityRemoved) EventName() string { return "LiquidityRemoved" }

// Bus fans exchange events out to subscribers. Publishing never blocks the
// exchange: events to a subscriber with a full buffer are dropped.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// NewBus creates an event bus with no subscribers.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a buffered subscription. The returned cancel function
// removes the subscription and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers an event to all current subscribers.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Slow subscriber; drop rather than stall settlement.
		}
	}
}

// Close tears down all subscriptions.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
