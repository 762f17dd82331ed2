package exchange

import (
	"sync"

	"github.com/cennznet/cennzx-go/internal/core/assets"
)

// ExchangeKey identifies one pool: every pool pairs the core asset with a
// single trade asset.
type ExchangeKey struct {
	CoreAsset  assets.AssetID
	TradeAsset assets.AssetID
}

// PoolStore persists the liquidity bookkeeping of all pools: the total share
// supply per pool and each provider's share balance. Reserves are not stored
// here; they are the ledger balances of the pool's escrow address.
//
// Invariant: for every pool, the sum of all provider balances equals the
// pool's total liquidity.
type PoolStore interface {
	TotalLiquidity(key ExchangeKey) (assets.Balance, error)
	SetTotalLiquidity(key ExchangeKey, total assets.Balance) error
	LiquidityBalance(key ExchangeKey, who assets.Address) (assets.Balance, error)
	SetLiquidityBalance(key ExchangeKey, who assets.Address, balance assets.Balance) error
}

type positionKey struct {
	key ExchangeKey
	who assets.Address
}

// MemoryPoolStore is a map-backed PoolStore for tests and ephemeral nodes.
type MemoryPoolStore struct {
	mu        sync.RWMutex
	totals    map[ExchangeKey]assets.Balance
	positions map[positionKey]assets.Balance
}

// NewMemoryPoolStore creates an empty in-memory pool store.
func NewMemoryPoolStore() *MemoryPoolStore {
	return &MemoryPoolStore{
		totals:    make(map[ExchangeKey]assets.Balance),
		positions: make(map[positionKey]assets.Balance),
	}
}

func (s *MemoryPoolStore) TotalLiquidity(key ExchangeKey) (assets.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals[key], nil
}

func (s *MemoryPoolStore) SetTotalLiquidity(key ExchangeKey, total assets.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if total == 0 {
		delete(s.totals, key)
		return nil
	}
	s.totals[key] = total
	return nil
}

func (s *MemoryPoolStore) LiquidityBalance(key ExchangeKey, who assets.Address) (assets.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.positions[positionKey{key, who}], nil
}

func (s *MemoryPoolStore) SetLiquidityBalance(key ExchangeKey, who assets.Address, balance assets.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pk := positionKey{key, who}
	if balance == 0 {
		delete(s.positions, pk)
		return nil
	}
	s.positions[pk] = balance
	return nil
}
