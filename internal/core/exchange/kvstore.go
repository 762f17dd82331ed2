package exchange

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cennznet/cennzx-go/internal/core/assets"
	"github.com/cennznet/cennzx-go/internal/storage/keyValueDb"
)

// Key layout inside the pool keyValueDb. All integers are big-endian so that
// iteration order follows (core asset, trade asset).
//
//	t/<core:4><trade:4>             -> total liquidity (8 bytes)
//	b/<core:4><trade:4><address:32> -> provider share balance (8 bytes)
const (
	totalPrefix   = "t/"
	balancePrefix = "b/"
)

// KVPoolStore is a PoolStore persisted in a keyValueDb, with an LRU cache in
// front of reads. Absent keys read as zero; zero writes delete the key.
type KVPoolStore struct {
	db    keyValueDb.DB
	cache *lru.Cache[string, assets.Balance]
}

// NewKVPoolStore wraps a keyValueDb as a pool store. cacheSize bounds the
// number of hot entries kept in memory.
func NewKVPoolStore(db keyValueDb.DB, cacheSize int) (*KVPoolStore, error) {
	cache, err := lru.New[string, assets.Balance](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("pool store cache: %w", err)
	}
	return &KVPoolStore{db: db, cache: cache}, nil
}

func totalKey(key ExchangeKey) []byte {
	buf := make([]byte, 0, len(totalPrefix)+8)
	buf = append(buf, totalPrefix...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(key.CoreAsset))
	buf = binary.BigEndian.AppendUint32(buf, uint32(key.TradeAsset))
	return buf
}

func balanceKey(key ExchangeKey, who assets.Address) []byte {
	buf := make([]byte, 0, len(balancePrefix)+8+len(who))
	buf = append(buf, balancePrefix...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(key.CoreAsset))
	buf = binary.BigEndian.AppendUint32(buf, uint32(key.TradeAsset))
	buf = append(buf, who[:]...)
	return buf
}

func (s *KVPoolStore) read(dbKey []byte) (assets.Balance, error) {
	if cached, ok := s.cache.Get(string(dbKey)); ok {
		return cached, nil
	}
	raw, err := s.db.Read(context.Background(), dbKey)
	if err != nil {
		if errors.Is(err, keyValueDb.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("pool store read: %w", err)
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("pool store read: malformed value of %d bytes", len(raw))
	}
	value := binary.BigEndian.Uint64(raw)
	s.cache.Add(string(dbKey), value)
	return value, nil
}

func (s *KVPoolStore) write(dbKey []byte, value assets.Balance) error {
	if value == 0 {
		if err := s.db.Delete(context.Background(), dbKey); err != nil {
			return fmt.Errorf("pool store delete: %w", err)
		}
		s.cache.Remove(string(dbKey))
		return nil
	}
	raw := binary.BigEndian.AppendUint64(nil, value)
	if err := s.db.Write(context.Background(), dbKey, raw); err != nil {
		return fmt.Errorf("pool store write: %w", err)
	}
	s.cache.Add(string(dbKey), value)
	return nil
}

func (s *KVPoolStore) TotalLiquidity(key ExchangeKey) (assets.Balance, error) {
	return s.read(totalKey(key))
}

func (s *KVPoolStore) SetTotalLiquidity(key ExchangeKey, total assets.Balance) error {
	return s.write(totalKey(key), total)
}

func (s *KVPoolStore) LiquidityBalance(key ExchangeKey, who assets.Address) (assets.Balance, error) {
	return s.read(balanceKey(key, who))
}

func (s *KVPoolStore) SetLiquidityBalance(key ExchangeKey, who assets.Address, balance assets.Balance) error {
	return s.write(balanceKey(key, who), balance)
}

// Providers lists every address holding shares in the pool. Used by read APIs
// only; trading never iterates.
func (s *KVPoolStore) Providers(key ExchangeKey) ([]assets.Address, error) {
	prefix := balanceKey(key, assets.Address{})
	start := prefix[:len(balancePrefix)+8]
	end := prefixEnd(start)

	iter, err := s.db.Iterator(context.Background(), start, end)
	if err != nil {
		return nil, fmt.Errorf("pool store iterate: %w", err)
	}
	defer iter.Close()

	var providers []assets.Address
	for iter.Next() {
		k := iter.Key()
		if len(k) != len(balancePrefix)+8+32 {
			continue
		}
		var who assets.Address
		copy(who[:], k[len(balancePrefix)+8:])
		providers = append(providers, who)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("pool store iterate: %w", err)
	}
	return providers, nil
}

// prefixEnd returns the smallest key strictly greater than every key with the
// given prefix, or nil when no such bound exists.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
