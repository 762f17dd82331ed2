// Package sqlite backs the history store with an embedded sqlite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cennznet/cennzx-go/internal/core/assets"
	"github.com/cennznet/cennzx-go/internal/storage/relationaldb"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	kind           TEXT    NOT NULL,
	trader         TEXT    NOT NULL,
	asset_sold     INTEGER NOT NULL,
	asset_bought   INTEGER NOT NULL,
	sold_amount    INTEGER NOT NULL,
	bought_amount  INTEGER NOT NULL,
	executed_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_trader ON trades(trader, id DESC);

CREATE TABLE IF NOT EXISTS liquidity_changes (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	kind          TEXT    NOT NULL,
	provider      TEXT    NOT NULL,
	trade_asset   INTEGER NOT NULL,
	core_amount   INTEGER NOT NULL,
	asset_amount  INTEGER NOT NULL,
	liquidity     INTEGER NOT NULL,
	executed_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_liquidity_asset ON liquidity_changes(trade_asset, id DESC);
`

// Store implements relationaldb.Store over modernc.org/sqlite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at path. Use ":memory:" for an
// ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// sqlite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) InsertTrade(ctx context.Context, record relationaldb.TradeRecord) error {
	if s.db == nil {
		return relationaldb.ErrDatabaseClosed
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trades (kind, trader, asset_sold, asset_bought, sold_amount, bought_amount, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.Kind,
		record.Trader.String(),
		int64(record.AssetSold),
		int64(record.AssetBought),
		int64(record.SoldAmount),
		int64(record.BoughtAmount),
		record.ExecutedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

func (s *Store) InsertLiquidityChange(ctx context.Context, record relationaldb.LiquidityRecord) error {
	if s.db == nil {
		return relationaldb.ErrDatabaseClosed
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO liquidity_changes (kind, provider, trade_asset, core_amount, asset_amount, liquidity, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.Kind,
		record.Provider.String(),
		int64(record.TradeAsset),
		int64(record.CoreAmount),
		int64(record.AssetAmount),
		int64(record.Liquidity),
		record.ExecutedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert liquidity change: %w", err)
	}
	return nil
}

func (s *Store) RecentTrades(ctx context.Context, limit int) ([]relationaldb.TradeRecord, error) {
	return s.queryTrades(ctx,
		`SELECT id, kind, trader, asset_sold, asset_bought, sold_amount, bought_amount, executed_at
		 FROM trades ORDER BY id DESC LIMIT ?`, limit)
}

func (s *Store) TradesByTrader(ctx context.Context, trader assets.Address, limit int) ([]relationaldb.TradeRecord, error) {
	return s.queryTrades(ctx,
		`SELECT id, kind, trader, asset_sold, asset_bought, sold_amount, bought_amount, executed_at
		 FROM trades WHERE trader = ? ORDER BY id DESC LIMIT ?`, trader.String(), limit)
}

func (s *Store) queryTrades(ctx context.Context, query string, args ...any) ([]relationaldb.TradeRecord, error) {
	if s.db == nil {
		return nil, relationaldb.ErrDatabaseClosed
	}
	if limit, ok := args[len(args)-1].(int); ok && limit <= 0 {
		return nil, relationaldb.ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var records []relationaldb.TradeRecord
	for rows.Next() {
		var (
			record     relationaldb.TradeRecord
			trader     string
			sold       int64
			bought     int64
			soldAmt    int64
			boughtAmt  int64
			executedAt int64
		)
		if err := rows.Scan(&record.ID, &record.Kind, &trader, &sold, &bought, &soldAmt, &boughtAmt, &executedAt); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		addr, err := assets.AddressFromHex(trader)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		record.Trader = addr
		record.AssetSold = assets.AssetID(sold)
		record.AssetBought = assets.AssetID(bought)
		record.SoldAmount = assets.Balance(soldAmt)
		record.BoughtAmount = assets.Balance(boughtAmt)
		record.ExecutedAt = unixTime(executedAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	return records, nil
}

func (s *Store) LiquidityChanges(ctx context.Context, tradeAsset assets.AssetID, limit int) ([]relationaldb.LiquidityRecord, error) {
	if s.db == nil {
		return nil, relationaldb.ErrDatabaseClosed
	}
	if limit <= 0 {
		return nil, relationaldb.ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, provider, trade_asset, core_amount, asset_amount, liquidity, executed_at
		 FROM liquidity_changes WHERE trade_asset = ? ORDER BY id DESC LIMIT ?`,
		int64(tradeAsset), limit)
	if err != nil {
		return nil, fmt.Errorf("query liquidity changes: %w", err)
	}
	defer rows.Close()

	var records []relationaldb.LiquidityRecord
	for rows.Next() {
		var (
			record     relationaldb.LiquidityRecord
			provider   string
			asset      int64
			coreAmt    int64
			assetAmt   int64
			liquidity  int64
			executedAt int64
		)
		if err := rows.Scan(&record.ID, &record.Kind, &provider, &asset, &coreAmt, &assetAmt, &liquidity, &executedAt); err != nil {
			return nil, fmt.Errorf("scan liquidity change: %w", err)
		}
		addr, err := assets.AddressFromHex(provider)
		if err != nil {
			return nil, fmt.Errorf("scan liquidity change: %w", err)
		}
		record.Provider = addr
		record.TradeAsset = assets.AssetID(asset)
		record.CoreAmount = assets.Balance(coreAmt)
		record.AssetAmount = assets.Balance(assetAmt)
		record.Liquidity = assets.Balance(liquidity)
		record.ExecutedAt = unixTime(executedAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query liquidity changes: %w", err)
	}
	return records, nil
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
