// Package server assembles the exchange daemon: engine, storage, RPC API,
// websocket feed and history recorder.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cennznet/cennzx-go/internal/config"
	"github.com/cennznet/cennzx-go/internal/core/assets"
	"github.com/cennznet/cennzx-go/internal/core/exchange"
	"github.com/cennznet/cennzx-go/internal/server/api/jsonrpc"
	"github.com/cennznet/cennzx-go/internal/server/ws"
	"github.com/cennznet/cennzx-go/internal/storage/keyValueDb"
	"github.com/cennznet/cennzx-go/internal/storage/keyValueDb/leveldb"
	"github.com/cennznet/cennzx-go/internal/storage/keyValueDb/memory"
	"github.com/cennznet/cennzx-go/internal/storage/keyValueDb/pebble"
	"github.com/cennznet/cennzx-go/internal/storage/relationaldb"
	"github.com/cennznet/cennzx-go/internal/storage/relationaldb/sqlite"
)

const shutdownTimeout = 10 * time.Second

// Server is the assembled daemon.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	exchange *exchange.Exchange
	ledger   assets.Ledger
	history  relationaldb.Store
	manager  keyValueDb.Manager
	hub      *ws.Hub
	http     *http.Server
}

// New builds a server from configuration. The returned server owns its
// storage handles; Run releases them on exit.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{cfg: cfg, logger: logger}

	poolDb, err := s.openPoolDb()
	if err != nil {
		return nil, err
	}
	pools, err := exchange.NewKVPoolStore(poolDb, cfg.Storage.CacheSize)
	if err != nil {
		s.closeStorage()
		return nil, err
	}

	var endowments []assets.Endowment
	if cfg.GenesisFile != "" {
		endowments, err = config.LoadGenesis(cfg.GenesisFile)
		if err != nil {
			s.closeStorage()
			return nil, err
		}
	}
	s.ledger = assets.NewLedgerWithEndowments(endowments)

	feeRate, err := exchange.NewFeeRate(cfg.Exchange.FeeRateParts, exchange.Scale(cfg.Exchange.FeeRateScale))
	if err != nil {
		s.closeStorage()
		return nil, fmt.Errorf("configured fee rate: %w", err)
	}
	s.exchange = exchange.New(exchange.Config{
		CoreAssetID: assets.AssetID(cfg.Exchange.CoreAssetID),
		FeeRate:     feeRate,
	}, s.ledger, pools)

	if cfg.Storage.HistoryEnabled {
		s.history, err = sqlite.Open(cfg.HistoryFile())
		if err != nil {
			s.closeStorage()
			return nil, err
		}
	}

	mux := http.NewServeMux()
	rpcServer := jsonrpc.NewServer(jsonrpc.NewHandler(s.exchange, s.ledger, s.history), logger)
	mux.Handle("/", rpcServer)
	mux.Handle("/rpc", rpcServer)
	if cfg.Server.WebsocketEnabled {
		s.hub = ws.NewHub(s.exchange.Events(), logger)
		mux.Handle("/ws", s.hub)
	}
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"cennzxd"}`))
	})

	s.http = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Exchange exposes the engine, mainly for tests.
func (s *Server) Exchange() *exchange.Exchange { return s.exchange }

func (s *Server) openPoolDb() (keyValueDb.DB, error) {
	switch s.cfg.Storage.Backend {
	case config.BackendMemory:
		return memory.NewDB(), nil
	case config.BackendPebble:
		s.manager = pebble.NewManager(s.cfg.Storage.Path)
	case config.BackendLevelDB:
		s.manager = leveldb.NewManager(s.cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", s.cfg.Storage.Backend)
	}
	return s.manager.OpenDB("pools")
}

func (s *Server) closeStorage() {
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			s.logger.Warn("failed to close history store", zap.Error(err))
		}
		s.history = nil
	}
	if s.manager != nil {
		if err := s.manager.Close(); err != nil {
			s.logger.Warn("failed to close keyValueDb", zap.Error(err))
		}
		s.manager = nil
	}
}

// Run serves until ctx is cancelled or a component fails, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	// Serve HTTP.
	g.Go(func() error {
		s.logger.Info("rpc server listening", zap.String("addr", s.cfg.Server.ListenAddr))
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Record history.
	if s.history != nil {
		events, cancel := s.exchange.Events().Subscribe(1024)
		recorder := relationaldb.NewRecorder(s.history, s.logger)
		g.Go(func() error {
			defer cancel()
			err := recorder.Run(gCtx, events)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	// Shut down on cancellation.
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if s.hub != nil {
			s.hub.Close()
		}
		return s.http.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	s.exchange.Events().Close()
	s.closeStorage()
	return err
}
