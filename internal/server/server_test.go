package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cennznet/cennzx-go/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Server.ListenAddr = "127.0.0.1:0"
	return cfg
}

func TestNewServerMemoryBackend(t *testing.T) {
	server, err := New(testConfig(t), nil)
	require.NoError(t, err)
	assert.NotNil(t, server.Exchange())
	assert.Equal(t, uint64(3_000), server.Exchange().FeeRate().Parts())
}

func TestNewServerWithHistory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.HistoryEnabled = true
	cfg.Storage.HistoryPath = filepath.Join(t.TempDir(), "history.db")

	server, err := New(cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, server.history)
}

func TestRunStopsOnCancel(t *testing.T) {
	server, err := New(testConfig(t), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()

	// Give the listener a beat, then stop.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewServerBadGenesis(t *testing.T) {
	cfg := testConfig(t)
	cfg.GenesisFile = filepath.Join(t.TempDir(), "missing.json")

	_, err := New(cfg, nil)
	assert.Error(t, err)
}
