// Package config loads the daemon configuration from file, environment and
// defaults, in that priority order.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Storage backend names accepted in the config file.
const (
	BackendMemory  = "memory"
	BackendPebble  = "pebble"
	BackendLevelDB = "leveldb"
)

// Config represents the complete cennzxd configuration.
type Config struct {
	// Server section
	Server ServerConfig `toml:"server" mapstructure:"server"`

	// Exchange section
	Exchange ExchangeConfig `toml:"exchange" mapstructure:"exchange"`

	// Storage section
	Storage StorageConfig `toml:"storage" mapstructure:"storage"`

	// Logging section
	Log LogConfig `toml:"log" mapstructure:"log"`

	// Genesis file path (JSON format). If empty, the ledger starts empty.
	GenesisFile string `toml:"genesis_file" mapstructure:"genesis_file"`

	configPath string `toml:"-" mapstructure:"-"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	ListenAddr string `toml:"listen_addr" mapstructure:"listen_addr"`

	// WebsocketEnabled exposes the /ws event feed.
	WebsocketEnabled bool `toml:"websocket_enabled" mapstructure:"websocket_enabled"`
}

// ExchangeConfig holds the engine settings.
type ExchangeConfig struct {
	// CoreAssetID is the asset every pool pairs against.
	CoreAssetID uint32 `toml:"core_asset_id" mapstructure:"core_asset_id"`

	// FeeRateParts / FeeRateScale express the per-trade fee.
	FeeRateParts uint64 `toml:"fee_rate_parts" mapstructure:"fee_rate_parts"`
	FeeRateScale uint64 `toml:"fee_rate_scale" mapstructure:"fee_rate_scale"`
}

// StorageConfig holds the persistence settings.
type StorageConfig struct {
	// Backend selects the keyValueDb implementation: memory, pebble, leveldb.
	Backend string `toml:"backend" mapstructure:"backend"`

	// Path is the directory holding on-disk stores.
	Path string `toml:"path" mapstructure:"path"`

	// CacheSize bounds the pool store's in-memory LRU entries.
	CacheSize int `toml:"cache_size" mapstructure:"cache_size"`

	// HistoryEnabled records settled trades in the sqlite history store.
	HistoryEnabled bool `toml:"history_enabled" mapstructure:"history_enabled"`

	// HistoryPath is the sqlite file; ":memory:" keeps history in RAM.
	HistoryPath string `toml:"history_path" mapstructure:"history_path"`
}

// LogConfig holds the logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" mapstructure:"level"`
}

// GetConfigPath returns the path the config was loaded from, if any.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return errors.New("server.listen_addr cannot be empty")
	}

	switch c.Storage.Backend {
	case BackendMemory, BackendPebble, BackendLevelDB:
	default:
		return fmt.Errorf("storage.backend must be one of %q, %q, %q; got %q",
			BackendMemory, BackendPebble, BackendLevelDB, c.Storage.Backend)
	}
	if c.Storage.Backend != BackendMemory && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for the %s backend", c.Storage.Backend)
	}
	if c.Storage.CacheSize <= 0 {
		return errors.New("storage.cache_size must be positive")
	}
	if c.Storage.HistoryEnabled && c.Storage.HistoryPath == "" {
		return errors.New("storage.history_path is required when history is enabled")
	}

	if c.Exchange.FeeRateScale == 0 {
		return errors.New("exchange.fee_rate_scale cannot be zero")
	}
	if c.Exchange.FeeRateParts > c.Exchange.FeeRateScale {
		return errors.New("exchange.fee_rate_parts cannot exceed exchange.fee_rate_scale")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error; got %q", c.Log.Level)
	}
	return nil
}

// HistoryFile resolves the history path against the storage directory.
func (c *Config) HistoryFile() string {
	if c.Storage.HistoryPath == ":memory:" || filepath.IsAbs(c.Storage.HistoryPath) {
		return c.Storage.HistoryPath
	}
	return filepath.Join(c.Storage.Path, c.Storage.HistoryPath)
}
