package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from multiple sources in priority order:
// 1. Default values
// 2. Configuration file (cennzxd.toml), optional
// 3. Environment variables (CENNZX_ prefix)
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configPath)
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	v.SetEnvPrefix("CENNZX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.configPath = configPath

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// setDefaults mirrors the values a bare node starts with.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", "127.0.0.1:9944")
	v.SetDefault("server.websocket_enabled", true)

	v.SetDefault("exchange.core_asset_id", 16_001)
	v.SetDefault("exchange.fee_rate_parts", 3_000)
	v.SetDefault("exchange.fee_rate_scale", 1_000_000)

	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.cache_size", 1024)
	v.SetDefault("storage.history_enabled", false)
	v.SetDefault("storage.history_path", "history.db")

	v.SetDefault("log.level", "info")
}
