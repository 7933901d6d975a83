// Package config defines all configuration for the trading client. Config
// is loaded from a YAML file (default: configs/config.yaml) with sensitive
// fields overridable via KRAKEN_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file
// structure.
type Config struct {
	Kraken   KrakenConfig   `mapstructure:"kraken"`
	Book     BookConfig     `mapstructure:"book"`
	Throttle ThrottleConfig `mapstructure:"throttle"`
	TradeMon TradeMonConfig `mapstructure:"trade_monitor"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// KrakenConfig holds API credentials and endpoints.
// ApiKey/Secret authenticate the one-shot GetWebSocketsToken REST call;
// the WebSocket streams themselves carry the resulting session token, not
// the key/secret directly.
type KrakenConfig struct {
	ApiKey       string `mapstructure:"api_key"`
	Secret       string `mapstructure:"secret"`
	RestBaseURL  string `mapstructure:"rest_base_url"`
	WSPublicURL  string `mapstructure:"ws_public_url"`
	WSPrivateURL string `mapstructure:"ws_private_url"`
}

// BookConfig controls the depth-capped order book kept per subscribed
// symbol.
type BookConfig struct {
	Depth int `mapstructure:"depth"`
}

// ThrottleConfig sets the per-operation rate limit applied to outbound
// order-lifecycle commands.
type ThrottleConfig struct {
	MaxMsgsPerSec float64 `mapstructure:"max_msgs_per_sec"`
}

// TradeMonConfig sizes the bounded trade buffer kept per symbol.
type TradeMonConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config from a YAML file with env var overrides.
// Sensitive fields use env vars: KRAKEN_API_KEY, KRAKEN_SECRET.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("KRAKEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("book.depth", 10)
	v.SetDefault("throttle.max_msgs_per_sec", 1.0)
	v.SetDefault("trade_monitor.buffer_size", 100)
	v.SetDefault("kraken.rest_base_url", "https://api.kraken.com")
	v.SetDefault("kraken.ws_public_url", "wss://ws.kraken.com")
	v.SetDefault("kraken.ws_private_url", "wss://ws-auth.kraken.com")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if key := os.Getenv("KRAKEN_API_KEY"); key != "" {
		cfg.Kraken.ApiKey = key
	}
	if secret := os.Getenv("KRAKEN_SECRET"); secret != "" {
		cfg.Kraken.Secret = secret
	}

	return &cfg, nil
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	if c.Kraken.ApiKey == "" {
		return fmt.Errorf("kraken.api_key is required (set KRAKEN_API_KEY)")
	}
	if c.Kraken.Secret == "" {
		return fmt.Errorf("kraken.secret is required (set KRAKEN_SECRET)")
	}
	if c.Kraken.RestBaseURL == "" {
		return fmt.Errorf("kraken.rest_base_url is required")
	}
	if c.Kraken.WSPublicURL == "" {
		return fmt.Errorf("kraken.ws_public_url is required")
	}
	if c.Kraken.WSPrivateURL == "" {
		return fmt.Errorf("kraken.ws_private_url is required")
	}
	if c.Book.Depth <= 0 {
		return fmt.Errorf("book.depth must be > 0")
	}
	if c.Throttle.MaxMsgsPerSec <= 0 {
		return fmt.Errorf("throttle.max_msgs_per_sec must be > 0")
	}
	if c.TradeMon.BufferSize <= 0 {
		return fmt.Errorf("trade_monitor.buffer_size must be > 0")
	}
	return nil
}

// RequestTimeout is the HTTP timeout for the token-minting request. It
// equals the 10-second timeout internal/auth sets on its own client; the
// minter does not read this constant.
const RequestTimeout = 10 * time.Second
