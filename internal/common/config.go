// Package common provides shared utilities for FundVal
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for FundVal
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Clients     ClientsConfig   `toml:"clients"`
	Portfolio   PortfolioConfig `toml:"portfolio"`
	Risk        RiskConfig      `toml:"risk"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the data directory for the embedded store.
type StorageConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Eastmoney EastmoneyConfig `toml:"eastmoney"`
}

// EastmoneyConfig holds the public fund valuation API configuration
type EastmoneyConfig struct {
	BaseURL        string `toml:"base_url"`         // intraday estimate endpoint
	HistoryBaseURL string `toml:"history_base_url"` // confirmed NAV history endpoint
	RateLimit      int    `toml:"rate_limit"`       // requests per second
	Timeout        string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EastmoneyConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// PortfolioConfig holds aggregation behavior configuration.
type PortfolioConfig struct {
	DefaultAccount          string   `toml:"default_account"`
	FetchConcurrency        int      `toml:"fetch_concurrency"`         // max in-flight valuation fetches, shared across requests
	EstimateChangeThreshold float64  `toml:"estimate_change_threshold"` // |estimate change %| above this is treated as implausible
	ExemptNamePatterns      []string `toml:"exempt_name_patterns"`      // fund name substrings exempt from the threshold
	MarketTimezone          string   `toml:"market_timezone"`
}

// RiskConfig holds risk indicator configuration.
type RiskConfig struct {
	RiskFreeRate             float64 `toml:"risk_free_rate"`
	SharpeDeviationThreshold float64 `toml:"sharpe_deviation_threshold"`
	HistoryDays              int     `toml:"history_days"` // default lookback window
}

// SchedulerConfig holds background job configuration.
type SchedulerConfig struct {
	Enabled          bool   `toml:"enabled"`
	SnapshotInterval string `toml:"snapshot_interval"`
	RefreshInterval  string `toml:"refresh_interval"`
}

// GetSnapshotInterval parses the intraday snapshot interval
func (c *SchedulerConfig) GetSnapshotInterval() time.Duration {
	d, err := time.ParseDuration(c.SnapshotInterval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// GetRefreshInterval parses the NAV refresh interval
func (c *SchedulerConfig) GetRefreshInterval() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil {
		return time.Hour
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Path: "data/fundval",
		},
		Clients: ClientsConfig{
			Eastmoney: EastmoneyConfig{
				BaseURL:        "https://fundgz.1234567.com.cn",
				HistoryBaseURL: "https://api.fund.eastmoney.com",
				RateLimit:      10,
				Timeout:        "10s",
			},
		},
		Portfolio: PortfolioConfig{
			DefaultAccount:          "default",
			FetchConcurrency:        10,
			EstimateChangeThreshold: 10.0,
			ExemptNamePatterns:      []string{"ETF", "联接"},
			MarketTimezone:          "Asia/Shanghai",
		},
		Risk: RiskConfig{
			RiskFreeRate:             0.02,
			SharpeDeviationThreshold: 0.3,
			HistoryDays:              252,
		},
		Scheduler: SchedulerConfig{
			Enabled:          true,
			SnapshotInterval: "5m",
			RefreshInterval:  "1h",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FUNDVAL_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FUNDVAL_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FUNDVAL_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FUNDVAL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("FUNDVAL_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if account := os.Getenv("FUNDVAL_ACCOUNT"); account != "" {
		config.Portfolio.DefaultAccount = account
	}

	if tz := os.Getenv("FUNDVAL_MARKET_TZ"); tz != "" {
		config.Portfolio.MarketTimezone = tz
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// MarketLocation resolves the configured market timezone, falling back to
// the exchange-local fixed offset when the zone database is unavailable.
func MarketLocation(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("CST", 8*60*60)
}
