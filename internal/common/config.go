// Package common provides shared utilities for alphatalk
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for alphatalk
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Refresh     RefreshConfig `toml:"refresh"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the path for the analysis store.
type StorageConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Naver   NaverConfig   `toml:"naver"`
	Yahoo   YahooConfig   `toml:"yahoo"`
	Dart    DartConfig    `toml:"dart"`
	NewsAPI NewsAPIConfig `toml:"newsapi"`
	Gemini  GeminiConfig  `toml:"gemini"`
}

// NaverConfig holds configuration for the domestic market data source.
type NaverConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *NaverConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// YahooConfig holds configuration for the broad-market data source.
type YahooConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// DartConfig holds configuration for the regulatory filing API.
// Filing fallback is skipped entirely when APIKey is empty.
type DartConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *DartConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// NewsAPIConfig holds configuration for the news article source.
type NewsAPIConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
	LookbackD int    `toml:"lookback_days"`
}

// GetTimeout parses and returns the timeout duration
func (c *NewsAPIConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// RefreshConfig controls the refresh coordinator and periodic sweep.
type RefreshConfig struct {
	MaxAgeHours  int    `toml:"max_age_hours"` // cached analysis considered fresh within this window
	SweepCron    string `toml:"sweep_cron"`    // cron spec for the periodic sweep
	PurgeCron    string `toml:"purge_cron"`    // cron spec for the TTL purge
	PurgeDays    int    `toml:"purge_days"`    // analyses older than this are deleted
	StaggerDelay string `toml:"stagger_delay"` // delay between per-ticker pipeline launches
	SweepTimeout string `toml:"sweep_timeout"` // aggregate wall-clock bound for one sweep
}

// GetMaxAge returns the freshness window as a duration.
func (c *RefreshConfig) GetMaxAge() time.Duration {
	if c.MaxAgeHours <= 0 {
		return 1 * time.Hour
	}
	return time.Duration(c.MaxAgeHours) * time.Hour
}

// GetStaggerDelay parses and returns the inter-launch delay.
func (c *RefreshConfig) GetStaggerDelay() time.Duration {
	return parseDuration(c.StaggerDelay, 2*time.Second)
}

// GetSweepTimeout parses and returns the aggregate sweep timeout.
func (c *RefreshConfig) GetSweepTimeout() time.Duration {
	return parseDuration(c.SweepTimeout, 10*time.Minute)
}

// GetPurgeDays returns the analysis TTL in days.
func (c *RefreshConfig) GetPurgeDays() int {
	if c.PurgeDays <= 0 {
		return 7
	}
	return c.PurgeDays
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
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
			Path: "data/analysis",
		},
		Clients: ClientsConfig{
			Naver: NaverConfig{
				BaseURL:   "https://m.stock.naver.com/api",
				RateLimit: 5,
				Timeout:   "30s",
			},
			Yahoo: YahooConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 5,
				Timeout:   "30s",
			},
			Dart: DartConfig{
				BaseURL:   "https://opendart.fss.or.kr/api",
				RateLimit: 2,
				Timeout:   "30s",
			},
			NewsAPI: NewsAPIConfig{
				BaseURL:   "https://newsapi.org/v2",
				RateLimit: 1,
				Timeout:   "30s",
				LookbackD: 7,
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
		},
		Refresh: RefreshConfig{
			MaxAgeHours:  1,
			SweepCron:    "0 */2 * * *",
			PurgeCron:    "30 3 * * *",
			PurgeDays:    7,
			StaggerDelay: "2s",
			SweepTimeout: "10m",
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
	if env := os.Getenv("ALPHATALK_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("ALPHATALK_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("ALPHATALK_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("ALPHATALK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("ALPHATALK_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if v := os.Getenv("DART_API_KEY"); v != "" {
		config.Clients.Dart.APIKey = v
	}
	if v := os.Getenv("NEWSAPI_API_KEY"); v != "" {
		config.Clients.NewsAPI.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Clients.Gemini.APIKey = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
