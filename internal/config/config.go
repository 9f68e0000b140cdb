package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `json:"app"`
	Backtest  BacktestConfig  `json:"backtest"`
	Providers ProvidersConfig `json:"providers"`
	Archive   ArchiveConfig   `json:"archive"`
	Logging   LoggingConfig   `json:"logging"`
}

// AppConfig contains basic application configuration
type AppConfig struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"` // "development", "production", "test"
	Timezone    string `json:"timezone"`
	Debug       bool   `json:"debug"`
}

// BacktestConfig contains the simulation parameters
type BacktestConfig struct {
	// Run setup
	Strategy   string                 `json:"strategy"`
	Parameters map[string]interface{} `json:"parameters"`
	Provider   string                 `json:"provider"` // "csv", "sqlite", "polymarket", "alpaca", "binance", "synthetic"
	Markets    []string               `json:"markets"`

	// Window, "2006-01-02" or RFC3339. Empty means unbounded.
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	// Account
	InitialCapital float64 `json:"initial_capital"`
	MaxPositions   int     `json:"max_positions"`

	// Execution costs
	Slippage    float64 `json:"slippage"`     // fraction of price per fill
	FeeRate     float64 `json:"fee_rate"`     // per unit of size per fill
	MinNotional float64 `json:"min_notional"` // smallest size*price accepted

	// Metrics
	RiskFreeRate   float64 `json:"risk_free_rate"`   // per-period
	PeriodsPerYear float64 `json:"periods_per_year"` // for annualized volatility

	// Data fetch
	FetchWorkers int `json:"fetch_workers"`

	// Output
	ResultsDirectory string `json:"results_directory"`
}

// ProvidersConfig contains settings for every market data source
type ProvidersConfig struct {
	CSV        CSVProviderConfig        `json:"csv"`
	SQLite     SQLiteProviderConfig     `json:"sqlite"`
	Polymarket PolymarketProviderConfig `json:"polymarket"`
	Alpaca     AlpacaProviderConfig     `json:"alpaca"`
	Binance    BinanceProviderConfig    `json:"binance"`
	Synthetic  SyntheticProviderConfig  `json:"synthetic"`
}

// CSVProviderConfig locates snapshot history files on disk
type CSVProviderConfig struct {
	Directory string `json:"directory"`
}

// SQLiteProviderConfig locates the local snapshot store
type SQLiteProviderConfig struct {
	Path string `json:"path"`
}

// PolymarketProviderConfig configures the CLOB price history API
type PolymarketProviderConfig struct {
	BaseURL         string `json:"base_url"`
	FidelityMinutes int    `json:"fidelity_minutes"`
}

// AlpacaProviderConfig configures the Alpaca market data API
type AlpacaProviderConfig struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	BaseURL   string `json:"base_url"`
}

// BinanceProviderConfig configures the Binance klines API
type BinanceProviderConfig struct {
	APIKey    string `json:"api_key"`
	SecretKey string `json:"secret_key"`
	Interval  string `json:"interval"`
}

// SyntheticProviderConfig configures the seeded random walk generator
type SyntheticProviderConfig struct {
	Seed         int64   `json:"seed"`
	Interval     string  `json:"interval"` // Go duration, e.g. "1h"
	InitialPrice float64 `json:"initial_price"`
	Volatility   float64 `json:"volatility"`
}

// ArchiveConfig configures the optional Postgres results archive
type ArchiveConfig struct {
	Enabled bool   `json:"enabled"`
	DSN     string `json:"dsn"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Output
	Level     string `json:"level"`     // "debug", "info", "warn", "error"
	Format    string `json:"format"`    // "json", "text"
	Output    string `json:"output"`    // "stdout", "file", "both"
	Directory string `json:"directory"` // Log file directory

	// File rotation
	MaxSize    int  `json:"max_size"`    // Max MB per file
	MaxBackups int  `json:"max_backups"` // Max number of old files
	MaxAge     int  `json:"max_age"`     // Max days to retain
	Compress   bool `json:"compress"`    // Compress old files
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "polysim",
			Version:     "1.0.0",
			Environment: "development",
			Timezone:    "UTC",
			Debug:       false,
		},
		Backtest: BacktestConfig{
			Strategy:         "momentum",
			Parameters:       map[string]interface{}{},
			Provider:         "csv",
			Markets:          []string{},
			InitialCapital:   10000.0,
			MaxPositions:     5,
			Slippage:         0.005,
			FeeRate:          0.01,
			MinNotional:      1.0,
			RiskFreeRate:     0.0,
			PeriodsPerYear:   365,
			FetchWorkers:     4,
			ResultsDirectory: "./results",
		},
		Providers: ProvidersConfig{
			CSV: CSVProviderConfig{
				Directory: "./data",
			},
			SQLite: SQLiteProviderConfig{
				Path: "./data/snapshots.db",
			},
			Polymarket: PolymarketProviderConfig{
				BaseURL:         "https://clob.polymarket.com",
				FidelityMinutes: 60,
			},
			Alpaca: AlpacaProviderConfig{
				BaseURL: "https://data.alpaca.markets",
			},
			Binance: BinanceProviderConfig{
				Interval: "1d",
			},
			Synthetic: SyntheticProviderConfig{
				Seed:         42,
				Interval:     "1h",
				InitialPrice: 0.5,
				Volatility:   0.02,
			},
		},
		Archive: ArchiveConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stdout",
			Directory:  "./logs",
			MaxSize:    100, // MB
			MaxBackups: 10,
			MaxAge:     30, // days
			Compress:   true,
		},
	}
}

// LoadConfig loads configuration from file
func LoadConfig(configPath string) (*Config, error) {
	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Create default config if file doesn't exist
		defaultConfig := DefaultConfig()
		if err := SaveConfig(defaultConfig, configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		defaultConfig.ApplyEnv()
		return defaultConfig, nil
	}

	// Read file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON
	config := &Config{}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyEnv()

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Marshal JSON with indentation
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays credentials and endpoints from the environment.
// Environment values win over file values so secrets stay out of config files.
func (c *Config) ApplyEnv() {
	c.Providers.Polymarket.BaseURL = GetEnv("POLYMARKET_BASE_URL", c.Providers.Polymarket.BaseURL)
	c.Providers.Alpaca.APIKey = GetEnv("ALPACA_API_KEY", c.Providers.Alpaca.APIKey)
	c.Providers.Alpaca.APISecret = GetEnv("ALPACA_API_SECRET", c.Providers.Alpaca.APISecret)
	c.Providers.Alpaca.BaseURL = GetEnv("ALPACA_BASE_URL", c.Providers.Alpaca.BaseURL)
	c.Providers.Binance.APIKey = GetEnv("BINANCE_API_KEY", c.Providers.Binance.APIKey)
	c.Providers.Binance.SecretKey = GetEnv("BINANCE_SECRET_KEY", c.Providers.Binance.SecretKey)
	c.Archive.DSN = GetEnv("POLYSIM_ARCHIVE_DSN", c.Archive.DSN)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate app config
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}

	// Validate backtest config
	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive")
	}
	if c.Backtest.MaxPositions <= 0 {
		return fmt.Errorf("max positions must be positive")
	}
	if c.Backtest.Slippage < 0 || c.Backtest.Slippage >= 1 {
		return fmt.Errorf("slippage must be in [0, 1)")
	}
	if c.Backtest.FeeRate < 0 {
		return fmt.Errorf("fee rate cannot be negative")
	}
	if c.Backtest.MinNotional < 0 {
		return fmt.Errorf("min notional cannot be negative")
	}
	if c.Backtest.PeriodsPerYear <= 0 {
		return fmt.Errorf("periods per year must be positive")
	}
	if c.Backtest.Strategy == "" {
		return fmt.Errorf("strategy is required")
	}
	if c.Backtest.Provider == "" {
		return fmt.Errorf("provider is required")
	}

	// Validate window
	start, end, err := c.Backtest.TimeRange()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		return fmt.Errorf("start date must be before end date")
	}

	// Validate logging config
	validLevels := []string{"debug", "info", "warn", "error"}
	levelValid := false
	for _, level := range validLevels {
		if c.Logging.Level == level {
			levelValid = true
			break
		}
	}
	if !levelValid {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validFormats := []string{"json", "text"}
	formatValid := false
	for _, format := range validFormats {
		if c.Logging.Format == format {
			formatValid = true
			break
		}
	}
	if !formatValid {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// Date layouts accepted in config files and flags
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses a date string in any of the accepted layouts
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}

// TimeRange returns the parsed backtest window. A zero time means the
// corresponding bound is open.
func (b BacktestConfig) TimeRange() (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if b.StartDate != "" {
		start, err = ParseDate(b.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
		}
	}
	if b.EndDate != "" {
		end, err = ParseDate(b.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
		}
	}
	return start, end, nil
}

// GetEnv returns environment variable with default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvBool returns boolean environment variable with default value
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

// GetEnvFloat returns float environment variable with default value
func GetEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := parseFloat(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvInt returns integer environment variable with default value
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := parseInt(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Helper functions for parsing
func parseFloat(s string) (float64, error) {
	var result float64
	_, err := fmt.Sscanf(s, "%f", &result)
	return result, err
}

func parseInt(s string) (int, error) {
	var result int
	_, err := fmt.Sscanf(s, "%d", &result)
	return result, err
}
