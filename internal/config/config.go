// Package config loads the YAML run configuration and maps it onto the
// engine and data-layer settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/cryptovet/internal/backtest"
	"github.com/sawpanic/cryptovet/internal/data"
)

// Config is the full file layout. Missing sections keep their defaults,
// so a partial file overrides only what it names.
type Config struct {
	Backtest BacktestConfig `yaml:"backtest"`
	Data     DataConfig     `yaml:"data"`
	Cache    CacheConfig    `yaml:"cache"`
	Report   ReportConfig   `yaml:"report"`
}

// BacktestConfig mirrors backtest.Config in YAML form.
type BacktestConfig struct {
	InitialCapital float64 `yaml:"initial_capital"`
	TradingFee     float64 `yaml:"trading_fee"`
	Slippage       float64 `yaml:"slippage"`
	RiskPerTrade   float64 `yaml:"risk_per_trade"`
	MaxPositionPct float64 `yaml:"max_position_size"`
	PeriodsPerYear float64 `yaml:"periods_per_year"`
}

// DataConfig selects the input series: symbol, candle timeframe, and
// the synthetic generator's knobs.
type DataConfig struct {
	Symbol     string  `yaml:"symbol"`
	Timeframe  string  `yaml:"timeframe"`
	Days       int     `yaml:"days"`
	Trend      string  `yaml:"trend"`
	StartPrice float64 `yaml:"start_price"`
	Seed       int64   `yaml:"seed"`
}

// CacheConfig enables the optional Redis candle cache.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// ReportConfig places the artifacts directory.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// Default returns the stock configuration used when no file is given.
func Default() Config {
	return Config{
		Backtest: BacktestConfig{
			InitialCapital: 10000,
			TradingFee:     0.001,
			Slippage:       0.0005,
			RiskPerTrade:   0.02,
			MaxPositionPct: 0.10,
		},
		Data: DataConfig{
			Symbol:     "BTC/USD",
			Timeframe:  "1h",
			Days:       90,
			Trend:      string(data.TrendMixed),
			StartPrice: 40000,
			Seed:       42,
		},
		Cache: CacheConfig{
			Addr:       "localhost:6379",
			TTLSeconds: 3600,
		},
		Report: ReportConfig{
			OutputDir: "artifacts",
		},
	}
}

// Load reads path over the defaults and validates the merge. An empty
// path returns the defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks what the engine's own validation cannot see yet: the
// data section's timeframe and generator parameters.
func (c *Config) Validate() error {
	if _, err := c.Data.Interval(); err != nil {
		return err
	}
	if _, err := data.ParseTrend(c.Data.Trend); err != nil {
		return err
	}
	if c.Data.Days <= 0 {
		return fmt.Errorf("data.days must be positive, got %d", c.Data.Days)
	}
	if c.Data.StartPrice <= 0 {
		return fmt.Errorf("data.start_price must be positive, got %v", c.Data.StartPrice)
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("cache.addr required when cache is enabled")
	}
	return c.Engine().Validate()
}

// Interval parses the timeframe string ("15m", "1h", "4h").
func (d DataConfig) Interval() (time.Duration, error) {
	iv, err := time.ParseDuration(d.Timeframe)
	if err != nil {
		return 0, fmt.Errorf("data.timeframe %q: %w", d.Timeframe, err)
	}
	if iv < time.Minute || iv > 24*time.Hour {
		return 0, fmt.Errorf("data.timeframe %q outside [1m, 24h]", d.Timeframe)
	}
	return iv, nil
}

// Engine maps the backtest section onto the engine's config, deriving
// annualization from the timeframe when the file does not pin it.
func (c *Config) Engine() backtest.Config {
	out := backtest.Config{
		InitialCapital: c.Backtest.InitialCapital,
		TradingFee:     c.Backtest.TradingFee,
		Slippage:       c.Backtest.Slippage,
		RiskPerTrade:   c.Backtest.RiskPerTrade,
		MaxPositionPct: c.Backtest.MaxPositionPct,
		PeriodsPerYear: c.Backtest.PeriodsPerYear,
	}
	if out.PeriodsPerYear == 0 {
		if iv, err := c.Data.Interval(); err == nil {
			out.PeriodsPerYear = float64(365*24*time.Hour) / float64(iv)
		}
	}
	return out
}

// Synthetic maps the data section onto the generator's config.
func (c *Config) Synthetic() data.SyntheticConfig {
	iv, _ := c.Data.Interval()
	return data.SyntheticConfig{
		Symbol:     c.Data.Symbol,
		Trend:      data.Trend(c.Data.Trend),
		Days:       c.Data.Days,
		StartPrice: c.Data.StartPrice,
		Interval:   iv,
		Seed:       c.Data.Seed,
	}
}

// CacheTTL returns the configured cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}
