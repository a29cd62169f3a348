package backtest

import "fmt"

// Config carries the execution-cost and risk parameters for one run.
// It is constructed once by the caller and passed by reference; the
// engine never mutates it.
type Config struct {
	InitialCapital float64 // starting balance in quote currency
	TradingFee     float64 // fraction charged per side, e.g. 0.001 = 0.1%
	Slippage       float64 // fractional price deviation per side
	RiskPerTrade   float64 // fraction of capital risked per trade
	MaxPositionPct float64 // fallback sizing fraction when no stop is given
	PeriodsPerYear float64 // candle periods per year, for annualization
}

// DefaultConfig mirrors the stock validation setup: $10k capital, 0.1%
// fee and 0.05% slippage per side, 2% risk per trade, hourly candles.
func DefaultConfig() Config {
	return Config{
		InitialCapital: 10000,
		TradingFee:     0.001,
		Slippage:       0.0005,
		RiskPerTrade:   0.02,
		MaxPositionPct: 0.10,
		PeriodsPerYear: 24 * 365,
	}
}

// Validate rejects configurations that would corrupt the simulation.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got %v", c.InitialCapital)
	}
	if c.TradingFee < 0 || c.TradingFee >= 1 {
		return fmt.Errorf("trading fee must be in [0,1), got %v", c.TradingFee)
	}
	if c.Slippage < 0 || c.Slippage >= 1 {
		return fmt.Errorf("slippage must be in [0,1), got %v", c.Slippage)
	}
	if c.RiskPerTrade <= 0 || c.RiskPerTrade > 1 {
		return fmt.Errorf("risk per trade must be in (0,1], got %v", c.RiskPerTrade)
	}
	if c.MaxPositionPct <= 0 || c.MaxPositionPct > 1 {
		return fmt.Errorf("max position fraction must be in (0,1], got %v", c.MaxPositionPct)
	}
	if c.PeriodsPerYear <= 0 {
		return fmt.Errorf("periods per year must be positive, got %v", c.PeriodsPerYear)
	}
	return nil
}
