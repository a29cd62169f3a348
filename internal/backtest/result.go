package backtest

import (
	"time"

	"github.com/sawpanic/cryptovet/internal/domain"
)

// EquityPoint is one sample of the equity curve: realized balance plus
// any open position's unrealized P&L after processing a candle.
type EquityPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Balance   float64   `json:"balance"`
}

// Result aggregates everything a single backtest run produced. It is
// derived once by the metrics engine and read-only afterwards.
type Result struct {
	Symbol         string  `json:"symbol"`
	InitialCapital float64 `json:"initial_capital"`
	FinalBalance   float64 `json:"final_balance"`

	TotalReturn      float64 `json:"total_return"`      // percent
	AnnualizedReturn float64 `json:"annualized_return"` // percent
	MaxDrawdown      float64 `json:"max_drawdown"`      // percent, positive
	SharpeRatio      float64 `json:"sharpe_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio"`

	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`      // percent
	ProfitFactor  float64 `json:"profit_factor"` // 0 means no losses to normalize against
	AvgWin        float64 `json:"avg_win"`       // mean pnl_pct of winners
	AvgLoss       float64 `json:"avg_loss"`      // mean pnl_pct of losers

	VaR95  float64 `json:"var_95"`  // capital units
	CVaR95 float64 `json:"cvar_95"` // capital units

	MaxConsecutiveWins   int `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int `json:"max_consecutive_losses"`

	ExposureTime float64 `json:"exposure_time"` // percent of candles in a position

	Trades      []domain.Trade `json:"trades"`
	EquityCurve []EquityPoint  `json:"equity_curve"`
}
