package backtest

import (
	"math"

	"github.com/sawpanic/cryptovet/internal/domain"
	"github.com/sawpanic/cryptovet/internal/stats"
)

// ComputeResult derives the aggregate performance statistics from one
// run's equity curve and trade log. It is a pure function: the same
// inputs always produce the same Result, and degenerate inputs (zero
// variance, no losses, no trades) yield defined sentinel values rather
// than NaN or Inf.
func ComputeResult(symbol string, cfg Config, curve []EquityPoint, trades []domain.Trade, exposedCandles int) *Result {
	res := &Result{
		Symbol:         symbol,
		InitialCapital: cfg.InitialCapital,
		FinalBalance:   cfg.InitialCapital,
		Trades:         trades,
		EquityCurve:    curve,
		TotalTrades:    len(trades),
	}

	if len(curve) > 0 {
		res.FinalBalance = curve[len(curve)-1].Balance
	}

	res.TotalReturn = (stats.Quotient(res.FinalBalance, cfg.InitialCapital) - 1) * 100
	res.AnnualizedReturn = annualizedReturn(res.FinalBalance, cfg.InitialCapital, len(curve), cfg.PeriodsPerYear)
	res.MaxDrawdown = maxDrawdown(curve)

	returns := periodReturns(curve)
	res.SharpeRatio = sharpe(returns, cfg.PeriodsPerYear)
	res.SortinoRatio = sortino(returns, cfg.PeriodsPerYear)

	fillTradeStats(res, trades)

	if len(curve) > 0 {
		res.ExposureTime = float64(exposedCandles) / float64(len(curve)) * 100
	}

	return res
}

// periodReturns converts the equity curve into per-candle fractional
// returns.
func periodReturns(curve []EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		returns = append(returns, stats.Quotient(curve[i].Balance-curve[i-1].Balance, curve[i-1].Balance))
	}
	return returns
}

// maxDrawdown returns the largest peak-to-trough decline of the equity
// curve as a positive percentage, via a single running-maximum pass.
func maxDrawdown(curve []EquityPoint) float64 {
	maxDD := 0.0
	peak := math.Inf(-1)
	for _, p := range curve {
		if p.Balance > peak {
			peak = p.Balance
		}
		if dd := stats.Quotient(peak-p.Balance, peak) * 100; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// sharpe annualizes mean/stddev of per-period returns. Zero variance
// reports 0, not infinity.
func sharpe(returns []float64, periodsPerYear float64) float64 {
	sd := stats.StdDev(returns)
	if sd == 0 {
		return 0
	}
	return stats.Mean(returns) / sd * math.Sqrt(periodsPerYear)
}

// sortino is sharpe with only downside deviation in the denominator:
// the root mean square of negative returns over all periods, so a run
// with a single losing period still gets a finite ratio. No negative
// returns reports 0.
func sortino(returns []float64, periodsPerYear float64) float64 {
	var sumSq float64
	losing := 0
	for _, r := range returns {
		if r < 0 {
			sumSq += r * r
			losing++
		}
	}
	if losing == 0 {
		return 0
	}
	dd := math.Sqrt(sumSq / float64(len(returns)))
	return stats.Mean(returns) / dd * math.Sqrt(periodsPerYear)
}

func annualizedReturn(finalBalance, initialCapital float64, periods int, periodsPerYear float64) float64 {
	if periods == 0 || initialCapital <= 0 || finalBalance <= 0 || periodsPerYear <= 0 {
		return 0
	}
	years := float64(periods) / periodsPerYear
	if years <= 0 {
		return 0
	}
	return (math.Pow(finalBalance/initialCapital, 1/years) - 1) * 100
}

func fillTradeStats(res *Result, trades []domain.Trade) {
	if len(trades) == 0 {
		return
	}

	var grossProfit, grossLoss float64
	var winPcts, lossPcts, pnls []float64
	var winStreak, lossStreak int

	for _, t := range trades {
		pnls = append(pnls, t.PnL)

		if t.PnL > 0 {
			res.WinningTrades++
			grossProfit += t.PnL
			winPcts = append(winPcts, t.PnLPct)
			winStreak++
			lossStreak = 0
		} else {
			res.LosingTrades++
			grossLoss += -t.PnL
			lossPcts = append(lossPcts, t.PnLPct)
			lossStreak++
			winStreak = 0
		}

		if winStreak > res.MaxConsecutiveWins {
			res.MaxConsecutiveWins = winStreak
		}
		if lossStreak > res.MaxConsecutiveLosses {
			res.MaxConsecutiveLosses = lossStreak
		}
	}

	res.WinRate = float64(res.WinningTrades) / float64(len(trades)) * 100

	// A run without losing trades reports profit factor 0: the ratio is
	// undefined, and 0 flags that explicitly instead of overstating it.
	res.ProfitFactor = stats.Quotient(grossProfit, grossLoss)

	res.AvgWin = stats.Mean(winPcts)
	res.AvgLoss = stats.Mean(lossPcts)

	res.VaR95 = stats.Percentile(pnls, 5)
	var tail []float64
	for _, p := range pnls {
		if p <= res.VaR95 {
			tail = append(tail, p)
		}
	}
	res.CVaR95 = stats.Mean(tail)
}
