// Package assess turns backtest results into a go/no-go verdict: a
// fixed set of pass/fail criteria for a single run, and a cross-regime
// robustness check for multi-scenario validation.
package assess

import (
	"github.com/sawpanic/cryptovet/internal/backtest"
)

// Recommendation is the overall verdict for a strategy.
type Recommendation string

const (
	Go         Recommendation = "GO"
	CautiousGo Recommendation = "CAUTIOUS GO"
	NoGo       Recommendation = "NO GO"
)

// Confidence qualifies how firmly the verdict is held. A clear pass or
// a clear fail are both HIGH; only the middle band is MEDIUM.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
)

// Criterion is one evaluated check. Critical criteria gate the GO
// verdict regardless of the overall pass rate.
type Criterion struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Value       float64 `json:"value"`
	Threshold   float64 `json:"threshold"`
	Passed      bool    `json:"passed"`
	Critical    bool    `json:"critical"`
}

// Assessment is the full verdict for a single backtest run.
type Assessment struct {
	Criteria       []Criterion    `json:"criteria"`
	PassedCount    int            `json:"passed_count"`
	TotalCount     int            `json:"total_count"`
	PassRate       float64        `json:"pass_rate"` // percent
	Recommendation Recommendation `json:"recommendation"`
	Confidence     Confidence     `json:"confidence"`
	Message        string         `json:"message"`
}

// Evaluate scores a result against the six fixed criteria and derives
// the verdict. The thresholds are deliberate constants, not
// configuration: moving the goalposts per run would defeat the point of
// a validation gate.
func Evaluate(res *backtest.Result) Assessment {
	criteria := []Criterion{
		{
			Name:        "profitable",
			Description: "Strategy is profitable",
			Value:       res.TotalReturn,
			Threshold:   0,
			Passed:      res.TotalReturn > 0,
			Critical:    true,
		},
		{
			Name:        "sharpe_ratio",
			Description: "Sharpe ratio > 1.0 (good risk-adjusted returns)",
			Value:       res.SharpeRatio,
			Threshold:   1.0,
			Passed:      res.SharpeRatio > 1.0,
			Critical:    true,
		},
		{
			Name:        "win_rate",
			Description: "Win rate > 45%",
			Value:       res.WinRate,
			Threshold:   45.0,
			Passed:      res.WinRate > 45.0,
		},
		{
			Name:        "profit_factor",
			Description: "Profit factor > 1.2 (wins > 1.2x losses)",
			Value:       res.ProfitFactor,
			Threshold:   1.2,
			Passed:      res.ProfitFactor > 1.2,
		},
		{
			Name:        "max_drawdown",
			Description: "Max drawdown < 30%",
			Value:       res.MaxDrawdown,
			Threshold:   30.0,
			Passed:      res.MaxDrawdown < 30.0,
		},
		{
			Name:        "sufficient_trades",
			Description: "At least 10 trades for statistical significance",
			Value:       float64(res.TotalTrades),
			Threshold:   10,
			Passed:      res.TotalTrades >= 10,
			Critical:    true,
		},
	}

	a := Assessment{
		Criteria:   criteria,
		TotalCount: len(criteria),
	}

	criticalPassed := true
	for _, c := range criteria {
		if c.Passed {
			a.PassedCount++
		} else if c.Critical {
			criticalPassed = false
		}
	}
	a.PassRate = float64(a.PassedCount) / float64(a.TotalCount) * 100

	profitable := criteria[0].Passed

	switch {
	case a.PassRate >= 80 && criticalPassed:
		a.Recommendation = Go
		a.Confidence = ConfidenceHigh
		a.Message = "Strategy validation PASSED. Ready for live trading with caution."
	case a.PassRate >= 60 && profitable:
		a.Recommendation = CautiousGo
		a.Confidence = ConfidenceMedium
		a.Message = "Strategy shows promise but needs monitoring. Start with small position sizes."
	default:
		a.Recommendation = NoGo
		a.Confidence = ConfidenceHigh
		a.Message = "Strategy validation FAILED. Do NOT use for live trading."
	}

	return a
}
