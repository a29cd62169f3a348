package assess

import (
	"fmt"
	"sync"

	"github.com/sawpanic/cryptovet/internal/backtest"
	"github.com/sawpanic/cryptovet/internal/data"
)

// ScenarioResult pairs one synthetic market regime with the backtest it
// produced and its individual assessment.
type ScenarioResult struct {
	Name       string           `json:"name"`
	Trend      data.Trend       `json:"trend"`
	Result     *backtest.Result `json:"result"`
	Assessment Assessment       `json:"assessment"`
}

// MultiScenario aggregates the four-regime validation. Robust requires
// all of: no scenario losing more than 10%, positive average return,
// and average Sharpe above 0.8.
type MultiScenario struct {
	Scenarios   []ScenarioResult `json:"scenarios"`
	AvgReturn   float64          `json:"avg_return"`
	AvgSharpe   float64          `json:"avg_sharpe"`
	AvgWinRate  float64          `json:"avg_win_rate"`
	TotalTrades int              `json:"total_trades"`
	Profitable  bool             `json:"profitable"`
	Robust      bool             `json:"robust"`
}

var scenarioRegimes = []struct {
	name  string
	trend data.Trend
}{
	{"Bull Market", data.TrendUp},
	{"Bear Market", data.TrendDown},
	{"Sideways Market", data.TrendSideways},
	{"Mixed Market", data.TrendMixed},
}

// RunScenarios backtests the strategy against the four synthetic
// regimes and merges the outcomes. The four simulations are independent
// and run concurrently; each goroutine gets its own strategy instance
// from the factory so stateful strategies stay isolated. Aggregation is
// order-independent, so the merged numbers do not depend on which
// scenario finishes first.
func RunScenarios(cfg backtest.Config, gen data.SyntheticConfig, newStrategy func() backtest.Strategy) (*MultiScenario, error) {
	engine, err := backtest.NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	results := make([]ScenarioResult, len(scenarioRegimes))
	errs := make([]error, len(scenarioRegimes))

	var wg sync.WaitGroup
	for i, regime := range scenarioRegimes {
		wg.Add(1)
		go func(i int, name string, trend data.Trend) {
			defer wg.Done()

			genCfg := gen
			genCfg.Trend = trend

			series, err := data.Synthetic(genCfg)
			if err != nil {
				errs[i] = fmt.Errorf("scenario %s: generate series: %w", name, err)
				return
			}

			res, err := engine.Run(genCfg.Symbol, series, newStrategy())
			if err != nil {
				errs[i] = fmt.Errorf("scenario %s: %w", name, err)
				return
			}

			results[i] = ScenarioResult{
				Name:       name,
				Trend:      trend,
				Result:     res,
				Assessment: Evaluate(res),
			}
		}(i, regime.name, regime.trend)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	ms := &MultiScenario{Scenarios: results, Robust: true}
	for _, sc := range results {
		ms.AvgReturn += sc.Result.TotalReturn
		ms.AvgSharpe += sc.Result.SharpeRatio
		ms.AvgWinRate += sc.Result.WinRate
		ms.TotalTrades += sc.Result.TotalTrades
		if sc.Result.TotalReturn <= -10 {
			ms.Robust = false
		}
	}

	n := float64(len(results))
	ms.AvgReturn /= n
	ms.AvgSharpe /= n
	ms.AvgWinRate /= n

	ms.Profitable = ms.AvgReturn > 0
	ms.Robust = ms.Robust && ms.Profitable && ms.AvgSharpe > 0.8

	return ms, nil
}
