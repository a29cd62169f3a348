package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/cryptovet/internal/assess"
	"github.com/sawpanic/cryptovet/internal/backtest"
	"github.com/sawpanic/cryptovet/internal/data"
	"github.com/sawpanic/cryptovet/internal/report"
	"github.com/sawpanic/cryptovet/internal/strategy"
)

// runValidate runs the validation gate: one assessed backtest, or the
// four-regime sweep with --multi.
func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if multi, _ := cmd.Flags().GetBool("multi"); multi {
		return runMultiValidation(cfg.Engine(), cfg.Synthetic(), cfg.Report.OutputDir)
	}

	series, err := data.Synthetic(cfg.Synthetic())
	if err != nil {
		return err
	}

	engine, err := backtest.NewEngine(cfg.Engine())
	if err != nil {
		return err
	}

	res, err := engine.Run(cfg.Data.Symbol, series, strategy.NewRSIStrategy())
	if err != nil {
		return err
	}

	a := assess.Evaluate(res)
	printAssessment(a)

	writer := report.NewWriter(cfg.Report.OutputDir)
	if err := writer.WriteResult(res, a); err != nil {
		return err
	}
	if err := writer.WriteReport(res, a); err != nil {
		return err
	}

	fmt.Printf("Artifacts written to %s\n", writer.Dir())
	return nil
}

func runMultiValidation(engineCfg backtest.Config, genCfg data.SyntheticConfig, outputDir string) error {
	log.Info().Msg("Running multi-scenario validation across 4 market regimes")

	ms, err := assess.RunScenarios(engineCfg, genCfg, func() backtest.Strategy {
		return strategy.NewRSIStrategy()
	})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Multi-Scenario Validation")
	fmt.Println("----------------------------------------------------------------------")
	fmt.Printf("%-20s %12s %10s %12s %10s\n", "Scenario", "Return", "Sharpe", "Win Rate", "Trades")
	for _, sc := range ms.Scenarios {
		fmt.Printf("%-20s %+11.2f%% %10.2f %11.1f%% %10d\n",
			sc.Name, sc.Result.TotalReturn, sc.Result.SharpeRatio, sc.Result.WinRate, sc.Result.TotalTrades)
	}
	fmt.Println("----------------------------------------------------------------------")
	fmt.Printf("%-20s %+11.2f%% %10.2f %11.1f%% %10d\n",
		"AVERAGE", ms.AvgReturn, ms.AvgSharpe, ms.AvgWinRate, ms.TotalTrades)
	fmt.Println()

	switch {
	case ms.Robust:
		fmt.Println("ROBUST: strategy performs consistently across market conditions")
	case ms.Profitable:
		fmt.Println("CONDITIONALLY ROBUST: strategy is profitable but shows variability")
	default:
		fmt.Println("NOT ROBUST: strategy shows inconsistent performance")
	}
	fmt.Println()

	writer := report.NewWriter(outputDir)
	if err := writer.WriteMultiScenario(ms); err != nil {
		return err
	}

	fmt.Printf("Artifacts written to %s\n", writer.Dir())
	return nil
}

func printAssessment(a assess.Assessment) {
	fmt.Println()
	fmt.Printf("Criteria Assessment (%d/%d passed):\n", a.PassedCount, a.TotalCount)
	fmt.Println()

	for _, c := range a.Criteria {
		status := "FAIL"
		if c.Passed {
			status = "PASS"
		}
		fmt.Printf("  [%s] %s\n", status, c.Description)
		fmt.Printf("         value: %.2f, threshold: %.2f\n", c.Value, c.Threshold)
	}

	fmt.Println()
	fmt.Printf("Pass Rate: %.0f%%\n", a.PassRate)
	fmt.Printf("RECOMMENDATION: %s (confidence: %s)\n", a.Recommendation, a.Confidence)
	fmt.Println(a.Message)
	fmt.Println()
}
