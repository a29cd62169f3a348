package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/cryptovet/internal/assess"
	"github.com/sawpanic/cryptovet/internal/backtest"
	"github.com/sawpanic/cryptovet/internal/data"
	"github.com/sawpanic/cryptovet/internal/domain"
	"github.com/sawpanic/cryptovet/internal/report"
	"github.com/sawpanic/cryptovet/internal/strategy"
)

// runBacktest executes one backtest over synthetic or CSV data, prints
// the performance report, and writes the run artifacts.
func runBacktest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var series domain.Series
	if csvPath, _ := cmd.Flags().GetString("csv"); csvPath != "" {
		series, err = data.LoadCSV(csvPath)
	} else {
		series, err = data.Synthetic(cfg.Synthetic())
	}
	if err != nil {
		return err
	}

	engine, err := backtest.NewEngine(cfg.Engine())
	if err != nil {
		return err
	}

	log.Info().
		Str("symbol", cfg.Data.Symbol).
		Int("candles", len(series)).
		Float64("initial_capital", cfg.Backtest.InitialCapital).
		Msg("Starting backtest")

	res, err := engine.Run(cfg.Data.Symbol, series, strategy.NewRSIStrategy())
	if err != nil {
		return err
	}

	printResult(res)

	writer := report.NewWriter(cfg.Report.OutputDir)
	a := assess.Evaluate(res)
	if err := writer.WriteResult(res, a); err != nil {
		return err
	}
	if err := writer.WriteReport(res, a); err != nil {
		return err
	}

	fmt.Printf("Artifacts written to %s\n", writer.Dir())
	return nil
}

func printResult(res *backtest.Result) {
	fmt.Println()
	fmt.Printf("Backtest Results: %s\n", res.Symbol)
	fmt.Println("----------------------------------------")

	fmt.Println("Performance:")
	fmt.Printf("  Initial Capital:    $%.2f\n", res.InitialCapital)
	fmt.Printf("  Final Balance:      $%.2f\n", res.FinalBalance)
	fmt.Printf("  Total Return:       %+.2f%%\n", res.TotalReturn)
	fmt.Printf("  Annualized Return:  %+.2f%%\n", res.AnnualizedReturn)
	fmt.Println()

	fmt.Println("Risk:")
	fmt.Printf("  Max Drawdown:       %.2f%%\n", res.MaxDrawdown)
	fmt.Printf("  Sharpe Ratio:       %.2f\n", res.SharpeRatio)
	fmt.Printf("  Sortino Ratio:      %.2f\n", res.SortinoRatio)
	fmt.Printf("  VaR (95%%):          $%.2f\n", res.VaR95)
	fmt.Printf("  CVaR (95%%):         $%.2f\n", res.CVaR95)
	fmt.Println()

	fmt.Println("Trades:")
	fmt.Printf("  Total Trades:       %d\n", res.TotalTrades)
	fmt.Printf("  Win Rate:           %.1f%% (%d/%d)\n", res.WinRate, res.WinningTrades, res.TotalTrades)
	fmt.Printf("  Profit Factor:      %.2f\n", res.ProfitFactor)
	fmt.Printf("  Avg Win / Loss:     %+.2f%% / %+.2f%%\n", res.AvgWin, res.AvgLoss)
	fmt.Printf("  Max Streaks:        %d wins, %d losses\n", res.MaxConsecutiveWins, res.MaxConsecutiveLosses)
	fmt.Printf("  Market Exposure:    %.1f%%\n", res.ExposureTime)
	fmt.Println()
}
