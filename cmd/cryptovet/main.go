package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sawpanic/cryptovet/internal/config"
)

const version = "v1.0.0"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "cryptovet",
		Short:   "Backtest and validate crypto trading strategies before risking capital",
		Version: version,
		Long: `CryptoVet replays trading strategies against historical and synthetic
price series, computes risk-adjusted performance statistics, and issues a
go/no-go recommendation based on fixed validation criteria.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	backtestCmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run a single backtest and print the performance report",
		Long:  "Replay the RSI strategy over synthetic or CSV price data and report performance, risk and trade statistics",
		RunE:  runBacktest,
	}
	backtestCmd.Flags().String("csv", "", "Load candles from a CSV file instead of generating them")
	addDataFlags(backtestCmd)

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Assess a strategy against the go/no-go criteria",
		Long:  "Run the validation gate: a single assessed backtest, or all four synthetic market regimes with --multi",
		RunE:  runValidate,
	}
	validateCmd.Flags().Bool("multi", false, "Validate across bull, bear, sideways and mixed regimes")
	addDataFlags(validateCmd)

	dataCmd := &cobra.Command{
		Use:   "data",
		Short: "Generate or fetch candle data",
	}

	syntheticCmd := &cobra.Command{
		Use:   "synthetic",
		Short: "Generate a synthetic OHLCV series and save it as CSV",
		RunE:  runDataSynthetic,
	}
	syntheticCmd.Flags().String("out", "", "Output CSV path (default derived from symbol and trend)")
	addDataFlags(syntheticCmd)

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch OHLCV history from Kraken and save it as CSV",
		RunE:  runDataFetch,
	}
	fetchCmd.Flags().String("out", "", "Output CSV path (default derived from symbol and timeframe)")
	addDataFlags(fetchCmd)

	dataCmd.AddCommand(syntheticCmd)
	dataCmd.AddCommand(fetchCmd)

	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Serve health and Prometheus metrics while running periodic validations",
		RunE:  runMonitor,
	}
	monitorCmd.Flags().String("host", "127.0.0.1", "Bind address")
	monitorCmd.Flags().Int("port", 8090, "Bind port")
	monitorCmd.Flags().Duration("interval", 15*time.Minute, "Delay between validation sweeps")
	monitorCmd.Flags().Bool("live", false, "Sweep over fetched exchange data instead of synthetic")
	addDataFlags(monitorCmd)

	rootCmd.AddCommand(backtestCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(monitorCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// addDataFlags attaches the series-selection flags shared by every
// command that produces or consumes candles.
func addDataFlags(cmd *cobra.Command) {
	dataFlags(cmd.Flags())
}

func dataFlags(fs *pflag.FlagSet) {
	fs.String("symbol", "", "Trading pair, e.g. BTC/USD")
	fs.String("trend", "", "Synthetic regime (up|down|sideways|mixed)")
	fs.Int("days", 0, "Days of data")
	fs.Int64("seed", -1, "Random seed for synthetic data")
}

// loadConfig merges the config file (if any) with the data flags the
// user set on this invocation.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if symbol, _ := cmd.Flags().GetString("symbol"); symbol != "" {
		cfg.Data.Symbol = symbol
	}
	if trend, _ := cmd.Flags().GetString("trend"); trend != "" {
		cfg.Data.Trend = trend
	}
	if days, _ := cmd.Flags().GetInt("days"); days > 0 {
		cfg.Data.Days = days
	}
	if seed, err := cmd.Flags().GetInt64("seed"); err == nil && seed >= 0 {
		cfg.Data.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
