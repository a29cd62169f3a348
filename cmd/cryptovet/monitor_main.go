package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/cryptovet/internal/backtest"
	"github.com/sawpanic/cryptovet/internal/config"
	"github.com/sawpanic/cryptovet/internal/data"
	"github.com/sawpanic/cryptovet/internal/data/kraken"
	"github.com/sawpanic/cryptovet/internal/domain"
	"github.com/sawpanic/cryptovet/internal/strategy"
	"github.com/sawpanic/cryptovet/internal/telemetry"
)

// runMonitor serves /health and /metrics while sweeping a validation
// backtest on an interval, so the strategy's current numbers stay
// scrapeable.
func runMonitor(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	serverCfg := telemetry.DefaultServerConfig()
	serverCfg.Host, _ = cmd.Flags().GetString("host")
	serverCfg.Port, _ = cmd.Flags().GetInt("port")
	interval, _ := cmd.Flags().GetDuration("interval")
	live, _ := cmd.Flags().GetBool("live")

	metrics := telemetry.NewMetrics()
	server := telemetry.NewServer(serverCfg, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	go sweepLoop(ctx, cfg, metrics, interval, live)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down monitor")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sweepLoop runs one validation backtest immediately and then on every
// tick, feeding the outcome into the metrics registry.
func sweepLoop(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics, interval time.Duration, live bool) {
	engine, err := backtest.NewEngine(cfg.Engine())
	if err != nil {
		log.Error().Err(err).Msg("Cannot start validation sweeps")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		sweep(ctx, cfg, engine, metrics, live)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func sweep(ctx context.Context, cfg *config.Config, engine *backtest.Engine, metrics *telemetry.Metrics, live bool) {
	start := time.Now()

	series, err := sweepSeries(ctx, cfg, metrics, live)
	if err != nil {
		log.Error().Err(err).Msg("Validation sweep has no data")
		return
	}

	res, err := engine.Run(cfg.Data.Symbol, series, strategy.NewRSIStrategy())
	if err != nil {
		log.Error().Err(err).Msg("Validation sweep failed")
		return
	}

	metrics.ObserveRun("monitor", res, time.Since(start))

	log.Info().
		Float64("total_return", res.TotalReturn).
		Float64("sharpe", res.SharpeRatio).
		Int("trades", res.TotalTrades).
		Msg("Validation sweep complete")
}

// sweepSeries supplies one sweep's candles: fetched through the cache
// and exchange in live mode, synthetic otherwise. A failed live fetch
// falls back to synthetic so the monitor keeps reporting.
func sweepSeries(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics, live bool) (domain.Series, error) {
	if live {
		interval, err := cfg.Data.Interval()
		if err != nil {
			return nil, err
		}

		end := time.Now().UTC().Truncate(interval)
		begin := end.AddDate(0, 0, -cfg.Data.Days)

		series, err := fetchSeries(ctx, cfg, kraken.New(), interval, begin, end, metrics)
		if err == nil && len(series) > 0 {
			return series, nil
		}
		log.Warn().Err(err).Msg("Live fetch failed, sweeping synthetic data instead")
	}

	return data.Synthetic(cfg.Synthetic())
}
