package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/cryptovet/internal/config"
	"github.com/sawpanic/cryptovet/internal/data"
	"github.com/sawpanic/cryptovet/internal/data/cache"
	"github.com/sawpanic/cryptovet/internal/data/kraken"
	"github.com/sawpanic/cryptovet/internal/domain"
	"github.com/sawpanic/cryptovet/internal/telemetry"
)

// runDataSynthetic generates a synthetic series and saves it as CSV.
func runDataSynthetic(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	series, err := data.Synthetic(cfg.Synthetic())
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = fmt.Sprintf("%s_%s_synthetic_%dd.csv",
			strings.ReplaceAll(cfg.Data.Symbol, "/", "_"), cfg.Data.Timeframe, cfg.Data.Days)
	}

	if err := data.SaveCSV(out, series); err != nil {
		return err
	}

	fmt.Printf("Generated %d candles (%s regime) to %s\n", len(series), cfg.Data.Trend, out)
	fmt.Printf("Price range: $%.2f to $%.2f, final $%.2f\n",
		minClose(series), maxClose(series), series.Last().Close)
	return nil
}

// runDataFetch downloads history from Kraken, going through the Redis
// cache when one is configured, and saves it as CSV.
func runDataFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	interval, err := cfg.Data.Interval()
	if err != nil {
		return err
	}

	end := time.Now().UTC().Truncate(interval)
	start := end.AddDate(0, 0, -cfg.Data.Days)

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	series, err := fetchSeries(ctx, cfg, kraken.New(), interval, start, end, nil)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return fmt.Errorf("no candles returned for %s", cfg.Data.Symbol)
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = fmt.Sprintf("%s_%s_%dd.csv",
			strings.ReplaceAll(cfg.Data.Symbol, "/", "_"), cfg.Data.Timeframe, cfg.Data.Days)
	}

	if err := data.SaveCSV(out, series); err != nil {
		return err
	}

	fmt.Printf("Fetched %d candles of %s to %s\n", len(series), cfg.Data.Symbol, out)
	return nil
}

// fetchSeries resolves the window through the Redis cache when one is
// configured, falling through to the exchange. A nil metrics skips
// instrumentation.
func fetchSeries(ctx context.Context, cfg *config.Config, client *kraken.Client, interval time.Duration, start, end time.Time, metrics *telemetry.Metrics) (domain.Series, error) {
	var candleCache *cache.Cache
	if cfg.Cache.Enabled {
		candleCache = cache.New(cfg.Cache.Addr, cfg.CacheTTL())
		defer candleCache.Close()
	}

	key := cache.Key(cfg.Data.Symbol, interval, start, end)
	if candleCache != nil {
		series, hit, err := candleCache.Get(ctx, key)
		metrics.ObserveCache(hit)
		if err != nil {
			log.Warn().Err(err).Msg("Cache read failed, fetching from exchange")
		} else if hit {
			return series, nil
		}
	}

	series, err := client.FetchRange(ctx, cfg.Data.Symbol, interval, start, end)
	if err != nil {
		metrics.ObserveFetch("error")
		return nil, err
	}
	metrics.ObserveFetch("success")

	if candleCache != nil && len(series) > 0 {
		if err := candleCache.Put(ctx, key, series); err != nil {
			log.Warn().Err(err).Msg("Cache write failed")
		}
	}

	return series, nil
}

func minClose(series domain.Series) float64 {
	min := series[0].Close
	for _, c := range series {
		if c.Close < min {
			min = c.Close
		}
	}
	return min
}

func maxClose(series domain.Series) float64 {
	max := series[0].Close
	for _, c := range series {
		if c.Close > max {
			max = c.Close
		}
	}
	return max
}
