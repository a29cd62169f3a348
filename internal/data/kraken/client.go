// Package kraken fetches OHLC candles from Kraken's free public API.
package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/sawpanic/cryptovet/internal/domain"
)

const defaultBaseURL = "https://api.kraken.com"

// Client wraps the keyless Kraken endpoints behind a rate limiter and a
// circuit breaker, so a misbehaving upstream degrades fetches instead of
// hammering the API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// New returns a client tuned for Kraken's public tier: 1 request per
// second, and a breaker that opens after 5 consecutive failures and
// retries after 30 seconds.
func New() *Client {
	return NewWithBaseURL(defaultBaseURL)
}

// NewWithBaseURL is New with an overridable endpoint for tests.
func NewWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "kraken",
			Interval: time.Minute,
			Timeout:  30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("provider", name).
					Str("from", from.String()).Str("to", to.String()).
					Msg("Circuit breaker state change")
			},
		}),
	}
}

// ohlcPage is one OHLC response chunk plus the server's continuation
// cursor.
type ohlcPage struct {
	candles domain.Series
	last    time.Time
}

// FetchRange downloads candles for [start, end), paging by the server's
// "since" cursor until the window is covered. Chunks overlap at their
// boundary candle; duplicates are dropped before the series is returned
// in timestamp order.
func (c *Client) FetchRange(ctx context.Context, symbol string, interval time.Duration, start, end time.Time) (domain.Series, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("end %s not after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	seen := make(map[int64]bool)
	var series domain.Series

	since := start
	for since.Before(end) {
		page, err := c.fetchOHLC(ctx, symbol, interval, since)
		if err != nil {
			return nil, err
		}

		added := 0
		for _, candle := range page.candles {
			if candle.Timestamp.Before(start) || !candle.Timestamp.Before(end) {
				continue
			}
			if key := candle.Timestamp.Unix(); !seen[key] {
				seen[key] = true
				series = append(series, candle)
				added++
			}
		}

		if added == 0 || !page.last.After(since) {
			break
		}
		since = page.last
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})

	log.Info().Str("symbol", symbol).Int("candles", len(series)).Msg("Fetched candle series")
	return series, nil
}

func (c *Client) fetchOHLC(ctx context.Context, symbol string, interval time.Duration, since time.Time) (*ohlcPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("pair", PairName(symbol))
	params.Set("interval", strconv.Itoa(int(interval.Minutes())))
	params.Set("since", strconv.FormatInt(since.Unix(), 10))

	fullURL := fmt.Sprintf("%s/0/public/OHLC?%s", c.baseURL, params.Encode())

	body, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("kraken returned HTTP %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch OHLC: %w", err)
	}

	return parseOHLC(body.([]byte))
}

func parseOHLC(body []byte) (*ohlcPage, error) {
	var envelope struct {
		Error  []string                   `json:"error"`
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Error) > 0 {
		return nil, fmt.Errorf("kraken error: %s", strings.Join(envelope.Error, "; "))
	}

	page := &ohlcPage{}
	for key, raw := range envelope.Result {
		if key == "last" {
			var last int64
			if err := json.Unmarshal(raw, &last); err != nil {
				return nil, fmt.Errorf("decode last cursor: %w", err)
			}
			page.last = time.Unix(last, 0).UTC()
			continue
		}

		var rows [][]json.Number
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("decode OHLC rows for %s: %w", key, err)
		}

		for i, row := range rows {
			candle, err := parseRow(row)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			page.candles = append(page.candles, candle)
		}
	}

	return page, nil
}

// parseRow decodes one Kraken OHLC tuple:
// [time, open, high, low, close, vwap, volume, count].
func parseRow(row []json.Number) (domain.Candle, error) {
	if len(row) < 7 {
		return domain.Candle{}, fmt.Errorf("want at least 7 fields, got %d", len(row))
	}

	ts, err := row[0].Int64()
	if err != nil {
		return domain.Candle{}, fmt.Errorf("bad timestamp %q: %w", row[0], err)
	}

	vals := make([]float64, 4)
	for i := 1; i <= 4; i++ {
		v, err := row[i].Float64()
		if err != nil {
			return domain.Candle{}, fmt.Errorf("bad price %q: %w", row[i], err)
		}
		vals[i-1] = v
	}

	volume, err := row[6].Float64()
	if err != nil {
		return domain.Candle{}, fmt.Errorf("bad volume %q: %w", row[6], err)
	}

	return domain.Candle{
		Timestamp: time.Unix(ts, 0).UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    volume,
	}, nil
}

// PairName converts a slash-separated symbol to Kraken's pair notation,
// which spells bitcoin XBT.
func PairName(symbol string) string {
	pair := strings.ReplaceAll(strings.ToUpper(symbol), "/", "")
	pair = strings.ReplaceAll(pair, "BTC", "XBT")
	return pair
}
