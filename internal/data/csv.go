package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/cryptovet/internal/domain"
)

var csvHeader = []string{"timestamp", "open", "high", "low", "close", "volume"}

// SaveCSV writes the series to path as a flat OHLCV table with RFC3339
// timestamps, one candle per row.
func SaveCSV(path string, series domain.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, c := range series {
		row := []string{
			c.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
			strconv.FormatFloat(c.Volume, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write candle %s: %w", row[0], err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("candles", len(series)).Msg("Saved candle series")
	return nil
}

// LoadCSV reads a series saved by SaveCSV. Rows repeating an already
// seen timestamp are dropped so overlapping fetch chunks concatenated
// into one file load cleanly.
func LoadCSV(path string) (domain.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(csvHeader)

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: no candle rows", path)
	}

	series := make(domain.Series, 0, len(rows)-1)
	seen := make(map[time.Time]bool, len(rows)-1)
	dropped := 0

	for i, row := range rows[1:] {
		ts, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad timestamp %q: %w", i+1, row[0], err)
		}
		if seen[ts] {
			dropped++
			continue
		}
		seen[ts] = true

		vals := make([]float64, 5)
		for j := 1; j < len(row); j++ {
			v, err := strconv.ParseFloat(row[j], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad %s %q: %w", i+1, csvHeader[j], row[j], err)
			}
			vals[j-1] = v
		}

		series = append(series, domain.Candle{
			Timestamp: ts,
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}

	if dropped > 0 {
		log.Warn().Str("path", path).Int("dropped", dropped).Msg("Dropped duplicate timestamps on load")
	}

	return series, nil
}
