package domain

import (
	"fmt"
	"math"
	"time"
)

// Candle is one OHLCV bar for a single time interval.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Series is a time-ordered sequence of candles with strictly increasing
// timestamps. Validate before handing a series to the simulation loop.
type Series []Candle

// Validate checks the series contract: non-empty, strictly increasing
// timestamps, and positive finite prices and volume on every candle.
func (s Series) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("price series is empty")
	}

	for i, c := range s {
		if err := c.validate(); err != nil {
			return fmt.Errorf("candle %d (%s): %w", i, c.Timestamp.Format(time.RFC3339), err)
		}
		if i > 0 && !c.Timestamp.After(s[i-1].Timestamp) {
			return fmt.Errorf("candle %d: timestamp %s not after previous %s",
				i, c.Timestamp.Format(time.RFC3339), s[i-1].Timestamp.Format(time.RFC3339))
		}
	}

	return nil
}

func (c Candle) validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"open", c.Open},
		{"high", c.High},
		{"low", c.Low},
		{"close", c.Close},
		{"volume", c.Volume},
	}

	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%s is not finite", f.name)
		}
		if f.value <= 0 {
			return fmt.Errorf("%s must be positive, got %v", f.name, f.value)
		}
	}

	if c.High < c.Low {
		return fmt.Errorf("high %v below low %v", c.High, c.Low)
	}

	return nil
}

// Closes returns the close prices of the series in order.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, c := range s {
		closes[i] = c.Close
	}
	return closes
}

// Last returns the most recent candle. The series must be non-empty.
func (s Series) Last() Candle {
	return s[len(s)-1]
}
