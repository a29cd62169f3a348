package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/cryptovet/internal/domain"
)

func seriesFromCloses(closes []float64) domain.Series {
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	series := make(domain.Series, len(closes))
	for i, c := range closes {
		series[i] = domain.Candle{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      c, High: c * 1.001, Low: c * 0.999, Close: c, Volume: 10,
		}
	}
	return series
}

func TestRSIStrategyHoldsOnShortHistory(t *testing.T) {
	strat := NewRSIStrategy()
	sig := strat.Analyze("BTC/USD", seriesFromCloses([]float64{100, 101, 102}))

	assert.Equal(t, domain.ActionHold, sig.Action)
	assert.Equal(t, 50.0, sig.Confidence)
}

func TestRSIStrategyBuysOversold(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 200 - 5*float64(i)
	}

	strat := NewRSIStrategy()
	sig := strat.Analyze("BTC/USD", seriesFromCloses(closes))

	assert.Equal(t, domain.ActionBuy, sig.Action)
	assert.Equal(t, 70.0, sig.Confidence)

	last := closes[len(closes)-1]
	assert.InDelta(t, last*0.98, sig.StopLoss, 1e-9)
	assert.InDelta(t, last*1.04, sig.TakeProfit, 1e-9)
}

func TestRSIStrategySellsOverbought(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + 5*float64(i)
	}

	strat := NewRSIStrategy()
	sig := strat.Analyze("BTC/USD", seriesFromCloses(closes))

	assert.Equal(t, domain.ActionSell, sig.Action)
	assert.Equal(t, 70.0, sig.Confidence)

	last := closes[len(closes)-1]
	assert.InDelta(t, last*1.02, sig.StopLoss, 1e-9)
	assert.InDelta(t, last*0.96, sig.TakeProfit, 1e-9)
}

func TestRSIStrategyHoldsInNeutralBand(t *testing.T) {
	// Alternating equal moves pin RSI at 50, inside the 35/65 band.
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
		if i%2 == 1 {
			closes[i] = 101
		}
	}

	strat := NewRSIStrategy()
	sig := strat.Analyze("BTC/USD", seriesFromCloses(closes))
	assert.Equal(t, domain.ActionHold, sig.Action)
}

func TestRSIStrategyHoldsOnFlatMarket(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}

	strat := NewRSIStrategy()
	sig := strat.Analyze("BTC/USD", seriesFromCloses(closes))
	assert.Equal(t, domain.ActionHold, sig.Action)
}
