package strategy

import (
	"github.com/sawpanic/cryptovet/internal/domain"
)

// RSIStrategy is a mean-reversion signal generator: buy when RSI drops
// below the oversold line, sell when it rises above the overbought line,
// hold in between. Stops and targets are fixed percentage bands around
// the entry close.
type RSIStrategy struct {
	Period     int
	Oversold   float64
	Overbought float64
	StopPct    float64
	TargetPct  float64
}

// NewRSIStrategy returns the stock configuration: RSI(14), 35/65 bands,
// 2% stop and 4% target.
func NewRSIStrategy() *RSIStrategy {
	return &RSIStrategy{
		Period:     14,
		Oversold:   35,
		Overbought: 65,
		StopPct:    0.02,
		TargetPct:  0.04,
	}
}

// Analyze implements the strategy contract. Until enough history exists
// to warm the indicator it abstains.
func (s *RSIStrategy) Analyze(_ string, history domain.Series) domain.Signal {
	if len(history) < s.Period+1 {
		return domain.Hold()
	}

	rsi := RSI(history.Closes(), s.Period)
	price := history.Last().Close

	switch {
	case rsi < s.Oversold:
		return domain.Signal{
			Action:     domain.ActionBuy,
			Confidence: 70,
			StopLoss:   price * (1 - s.StopPct),
			TakeProfit: price * (1 + s.TargetPct),
		}
	case rsi > s.Overbought:
		return domain.Signal{
			Action:     domain.ActionSell,
			Confidence: 70,
			StopLoss:   price * (1 + s.StopPct),
			TakeProfit: price * (1 - s.TargetPct),
		}
	default:
		return domain.Hold()
	}
}
