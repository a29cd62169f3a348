// Package strategy holds the signal generators the backtest engine can
// replay, plus the small indicator math they share.
package strategy

// RSI computes the relative strength index over the trailing window of
// the given period, from simple averages of gains and losses. It needs
// period+1 closes; shorter input returns the neutral 50.
//
// A window with no losses reports 100 when there were gains and 50 when
// the market was perfectly flat, so a flat series never divides by zero.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50
	}

	window := closes[len(closes)-period-1:]

	var gains, losses float64
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses += -delta
		}
	}

	if losses == 0 {
		if gains > 0 {
			return 100
		}
		return 50
	}

	rs := (gains / float64(period)) / (losses / float64(period))
	return 100 - 100/(1+rs)
}

// StochasticK computes the stochastic oscillator %K over the trailing
// window: where the latest close sits between the window's low and high,
// scaled to 0-100. A flat window (high == low) reports the neutral 50.
func StochasticK(highs, lows, closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period || len(highs) < period || len(lows) < period {
		return 50
	}

	hh := highs[len(highs)-period]
	ll := lows[len(lows)-period]
	for i := len(highs) - period + 1; i < len(highs); i++ {
		if highs[i] > hh {
			hh = highs[i]
		}
	}
	for i := len(lows) - period + 1; i < len(lows); i++ {
		if lows[i] < ll {
			ll = lows[i]
		}
	}

	if hh == ll {
		return 50
	}

	return (closes[len(closes)-1] - ll) / (hh - ll) * 100
}
