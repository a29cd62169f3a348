package domain

import "time"

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
	ExitSignal     ExitReason = "SIGNAL"
	ExitEndOfData  ExitReason = "END_OF_DATA"
)

// Trade is the immutable record of a closed position. PnL is net of
// entry and exit fees; PnLPct is PnL over the entry notional.
type Trade struct {
	Symbol        string        `json:"symbol"`
	Side          Side          `json:"side"`
	EntryTime     time.Time     `json:"entry_time"`
	ExitTime      time.Time     `json:"exit_time"`
	EntryPrice    float64       `json:"entry_price"`
	ExitPrice     float64       `json:"exit_price"`
	Size          float64       `json:"size"`
	PnL           float64       `json:"pnl"`
	PnLPct        float64       `json:"pnl_pct"`
	ExitReason    ExitReason    `json:"exit_reason"`
	HoldingPeriod time.Duration `json:"holding_period"`
}

// CloseTrade seals a position into a trade record. pnl must already be
// net of all fees charged on the round trip.
func CloseTrade(p *Position, exitTime time.Time, exitPrice, pnl float64, reason ExitReason) Trade {
	pnlPct := 0.0
	if notional := p.EntryPrice * p.Size; notional > 0 {
		pnlPct = pnl / notional * 100
	}

	return Trade{
		Symbol:        p.Symbol,
		Side:          p.Side,
		EntryTime:     p.EntryTime,
		ExitTime:      exitTime,
		EntryPrice:    p.EntryPrice,
		ExitPrice:     exitPrice,
		Size:          p.Size,
		PnL:           pnl,
		PnLPct:        pnlPct,
		ExitReason:    reason,
		HoldingPeriod: exitTime.Sub(p.EntryTime),
	}
}
