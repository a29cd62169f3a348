package domain

// Action is a strategy's directional instruction for the current candle.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Signal is the output of a strategy for one candle. StopLoss and
// TakeProfit are optional; zero means the strategy did not supply one and
// the simulation falls back to its default risk sizing.
type Signal struct {
	Action     Action  `json:"signal"`
	Confidence float64 `json:"confidence"`
	StopLoss   float64 `json:"stop_loss,omitempty"`
	TakeProfit float64 `json:"take_profit,omitempty"`
}

// Hold is the neutral signal used when a strategy abstains or violates
// the signal contract.
func Hold() Signal {
	return Signal{Action: ActionHold, Confidence: 50}
}
