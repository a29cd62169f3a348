package backtest

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/cryptovet/internal/domain"
)

// Strategy produces one signal per candle. history is the prefix of the
// series up to and including the current candle, so implementations can
// never look ahead.
type Strategy interface {
	Analyze(symbol string, history domain.Series) domain.Signal
}

// Engine replays a price series through a strategy's decision logic,
// simulating order execution with fees and slippage. One run is strictly
// sequential: candle order carries meaning for lookback windows, the
// equity curve, and streak counting.
type Engine struct {
	cfg Config
}

// NewEngine validates the configuration and returns a ready engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// runState is the accumulator the per-candle fold carries: the open
// position (or nil), realized capital, and the trade and equity logs.
type runState struct {
	capital float64
	pos     *domain.Position
	trades  []domain.Trade
	curve   []EquityPoint
	exposed int
}

// Run executes the backtest over the series and returns the derived
// result. The series must satisfy the input contract; violations fail
// before any simulation state is created.
func (e *Engine) Run(symbol string, series domain.Series, strat Strategy) (*Result, error) {
	if strat == nil {
		return nil, fmt.Errorf("strategy is nil")
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("invalid price series: %w", err)
	}

	st := &runState{capital: e.cfg.InitialCapital}

	for i, candle := range series {
		wasOpen := st.pos != nil
		exited := false

		// Intrabar exits first, stop-loss before take-profit. The probe
		// uses the candle's extreme on the adverse side so gaps through
		// the level still trigger.
		if st.pos != nil {
			stopProbe, targetProbe := candle.Low, candle.High
			if st.pos.Side == domain.SideShort {
				stopProbe, targetProbe = candle.High, candle.Low
			}

			if st.pos.StopHit(stopProbe) {
				e.closePosition(st, candle, st.pos.StopLoss, domain.ExitStopLoss)
				exited = true
			} else if st.pos.TargetHit(targetProbe) {
				e.closePosition(st, candle, st.pos.TakeProfit, domain.ExitTakeProfit)
				exited = true
			}
		}

		if !exited {
			sig := e.querySignal(strat, symbol, series[:i+1])

			if side, ok := signalSide(sig.Action); ok {
				if st.pos != nil && st.pos.Side != side {
					e.closePosition(st, candle, candle.Close, domain.ExitSignal)
				}
				if st.pos == nil {
					e.openPosition(st, symbol, side, candle, sig)
				}
			}
		}

		balance := st.capital
		if st.pos != nil {
			balance += st.pos.PnL(candle.Close)
		}
		st.curve = append(st.curve, EquityPoint{Timestamp: candle.Timestamp, Balance: balance})

		if wasOpen || st.pos != nil {
			st.exposed++
		}
	}

	// Forced close of anything still open at the last available price.
	if st.pos != nil {
		last := series.Last()
		e.closePosition(st, last, last.Close, domain.ExitEndOfData)
		st.curve[len(st.curve)-1].Balance = st.capital
	}

	return ComputeResult(symbol, e.cfg, st.curve, st.trades, st.exposed), nil
}

// signalSide maps a directional action to the position side it opens.
func signalSide(a domain.Action) (domain.Side, bool) {
	switch a {
	case domain.ActionBuy:
		return domain.SideLong, true
	case domain.ActionSell:
		return domain.SideShort, true
	default:
		return "", false
	}
}

// querySignal asks the strategy for a signal and degrades contract
// violations to hold so a misbehaving strategy cannot abort the run.
func (e *Engine) querySignal(strat Strategy, symbol string, history domain.Series) domain.Signal {
	sig := strat.Analyze(symbol, history)

	switch domain.Action(strings.ToLower(string(sig.Action))) {
	case domain.ActionBuy:
		sig.Action = domain.ActionBuy
	case domain.ActionSell:
		sig.Action = domain.ActionSell
	case domain.ActionHold:
		sig.Action = domain.ActionHold
	default:
		log.Warn().
			Str("symbol", symbol).
			Str("signal", string(sig.Action)).
			Msg("Unrecognized strategy signal, treating as hold")
		return domain.Hold()
	}

	if math.IsNaN(sig.StopLoss) || math.IsInf(sig.StopLoss, 0) || sig.StopLoss < 0 {
		log.Warn().Str("symbol", symbol).Float64("stop_loss", sig.StopLoss).Msg("Dropping invalid stop loss from signal")
		sig.StopLoss = 0
	}
	if math.IsNaN(sig.TakeProfit) || math.IsInf(sig.TakeProfit, 0) || sig.TakeProfit < 0 {
		log.Warn().Str("symbol", symbol).Float64("take_profit", sig.TakeProfit).Msg("Dropping invalid take profit from signal")
		sig.TakeProfit = 0
	}

	// A protective level on the wrong side of the entry price would fill
	// on the very next candle at a price the market never had to reach,
	// so it is dropped like the other contract violations.
	price := history.Last().Close
	switch sig.Action {
	case domain.ActionBuy:
		if sig.StopLoss > 0 && sig.StopLoss >= price {
			log.Warn().Str("symbol", symbol).Float64("stop_loss", sig.StopLoss).Float64("price", price).Msg("Dropping stop loss at or above a long entry")
			sig.StopLoss = 0
		}
		if sig.TakeProfit > 0 && sig.TakeProfit <= price {
			log.Warn().Str("symbol", symbol).Float64("take_profit", sig.TakeProfit).Float64("price", price).Msg("Dropping take profit at or below a long entry")
			sig.TakeProfit = 0
		}
	case domain.ActionSell:
		if sig.StopLoss > 0 && sig.StopLoss <= price {
			log.Warn().Str("symbol", symbol).Float64("stop_loss", sig.StopLoss).Float64("price", price).Msg("Dropping stop loss at or below a short entry")
			sig.StopLoss = 0
		}
		if sig.TakeProfit > 0 && sig.TakeProfit >= price {
			log.Warn().Str("symbol", symbol).Float64("take_profit", sig.TakeProfit).Float64("price", price).Msg("Dropping take profit at or above a short entry")
			sig.TakeProfit = 0
		}
	}

	return sig
}

// openPosition sizes and opens a new position at the candle close,
// paying slippage on the fill and the entry fee out of capital.
func (e *Engine) openPosition(st *runState, symbol string, side domain.Side, candle domain.Candle, sig domain.Signal) {
	fill := entryFill(side, candle.Close, e.cfg.Slippage)

	size := e.positionSize(st.capital, fill, sig.StopLoss)
	if size <= 0 {
		log.Warn().Str("symbol", symbol).Float64("capital", st.capital).Msg("Skipping entry, no sizeable position")
		return
	}

	pos, err := domain.OpenPosition(symbol, side, candle.Timestamp, fill, size, sig.StopLoss, sig.TakeProfit)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("Skipping entry, position rejected")
		return
	}

	pos.EntryFee = fill * size * e.cfg.TradingFee
	st.capital -= pos.EntryFee
	st.pos = pos

	log.Debug().
		Str("symbol", symbol).
		Str("side", string(side)).
		Float64("entry", fill).
		Float64("size", size).
		Float64("stop_loss", sig.StopLoss).
		Float64("take_profit", sig.TakeProfit).
		Msg("Opened position")
}

// closePosition realizes the open position at the given level, charging
// slippage against the exit fill and the exit fee on its notional.
func (e *Engine) closePosition(st *runState, candle domain.Candle, price float64, reason domain.ExitReason) {
	pos := st.pos
	fill := exitFill(pos.Side, price, e.cfg.Slippage)

	exitFee := fill * pos.Size * e.cfg.TradingFee
	gross := pos.PnL(fill)
	st.capital += gross - exitFee

	trade := domain.CloseTrade(pos, candle.Timestamp, fill, gross-exitFee-pos.EntryFee, reason)
	st.trades = append(st.trades, trade)
	st.pos = nil

	log.Debug().
		Str("symbol", trade.Symbol).
		Str("side", string(trade.Side)).
		Str("reason", string(reason)).
		Float64("exit", fill).
		Float64("pnl", trade.PnL).
		Msg("Closed position")
}

// positionSize implements the risk-per-trade sizing rule: risk amount
// over stop distance when a stop is supplied, a fixed capital fraction
// otherwise, and never more notional than the account holds.
func (e *Engine) positionSize(capital, entry, stop float64) float64 {
	if capital <= 0 || entry <= 0 {
		return 0
	}

	var size float64
	if dist := math.Abs(entry - stop); stop > 0 && dist > 0 {
		size = capital * e.cfg.RiskPerTrade / dist
	} else {
		size = capital * e.cfg.MaxPositionPct / entry
	}

	if maxSize := capital / entry; size > maxSize {
		size = maxSize
	}
	return size
}

// entryFill applies slippage against the taker: buys pay up, short
// sales receive less.
func entryFill(side domain.Side, price, slippage float64) float64 {
	if side == domain.SideShort {
		return price * (1 - slippage)
	}
	return price * (1 + slippage)
}

// exitFill is the mirror image: long sales receive less, short covers
// pay up.
func exitFill(side domain.Side, price, slippage float64) float64 {
	if side == domain.SideShort {
		return price * (1 + slippage)
	}
	return price * (1 - slippage)
}
