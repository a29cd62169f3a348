package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/cryptovet/internal/domain"
)

// scriptedStrategy replays a fixed signal per candle index and holds
// once the script runs out.
type scriptedStrategy struct {
	signals []domain.Signal
}

func (s *scriptedStrategy) Analyze(_ string, history domain.Series) domain.Signal {
	i := len(history) - 1
	if i < len(s.signals) {
		return s.signals[i]
	}
	return domain.Hold()
}

func candleAt(i int, o, h, l, c float64) domain.Candle {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return domain.Candle{
		Timestamp: start.Add(time.Duration(i) * time.Hour),
		Open:      o, High: h, Low: l, Close: c, Volume: 100,
	}
}

func frictionlessConfig() Config {
	cfg := DefaultConfig()
	cfg.TradingFee = 0
	cfg.Slippage = 0
	return cfg
}

func buy(stop, target float64) domain.Signal {
	return domain.Signal{Action: domain.ActionBuy, Confidence: 70, StopLoss: stop, TakeProfit: target}
}

func sell(stop, target float64) domain.Signal {
	return domain.Signal{Action: domain.ActionSell, Confidence: 70, StopLoss: stop, TakeProfit: target}
}

func TestRiskBasedSizingAndStopLoss(t *testing.T) {
	engine, err := NewEngine(frictionlessConfig())
	require.NoError(t, err)

	series := domain.Series{
		candleAt(0, 100, 100.5, 99.5, 100),
		candleAt(1, 100, 100, 94, 96),
	}
	strat := &scriptedStrategy{signals: []domain.Signal{buy(95, 0)}}

	res, err := engine.Run("BTC/USD", series, strat)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]

	// 2% of 10k over a 5-point stop distance is exactly 40 units, and
	// the stopped-out loss is exactly the risked 2%.
	assert.InDelta(t, 40.0, trade.Size, 1e-9)
	assert.Equal(t, domain.ExitStopLoss, trade.ExitReason)
	assert.InDelta(t, 95.0, trade.ExitPrice, 1e-9)
	assert.InDelta(t, -200.0, trade.PnL, 1e-9)
	assert.InDelta(t, 9800.0, res.FinalBalance, 1e-9)
	assert.InDelta(t, -2.0, res.TotalReturn, 1e-9)
}

func TestStopPriorityOverTakeProfit(t *testing.T) {
	engine, err := NewEngine(frictionlessConfig())
	require.NoError(t, err)

	// The second candle spans both levels; the stop must win.
	series := domain.Series{
		candleAt(0, 100, 100.5, 99.5, 100),
		candleAt(1, 100, 106, 94, 100),
	}
	strat := &scriptedStrategy{signals: []domain.Signal{buy(95, 105)}}

	res, err := engine.Run("BTC/USD", series, strat)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, domain.ExitStopLoss, res.Trades[0].ExitReason)
}

func TestTakeProfitIntrabar(t *testing.T) {
	engine, err := NewEngine(frictionlessConfig())
	require.NoError(t, err)

	series := domain.Series{
		candleAt(0, 100, 100.5, 99.5, 100),
		candleAt(1, 100, 106, 99, 100),
	}
	strat := &scriptedStrategy{signals: []domain.Signal{buy(95, 105)}}

	res, err := engine.Run("BTC/USD", series, strat)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]
	assert.Equal(t, domain.ExitTakeProfit, trade.ExitReason)
	assert.InDelta(t, 105.0, trade.ExitPrice, 1e-9)
	assert.Greater(t, trade.PnL, 0.0)
}

func TestShortStopUsesCandleHigh(t *testing.T) {
	engine, err := NewEngine(frictionlessConfig())
	require.NoError(t, err)

	series := domain.Series{
		candleAt(0, 100, 100.5, 99.5, 100),
		candleAt(1, 100, 106, 99, 100),
	}
	strat := &scriptedStrategy{signals: []domain.Signal{sell(105, 90)}}

	res, err := engine.Run("BTC/USD", series, strat)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]
	assert.Equal(t, domain.SideShort, trade.Side)
	assert.Equal(t, domain.ExitStopLoss, trade.ExitReason)
	assert.Less(t, trade.PnL, 0.0)
}

func TestSlippageAndFees(t *testing.T) {
	cfg := DefaultConfig() // 0.1% fee, 0.05% slippage
	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	series := domain.Series{
		candleAt(0, 100, 100.5, 99.5, 100),
		candleAt(1, 100, 101, 99, 100),
	}
	strat := &scriptedStrategy{signals: []domain.Signal{buy(95, 0), sell(0, 0)}}

	res, err := engine.Run("BTC/USD", series, strat)
	require.NoError(t, err)

	// The opposing signal flips the book: the long closes on the signal
	// and the short it opened is force-closed at the end of data.
	require.Len(t, res.Trades, 2)

	long := res.Trades[0]
	assert.Equal(t, domain.SideLong, long.Side)
	assert.Equal(t, domain.ExitSignal, long.ExitReason)
	assert.InDelta(t, 100.05, long.EntryPrice, 1e-9)
	assert.InDelta(t, 99.95, long.ExitPrice, 1e-9)

	gross := (long.ExitPrice - long.EntryPrice) * long.Size
	fees := cfg.TradingFee * long.Size * (long.EntryPrice + long.ExitPrice)
	assert.InDelta(t, gross-fees, long.PnL, 1e-9)

	short := res.Trades[1]
	assert.Equal(t, domain.SideShort, short.Side)
	assert.Equal(t, domain.ExitEndOfData, short.ExitReason)
	assert.InDelta(t, 99.95, short.EntryPrice, 1e-9)
	assert.InDelta(t, 100.05, short.ExitPrice, 1e-9)

	// Realized trades reconcile exactly with the final balance.
	sum := 0.0
	for _, tr := range res.Trades {
		sum += tr.PnL
	}
	assert.InDelta(t, res.FinalBalance, cfg.InitialCapital+sum, 1e-9)
}

func TestFillHelpers(t *testing.T) {
	assert.InDelta(t, 100.05, entryFill(domain.SideLong, 100, 0.0005), 1e-9)
	assert.InDelta(t, 99.95, exitFill(domain.SideLong, 100, 0.0005), 1e-9)
	assert.InDelta(t, 99.95, entryFill(domain.SideShort, 100, 0.0005), 1e-9)
	assert.InDelta(t, 100.05, exitFill(domain.SideShort, 100, 0.0005), 1e-9)
}

func TestUnknownSignalTreatedAsHold(t *testing.T) {
	engine, err := NewEngine(frictionlessConfig())
	require.NoError(t, err)

	series := domain.Series{
		candleAt(0, 100, 100.5, 99.5, 100),
		candleAt(1, 100, 100.5, 99.5, 100),
	}
	strat := &scriptedStrategy{signals: []domain.Signal{
		{Action: domain.Action("YOLO"), Confidence: 99},
	}}

	res, err := engine.Run("BTC/USD", series, strat)
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.InDelta(t, 0.0, res.ExposureTime, 1e-9)
}

func TestWrongSideLevelsDropped(t *testing.T) {
	engine, err := NewEngine(frictionlessConfig())
	require.NoError(t, err)

	// Three flat candles; any exit other than the forced one at the end
	// of data would be a fill the market never justified.
	series := domain.Series{
		candleAt(0, 100, 100.5, 99.5, 100),
		candleAt(1, 100, 100.5, 99.5, 100),
		candleAt(2, 100, 100.5, 99.5, 100),
	}

	cases := []struct {
		name   string
		signal domain.Signal
	}{
		{"long stop above entry", buy(105, 0)},
		{"long take profit below entry", buy(0, 95)},
		{"short stop below entry", sell(95, 0)},
		{"short take profit above entry", sell(0, 105)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			strat := &scriptedStrategy{signals: []domain.Signal{tc.signal}}

			res, err := engine.Run("BTC/USD", series, strat)
			require.NoError(t, err)

			// The bogus level is dropped, not filled: the position rides
			// to the end of data and the flat market yields zero PnL.
			require.Len(t, res.Trades, 1)
			assert.Equal(t, domain.ExitEndOfData, res.Trades[0].ExitReason)
			assert.InDelta(t, 0.0, res.Trades[0].PnL, 1e-9)
			assert.InDelta(t, 100.0, res.Trades[0].ExitPrice, 1e-9)
		})
	}
}

func TestSameSideSignalIgnoredWhileHolding(t *testing.T) {
	engine, err := NewEngine(frictionlessConfig())
	require.NoError(t, err)

	series := domain.Series{
		candleAt(0, 100, 100.5, 99.5, 100),
		candleAt(1, 100, 100.5, 99.5, 100),
		candleAt(2, 100, 100.5, 99.5, 100),
	}
	strat := &scriptedStrategy{signals: []domain.Signal{buy(90, 0), buy(90, 0), buy(90, 0)}}

	res, err := engine.Run("BTC/USD", series, strat)
	require.NoError(t, err)

	// One entry, one forced close.
	require.Len(t, res.Trades, 1)
	assert.Equal(t, domain.ExitEndOfData, res.Trades[0].ExitReason)
	assert.InDelta(t, 100.0, res.ExposureTime, 1e-9)
}

func TestRunIsIdempotent(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	series := domain.Series{
		candleAt(0, 100, 100.5, 99.5, 100),
		candleAt(1, 100, 102, 99, 101),
		candleAt(2, 101, 103, 100, 102),
		candleAt(3, 102, 104, 96, 97),
	}
	strat := func() *scriptedStrategy {
		return &scriptedStrategy{signals: []domain.Signal{buy(95, 103), domain.Hold(), sell(0, 0)}}
	}

	first, err := engine.Run("BTC/USD", series, strat())
	require.NoError(t, err)
	second, err := engine.Run("BTC/USD", series, strat())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunRejectsInvalidInputs(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	_, err = engine.Run("BTC/USD", nil, &scriptedStrategy{})
	assert.Error(t, err)

	_, err = engine.Run("BTC/USD", domain.Series{candleAt(0, 100, 99, 101, 100)}, &scriptedStrategy{})
	assert.Error(t, err)

	_, err = engine.Run("BTC/USD", domain.Series{candleAt(0, 100, 101, 99, 100)}, nil)
	assert.Error(t, err)
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialCapital = 0
	_, err := NewEngine(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.RiskPerTrade = 1.5
	_, err = NewEngine(cfg)
	assert.Error(t, err)
}

func TestEquityCurveStaysNonNegativeAndCountsReconcile(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	series := make(domain.Series, 0, 40)
	price := 100.0
	for i := 0; i < 40; i++ {
		lo, hi := price*0.99, price*1.01
		series = append(series, candleAt(i, price, hi, lo, price))
		if i%2 == 0 {
			price *= 1.02
		} else {
			price *= 0.97
		}
	}

	strat := &scriptedStrategy{}
	for i := 0; i < 40; i++ {
		if i%3 == 0 {
			strat.signals = append(strat.signals, buy(price*0.5, 0))
		} else if i%3 == 1 {
			strat.signals = append(strat.signals, sell(price*2, 0))
		} else {
			strat.signals = append(strat.signals, domain.Hold())
		}
	}

	res, err := engine.Run("BTC/USD", series, strat)
	require.NoError(t, err)

	require.Len(t, res.EquityCurve, len(series))
	for _, p := range res.EquityCurve {
		assert.GreaterOrEqual(t, p.Balance, 0.0)
	}

	assert.Equal(t, res.TotalTrades, res.WinningTrades+res.LosingTrades)
	for _, tr := range res.Trades {
		if tr.PnL > 0 {
			assert.Greater(t, tr.PnLPct, 0.0)
		} else if tr.PnL < 0 {
			assert.Less(t, tr.PnLPct, 0.0)
		}
	}
}
