package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLongPositionPnL(t *testing.T) {
	pos, err := OpenPosition("BTC/USD", SideLong, time.Now(), 100.0, 1.0, 95.0, 110.0)
	require.NoError(t, err)

	assert.InDelta(t, 5.0, pos.PnL(105.0), 1e-9)
	assert.InDelta(t, 5.0, pos.PnLPct(105.0), 1e-9)

	assert.InDelta(t, -3.0, pos.PnL(97.0), 1e-9)
	assert.InDelta(t, -3.0, pos.PnLPct(97.0), 1e-9)
}

func TestShortPositionPnL(t *testing.T) {
	pos, err := OpenPosition("BTC/USD", SideShort, time.Now(), 100.0, 2.0, 105.0, 90.0)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, pos.PnL(95.0), 1e-9)
	assert.InDelta(t, 5.0, pos.PnLPct(95.0), 1e-9)

	assert.InDelta(t, -10.0, pos.PnL(105.0), 1e-9)
}

func TestLongStopAndTargetTriggers(t *testing.T) {
	pos, err := OpenPosition("BTC/USD", SideLong, time.Now(), 100.0, 1.0, 95.0, 110.0)
	require.NoError(t, err)

	assert.False(t, pos.StopHit(96.0))
	assert.True(t, pos.StopHit(94.0))
	assert.True(t, pos.StopHit(95.0))

	assert.False(t, pos.TargetHit(109.0))
	assert.True(t, pos.TargetHit(111.0))
	assert.True(t, pos.TargetHit(110.0))
}

func TestShortStopAndTargetTriggers(t *testing.T) {
	pos, err := OpenPosition("BTC/USD", SideShort, time.Now(), 100.0, 1.0, 105.0, 90.0)
	require.NoError(t, err)

	assert.False(t, pos.StopHit(104.0))
	assert.True(t, pos.StopHit(106.0))

	assert.False(t, pos.TargetHit(91.0))
	assert.True(t, pos.TargetHit(89.0))
}

func TestZeroLevelsNeverTrigger(t *testing.T) {
	pos, err := OpenPosition("BTC/USD", SideLong, time.Now(), 100.0, 1.0, 0, 0)
	require.NoError(t, err)

	assert.False(t, pos.StopHit(0.0001))
	assert.False(t, pos.TargetHit(1e12))
}

func TestOpenPositionRejectsBadInputs(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name  string
		side  Side
		price float64
		size  float64
	}{
		{"bad side", Side("DIAGONAL"), 100, 1},
		{"zero price", SideLong, 0, 1},
		{"negative price", SideLong, -5, 1},
		{"zero size", SideLong, 100, 0},
		{"negative size", SideShort, 100, -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := OpenPosition("BTC/USD", tc.side, now, tc.price, tc.size, 0, 0)
			assert.Error(t, err)
		})
	}
}

func TestCloseTradePnLPctSignMatchesPnL(t *testing.T) {
	now := time.Now()
	pos, err := OpenPosition("BTC/USD", SideLong, now, 100.0, 2.0, 0, 0)
	require.NoError(t, err)

	win := CloseTrade(pos, now.Add(time.Hour), 110.0, 19.5, ExitTakeProfit)
	assert.Greater(t, win.PnL, 0.0)
	assert.Greater(t, win.PnLPct, 0.0)
	assert.Equal(t, time.Hour, win.HoldingPeriod)

	loss := CloseTrade(pos, now.Add(2*time.Hour), 90.0, -20.5, ExitStopLoss)
	assert.Less(t, loss.PnL, 0.0)
	assert.Less(t, loss.PnLPct, 0.0)
	assert.Equal(t, ExitStopLoss, loss.ExitReason)
}
