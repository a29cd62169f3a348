package domain

import (
	"fmt"
	"math"
	"time"
)

// Side is the direction of a position.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Position is a single open trade. It is mutated only by the simulation
// loop that owns it; at most one position per symbol is open at a time.
type Position struct {
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	EntryTime  time.Time `json:"entry_time"`
	EntryPrice float64   `json:"entry_price"`
	Size       float64   `json:"size"`
	StopLoss   float64   `json:"stop_loss,omitempty"`
	TakeProfit float64   `json:"take_profit,omitempty"`
	EntryFee   float64   `json:"entry_fee"`
}

// OpenPosition constructs a position, rejecting non-positive entry price
// or size before any simulation state can be corrupted by them.
func OpenPosition(symbol string, side Side, entryTime time.Time, entryPrice, size, stopLoss, takeProfit float64) (*Position, error) {
	if side != SideLong && side != SideShort {
		return nil, fmt.Errorf("invalid side %q", side)
	}
	if entryPrice <= 0 || math.IsNaN(entryPrice) || math.IsInf(entryPrice, 0) {
		return nil, fmt.Errorf("entry price must be positive, got %v", entryPrice)
	}
	if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return nil, fmt.Errorf("position size must be positive, got %v", size)
	}

	return &Position{
		Symbol:     symbol,
		Side:       side,
		EntryTime:  entryTime,
		EntryPrice: entryPrice,
		Size:       size,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
	}, nil
}

// PnL returns the unrealized profit or loss at the given price, in
// capital units, before fees.
func (p *Position) PnL(currentPrice float64) float64 {
	if p.Side == SideShort {
		return (p.EntryPrice - currentPrice) * p.Size
	}
	return (currentPrice - p.EntryPrice) * p.Size
}

// PnLPct returns the unrealized P&L as a percentage of the entry
// notional, sign-consistent with PnL.
func (p *Position) PnLPct(currentPrice float64) float64 {
	notional := p.EntryPrice * p.Size
	if notional == 0 {
		return 0
	}
	return p.PnL(currentPrice) / notional * 100
}

// StopHit reports whether the stop-loss triggers at the given price.
// A zero stop means no stop was set.
func (p *Position) StopHit(price float64) bool {
	if p.StopLoss <= 0 {
		return false
	}
	if p.Side == SideShort {
		return price >= p.StopLoss
	}
	return price <= p.StopLoss
}

// TargetHit reports whether the take-profit triggers at the given price.
// A zero target means no target was set.
func (p *Position) TargetHit(price float64) bool {
	if p.TakeProfit <= 0 {
		return false
	}
	if p.Side == SideShort {
		return price <= p.TakeProfit
	}
	return price >= p.TakeProfit
}
