package types

import (
	"time"

	"github.com/google/uuid"
)

// Position represents an open trading position. It is owned by the
// simulation run that opened it and is only mutated by price marks until it
// is closed into a Trade.
type Position struct {
	ID            string    `json:"id"`
	MarketID      string    `json:"market_id"`
	Side          Side      `json:"side"`
	Size          float64   `json:"size"`
	EntryPrice    float64   `json:"entry_price"`
	EntryTime     time.Time `json:"entry_time"`
	EntrySlippage float64   `json:"entry_slippage"`
	Signal        Signal    `json:"signal"`
	LastPrice     float64   `json:"last_price"`
	LastSeen      time.Time `json:"last_seen"`
}

// NewPosition creates a new position from an accepted signal
func NewPosition(sig Signal, size, entryPrice float64, entryTime time.Time) *Position {
	return &Position{
		ID:         uuid.New().String(),
		MarketID:   sig.MarketID,
		Side:       sig.Side,
		Size:       size,
		EntryPrice: entryPrice,
		EntryTime:  entryTime,
		Signal:     sig,
	}
}

// Mark records the most recent observed market price for the position
func (p *Position) Mark(price float64, ts time.Time) {
	p.LastPrice = price
	p.LastSeen = ts
}

// UnrealizedPnL returns the paper profit at the given price, before fees
func (p *Position) UnrealizedPnL(price float64) float64 {
	if p.Side == SideLong {
		return (price - p.EntryPrice) * p.Size
	}
	return (p.EntryPrice - price) * p.Size
}

// Notional returns the entry value of the position
func (p *Position) Notional() float64 {
	return p.EntryPrice * p.Size
}

// Duration returns how long the position has been open as of ts
func (p *Position) Duration(ts time.Time) time.Duration {
	return ts.Sub(p.EntryTime)
}
