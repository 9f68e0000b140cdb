package types

import (
	"time"
)

// Snapshot represents the observed state of one market at one instant
type Snapshot struct {
	MarketID  string    `json:"market_id"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Liquidity float64   `json:"liquidity"`
	Resolved  bool      `json:"resolved"`
}

// NewSnapshot creates a new Snapshot instance
func NewSnapshot(marketID string, timestamp time.Time, price, volume float64) Snapshot {
	return Snapshot{
		MarketID:  marketID,
		Timestamp: timestamp,
		Price:     price,
		Volume:    volume,
	}
}

// IsTradable returns true if the market can still be entered
func (s Snapshot) IsTradable() bool {
	return s.Price > 0 && !s.Resolved
}

// ImpliedProbability returns the price clamped to the [0, 1] band used by
// binary outcome markets
func (s Snapshot) ImpliedProbability() float64 {
	if s.Price < 0 {
		return 0
	}
	if s.Price > 1 {
		return 1
	}
	return s.Price
}
