package types

import (
	"time"

	"github.com/google/uuid"
)

// Side represents the direction of a signal or position
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Signal is a candidate trade proposed by a strategy. StopLoss, TakeProfit
// and ExpiresAt are optional; zero values disable the corresponding exit.
type Signal struct {
	ID         string    `json:"id"`
	MarketID   string    `json:"market_id"`
	Side       Side      `json:"side"`
	Price      float64   `json:"price"`
	StopLoss   float64   `json:"stop_loss,omitempty"`
	TakeProfit float64   `json:"take_profit,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
	Strategy   string    `json:"strategy,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewSignal creates a new signal for a market at the given observed price
func NewSignal(marketID string, side Side, price float64, createdAt time.Time) Signal {
	return Signal{
		ID:        uuid.New().String(),
		MarketID:  marketID,
		Side:      side,
		Price:     price,
		CreatedAt: createdAt,
	}
}

// Expired returns true if the signal's expiry has elapsed at the given time
func (s Signal) Expired(now time.Time) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(s.ExpiresAt)
}
