package types

import "time"

// ExitReason identifies which condition closed a position
type ExitReason string

const (
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
	ExitExpired    ExitReason = "expired"
	ExitResolved   ExitReason = "resolved"
	ExitEndOfData  ExitReason = "end_of_data"
)

// Outcome classifies a closed trade by its realized pnl
type Outcome string

const (
	OutcomeWin       Outcome = "win"
	OutcomeLoss      Outcome = "loss"
	OutcomeBreakeven Outcome = "breakeven"
)

// Trade is the immutable record of a closed position
type Trade struct {
	ID         string     `json:"id"`
	MarketID   string     `json:"market_id"`
	Side       Side       `json:"side"`
	Size       float64    `json:"size"`
	EntryPrice float64    `json:"entry_price"`
	EntryTime  time.Time  `json:"entry_time"`
	ExitPrice  float64    `json:"exit_price"`
	ExitTime   time.Time  `json:"exit_time"`
	PnL        float64    `json:"pnl"`
	PnLPercent float64    `json:"pnl_percent"`
	Fees       float64    `json:"fees"`
	Slippage   float64    `json:"slippage"`
	ExitReason ExitReason `json:"exit_reason"`
	Signal     Signal     `json:"signal"`
}

// Outcome classifies the trade. A pnl of exactly zero is breakeven; there
// is no epsilon tolerance.
func (t Trade) Outcome() Outcome {
	if t.PnL > 0 {
		return OutcomeWin
	}
	if t.PnL < 0 {
		return OutcomeLoss
	}
	return OutcomeBreakeven
}

// Duration returns how long the position behind this trade was held
func (t Trade) Duration() time.Duration {
	return t.ExitTime.Sub(t.EntryTime)
}

// ExecutionResult is delivered to the strategy when one of its signals has
// been closed out
type ExecutionResult struct {
	Trade   Trade   `json:"trade"`
	Outcome Outcome `json:"outcome"`
}
