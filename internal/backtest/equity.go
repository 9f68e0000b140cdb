package backtest

import "time"

// EquityPoint records account state after one frame was processed
type EquityPoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Equity      float64   `json:"equity"`
	PeakEquity  float64   `json:"peak_equity"`
	Drawdown    float64   `json:"drawdown"`
	DrawdownPct float64   `json:"drawdown_pct"`
}

// equityTracker accumulates realized pnl and samples the equity curve.
// The peak starts at the initial capital and never decreases.
type equityTracker struct {
	initial float64
	current float64
	peak    float64
	curve   []EquityPoint
}

func newEquityTracker(initialCapital float64) *equityTracker {
	return &equityTracker{
		initial: initialCapital,
		current: initialCapital,
		peak:    initialCapital,
	}
}

// apply books realized pnl into the account
func (t *equityTracker) apply(pnl float64) {
	t.current += pnl
}

// record appends one equity point for a processed frame
func (t *equityTracker) record(ts time.Time) {
	if t.current > t.peak {
		t.peak = t.current
	}

	drawdown := t.peak - t.current
	if drawdown < 0 {
		drawdown = 0
	}

	drawdownPct := 0.0
	if t.peak > 0 {
		drawdownPct = drawdown / t.peak
	}

	t.curve = append(t.curve, EquityPoint{
		Timestamp:   ts,
		Equity:      t.current,
		PeakEquity:  t.peak,
		Drawdown:    drawdown,
		DrawdownPct: drawdownPct,
	})
}
