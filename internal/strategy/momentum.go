package strategy

import (
	"fmt"
	"time"

	"github.com/cinar/indicator"

	"polysim/internal/types"
)

func init() {
	Register("momentum", func() Strategy { return NewMomentumStrategy() })
}

// MomentumStrategy trades moving-average crossovers. A fast SMA crossing
// above the slow SMA opens a long, crossing below opens a short. RSI
// gates entries so it does not chase already-stretched moves.
type MomentumStrategy struct {
	fastPeriod   int
	slowPeriod   int
	rsiCeiling   float64
	rsiFloor     float64
	stopPct      float64
	targetPct    float64
	holdDuration time.Duration
	riskFraction float64

	history *historySet
	wins    int
	losses  int
}

// NewMomentumStrategy creates the strategy with default parameters
func NewMomentumStrategy() *MomentumStrategy {
	return &MomentumStrategy{
		fastPeriod:   10,
		slowPeriod:   30,
		rsiCeiling:   70,
		rsiFloor:     30,
		stopPct:      0.10,
		targetPct:    0.20,
		holdDuration: 7 * 24 * time.Hour,
		riskFraction: 0.05,
		history:      newHistorySet(maxHistory),
	}
}

// Name returns the strategy identifier
func (s *MomentumStrategy) Name() string { return "momentum" }

// Initialize applies run parameters and resets per-run state
func (s *MomentumStrategy) Initialize(params map[string]interface{}) error {
	p := Params(params)
	s.fastPeriod = p.Int("fast_period", s.fastPeriod)
	s.slowPeriod = p.Int("slow_period", s.slowPeriod)
	s.rsiCeiling = p.Float("rsi_ceiling", s.rsiCeiling)
	s.rsiFloor = p.Float("rsi_floor", s.rsiFloor)
	s.stopPct = p.Float("stop_pct", s.stopPct)
	s.targetPct = p.Float("target_pct", s.targetPct)
	s.holdDuration = p.Duration("hold_duration", s.holdDuration)
	s.riskFraction = p.Float("risk_fraction", s.riskFraction)

	if s.fastPeriod <= 0 || s.slowPeriod <= 0 {
		return fmt.Errorf("momentum periods must be positive")
	}
	if s.fastPeriod >= s.slowPeriod {
		return fmt.Errorf("fast period %d must be shorter than slow period %d", s.fastPeriod, s.slowPeriod)
	}
	if s.riskFraction <= 0 || s.riskFraction > 1 {
		return fmt.Errorf("risk fraction must be in (0, 1]")
	}

	s.history.reset()
	s.wins, s.losses = 0, 0
	return nil
}

// GenerateSignals looks for a crossover on every tradable market in the
// frame
func (s *MomentumStrategy) GenerateSignals(snapshots []types.Snapshot) ([]types.Signal, error) {
	var signals []types.Signal

	for _, snap := range snapshots {
		mh := s.history.observe(snap)
		if mh.size() < s.slowPeriod+1 {
			continue
		}

		fast := indicator.Sma(s.fastPeriod, mh.prices)
		slow := indicator.Sma(s.slowPeriod, mh.prices)
		_, rsi := indicator.Rsi(mh.prices)

		n := len(mh.prices)
		crossedUp := fast[n-2] <= slow[n-2] && fast[n-1] > slow[n-1]
		crossedDown := fast[n-2] >= slow[n-2] && fast[n-1] < slow[n-1]
		currentRSI := rsi[n-1]

		var side types.Side
		var reason string
		switch {
		case crossedUp && currentRSI < s.rsiCeiling:
			side = types.SideLong
			reason = fmt.Sprintf("fast SMA crossed above slow, RSI %.1f", currentRSI)
		case crossedDown && currentRSI > s.rsiFloor:
			side = types.SideShort
			reason = fmt.Sprintf("fast SMA crossed below slow, RSI %.1f", currentRSI)
		default:
			continue
		}

		sig := types.NewSignal(snap.MarketID, side, snap.Price, snap.Timestamp)
		sig.Strategy = s.Name()
		sig.Reason = reason
		if side == types.SideLong {
			sig.StopLoss = snap.Price * (1 - s.stopPct)
			sig.TakeProfit = snap.Price * (1 + s.targetPct)
		} else {
			sig.StopLoss = snap.Price * (1 + s.stopPct)
			sig.TakeProfit = snap.Price * (1 - s.targetPct)
		}
		if s.holdDuration > 0 {
			sig.ExpiresAt = snap.Timestamp.Add(s.holdDuration)
		}
		signals = append(signals, sig)
	}
	return signals, nil
}

// ValidateSignal checks the exits sit on the correct side of the entry
func (s *MomentumStrategy) ValidateSignal(sig types.Signal) bool {
	if sig.Price <= 0 {
		return false
	}
	if sig.Side == types.SideLong {
		return sig.StopLoss < sig.Price && sig.TakeProfit > sig.Price
	}
	return sig.StopLoss > sig.Price && sig.TakeProfit < sig.Price
}

// PositionSize allocates a fixed fraction of equity per trade
func (s *MomentumStrategy) PositionSize(sig types.Signal, equity float64) float64 {
	if sig.Price <= 0 || equity <= 0 {
		return 0
	}
	return equity * s.riskFraction / sig.Price
}

// OnSignalExecuted tracks the win/loss tally
func (s *MomentumStrategy) OnSignalExecuted(sig types.Signal, res types.ExecutionResult) error {
	switch res.Outcome {
	case types.OutcomeWin:
		s.wins++
	case types.OutcomeLoss:
		s.losses++
	}
	return nil
}
