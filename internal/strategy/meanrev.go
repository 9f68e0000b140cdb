package strategy

import (
	"fmt"
	"time"

	"github.com/cinar/indicator"

	"polysim/internal/types"
)

func init() {
	Register("meanrev", func() Strategy { return NewMeanRevStrategy() })
}

// Bollinger bands use a fixed 20 period window
const bollingerPeriod = 20

// MeanRevStrategy fades moves outside the Bollinger bands: a close below
// the lower band opens a long back toward the middle band, a close above
// the upper band opens a short.
type MeanRevStrategy struct {
	stopPct      float64
	holdDuration time.Duration
	riskFraction float64

	history *historySet
}

// NewMeanRevStrategy creates the strategy with default parameters
func NewMeanRevStrategy() *MeanRevStrategy {
	return &MeanRevStrategy{
		stopPct:      0.15,
		holdDuration: 14 * 24 * time.Hour,
		riskFraction: 0.04,
		history:      newHistorySet(maxHistory),
	}
}

// Name returns the strategy identifier
func (s *MeanRevStrategy) Name() string { return "meanrev" }

// Initialize applies run parameters and resets per-run state
func (s *MeanRevStrategy) Initialize(params map[string]interface{}) error {
	p := Params(params)
	s.stopPct = p.Float("stop_pct", s.stopPct)
	s.holdDuration = p.Duration("hold_duration", s.holdDuration)
	s.riskFraction = p.Float("risk_fraction", s.riskFraction)

	if s.stopPct <= 0 || s.stopPct >= 1 {
		return fmt.Errorf("stop pct must be in (0, 1)")
	}
	if s.riskFraction <= 0 || s.riskFraction > 1 {
		return fmt.Errorf("risk fraction must be in (0, 1]")
	}

	s.history.reset()
	return nil
}

// GenerateSignals fades band breaches, targeting the middle band
func (s *MeanRevStrategy) GenerateSignals(snapshots []types.Snapshot) ([]types.Signal, error) {
	var signals []types.Signal

	for _, snap := range snapshots {
		mh := s.history.observe(snap)
		if mh.size() < bollingerPeriod+1 {
			continue
		}

		middle, upper, lower := indicator.BollingerBands(mh.prices)

		n := len(mh.prices)
		price := snap.Price

		var side types.Side
		var reason string
		switch {
		case price < lower[n-1]:
			side = types.SideLong
			reason = fmt.Sprintf("price %.4f below lower band %.4f", price, lower[n-1])
		case price > upper[n-1]:
			side = types.SideShort
			reason = fmt.Sprintf("price %.4f above upper band %.4f", price, upper[n-1])
		default:
			continue
		}

		sig := types.NewSignal(snap.MarketID, side, price, snap.Timestamp)
		sig.Strategy = s.Name()
		sig.Reason = reason
		sig.TakeProfit = middle[n-1]
		if side == types.SideLong {
			sig.StopLoss = price * (1 - s.stopPct)
		} else {
			sig.StopLoss = price * (1 + s.stopPct)
		}
		if s.holdDuration > 0 {
			sig.ExpiresAt = snap.Timestamp.Add(s.holdDuration)
		}
		signals = append(signals, sig)
	}
	return signals, nil
}

// ValidateSignal requires the middle-band target to still be on the
// profitable side of the entry
func (s *MeanRevStrategy) ValidateSignal(sig types.Signal) bool {
	if sig.Price <= 0 {
		return false
	}
	if sig.Side == types.SideLong {
		return sig.TakeProfit > sig.Price && sig.StopLoss < sig.Price
	}
	return sig.TakeProfit < sig.Price && sig.StopLoss > sig.Price
}

// PositionSize allocates a fixed fraction of equity per trade
func (s *MeanRevStrategy) PositionSize(sig types.Signal, equity float64) float64 {
	if sig.Price <= 0 || equity <= 0 {
		return 0
	}
	return equity * s.riskFraction / sig.Price
}

// OnSignalExecuted is a no-op for this strategy
func (s *MeanRevStrategy) OnSignalExecuted(sig types.Signal, res types.ExecutionResult) error {
	return nil
}
