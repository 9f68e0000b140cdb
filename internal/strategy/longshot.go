package strategy

import (
	"fmt"
	"time"

	"github.com/cinar/indicator"

	"polysim/internal/types"
)

func init() {
	Register("longshot", func() Strategy { return NewLongshotStrategy() })
}

// LongshotStrategy buys cheap binary-outcome markets when volume picks
// up. A price in the longshot band with volume running above its average
// suggests the crowd is repricing a forgotten outcome.
type LongshotStrategy struct {
	minPrice     float64
	maxPrice     float64
	volumePeriod int
	volumeRatio  float64
	targetPrice  float64
	holdDuration time.Duration
	riskFraction float64

	history *historySet
}

// NewLongshotStrategy creates the strategy with default parameters
func NewLongshotStrategy() *LongshotStrategy {
	return &LongshotStrategy{
		minPrice:     0.02,
		maxPrice:     0.15,
		volumePeriod: 20,
		volumeRatio:  2.0,
		targetPrice:  0.40,
		holdDuration: 30 * 24 * time.Hour,
		riskFraction: 0.02,
		history:      newHistorySet(maxHistory),
	}
}

// Name returns the strategy identifier
func (s *LongshotStrategy) Name() string { return "longshot" }

// Initialize applies run parameters and resets per-run state
func (s *LongshotStrategy) Initialize(params map[string]interface{}) error {
	p := Params(params)
	s.minPrice = p.Float("min_price", s.minPrice)
	s.maxPrice = p.Float("max_price", s.maxPrice)
	s.volumePeriod = p.Int("volume_period", s.volumePeriod)
	s.volumeRatio = p.Float("volume_ratio", s.volumeRatio)
	s.targetPrice = p.Float("target_price", s.targetPrice)
	s.holdDuration = p.Duration("hold_duration", s.holdDuration)
	s.riskFraction = p.Float("risk_fraction", s.riskFraction)

	if s.minPrice <= 0 || s.maxPrice >= 1 || s.minPrice >= s.maxPrice {
		return fmt.Errorf("longshot band [%.2f, %.2f] must sit inside (0, 1)", s.minPrice, s.maxPrice)
	}
	if s.targetPrice <= s.maxPrice {
		return fmt.Errorf("target price %.2f must be above the band", s.targetPrice)
	}
	if s.volumePeriod <= 0 {
		return fmt.Errorf("volume period must be positive")
	}
	if s.riskFraction <= 0 || s.riskFraction > 1 {
		return fmt.Errorf("risk fraction must be in (0, 1]")
	}

	s.history.reset()
	return nil
}

// GenerateSignals buys markets in the longshot band on a volume surge
func (s *LongshotStrategy) GenerateSignals(snapshots []types.Snapshot) ([]types.Signal, error) {
	var signals []types.Signal

	for _, snap := range snapshots {
		mh := s.history.observe(snap)
		if mh.size() < s.volumePeriod+1 {
			continue
		}
		if snap.Price < s.minPrice || snap.Price > s.maxPrice {
			continue
		}

		volumeSMA := indicator.Sma(s.volumePeriod, mh.volumes)
		n := len(mh.volumes)
		avgVolume := volumeSMA[n-2]
		if avgVolume <= 0 || snap.Volume < avgVolume*s.volumeRatio {
			continue
		}

		sig := types.NewSignal(snap.MarketID, types.SideLong, snap.Price, snap.Timestamp)
		sig.Strategy = s.Name()
		sig.Reason = fmt.Sprintf("volume %.0f is %.1fx the %d-frame average", snap.Volume, snap.Volume/avgVolume, s.volumePeriod)
		sig.StopLoss = snap.Price / 2
		sig.TakeProfit = s.targetPrice
		if s.holdDuration > 0 {
			sig.ExpiresAt = snap.Timestamp.Add(s.holdDuration)
		}
		signals = append(signals, sig)
	}
	return signals, nil
}

// ValidateSignal keeps entries inside the probability band
func (s *LongshotStrategy) ValidateSignal(sig types.Signal) bool {
	return sig.Side == types.SideLong && sig.Price >= s.minPrice && sig.Price <= s.maxPrice
}

// PositionSize allocates a small fixed fraction, these are lottery
// tickets
func (s *LongshotStrategy) PositionSize(sig types.Signal, equity float64) float64 {
	if sig.Price <= 0 || equity <= 0 {
		return 0
	}
	return equity * s.riskFraction / sig.Price
}

// OnSignalExecuted is a no-op for this strategy
func (s *LongshotStrategy) OnSignalExecuted(sig types.Signal, res types.ExecutionResult) error {
	return nil
}
