package provider

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"polysim/internal/config"
	"polysim/internal/types"
)

// SyntheticProvider generates a deterministic random-walk price series.
// The same seed, market and window always produce the same snapshots,
// which makes it useful for demos and strategy smoke tests.
type SyntheticProvider struct {
	seed         int64
	interval     time.Duration
	initialPrice float64
	volatility   float64
}

// NewSyntheticProvider creates a generator from its config section
func NewSyntheticProvider(cfg config.SyntheticProviderConfig) (*SyntheticProvider, error) {
	interval, err := time.ParseDuration(cfg.Interval)
	if err != nil {
		return nil, fmt.Errorf("invalid synthetic interval %q: %w", cfg.Interval, err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("synthetic interval must be positive")
	}

	p := &SyntheticProvider{
		seed:         cfg.Seed,
		interval:     interval,
		initialPrice: cfg.InitialPrice,
		volatility:   cfg.Volatility,
	}
	if p.seed == 0 {
		p.seed = 42
	}
	if p.initialPrice <= 0 || p.initialPrice >= 1 {
		p.initialPrice = 0.5
	}
	if p.volatility <= 0 {
		p.volatility = 0.02
	}
	return p, nil
}

// GetHistoricalData generates one snapshot per interval across the
// window. Both bounds must be set since there is no data to infer them
// from.
func (p *SyntheticProvider) GetHistoricalData(ctx context.Context, marketID string, start, end time.Time) ([]types.Snapshot, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("synthetic provider requires explicit start and end times")
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("start %s is not before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Derive a per-market seed so different markets walk independently
	// but reproducibly.
	h := fnv.New64a()
	h.Write([]byte(marketID))
	rng := rand.New(rand.NewSource(p.seed ^ int64(h.Sum64())))

	var snapshots []types.Snapshot
	price := p.initialPrice
	for ts := start.Truncate(p.interval); !ts.After(end); ts = ts.Add(p.interval) {
		if ts.Before(start) {
			continue
		}

		price += p.priceChange(rng, price)

		// Keep the price a valid probability
		if price < 0.01 {
			price = 0.01
		}
		if price > 0.99 {
			price = 0.99
		}

		snapshots = append(snapshots, types.Snapshot{
			MarketID:  marketID,
			Timestamp: ts,
			Price:     price,
			Volume:    1000 + rng.Float64()*5000,
			Liquidity: 10000 + rng.Float64()*50000,
		})
	}
	return snapshots, nil
}

// priceChange draws the next move: a random walk scaled by volatility
// plus weak mean reversion toward the initial price, clamped to 5%.
func (p *SyntheticProvider) priceChange(rng *rand.Rand, price float64) float64 {
	randomWalk := (rng.Float64() - 0.5) * 2 * p.volatility * price
	meanReversion := -0.1 * (price - p.initialPrice) * 0.01
	noise := rng.NormFloat64() * p.volatility * price * 0.1

	change := randomWalk + meanReversion + noise

	maxChange := price * 0.05
	if change > maxChange {
		change = maxChange
	} else if change < -maxChange {
		change = -maxChange
	}
	return change
}
