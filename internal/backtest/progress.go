package backtest

import (
	"time"

	"polysim/internal/logging"
)

// progressTracker logs replay progress at roughly 10% intervals. Short
// runs stay quiet.
type progressTracker struct {
	logger *logging.Logger
	total  int
	every  int
	start  time.Time
}

func newProgressTracker(logger *logging.Logger, total int) *progressTracker {
	every := total / 10
	if total < 200 {
		every = 0
	}
	return &progressTracker{
		logger: logger,
		total:  total,
		every:  every,
		start:  time.Now(),
	}
}

func (p *progressTracker) step(done int, equity float64, openPositions int) {
	if p.every == 0 || done%p.every != 0 {
		return
	}
	pct := float64(done) / float64(p.total) * 100
	p.logger.Infof("Processed %d/%d frames (%.0f%%), equity %.2f, %d open, elapsed %s",
		done, p.total, pct, equity, openPositions, time.Since(p.start).Round(time.Millisecond))
}
