package backtest

import "time"

// DrawdownPeriod describes one stretch spent below a prior equity peak
type DrawdownPeriod struct {
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Duration       time.Duration `json:"duration"`
	MaxDrawdown    float64       `json:"max_drawdown"`
	MaxDrawdownPct float64       `json:"max_drawdown_pct"`
	Recovered      bool          `json:"recovered"`
	RecoveryTime   *time.Time    `json:"recovery_time,omitempty"`
}

// ExtractDrawdownPeriods walks the equity curve and collects every
// underwater stretch. A period opens at the first point with a positive
// drawdown and closes when equity climbs above the peak that preceded it.
// A period still open at the end of the curve is reported with
// Recovered=false and no recovery time.
func ExtractDrawdownPeriods(curve []EquityPoint) []DrawdownPeriod {
	var periods []DrawdownPeriod

	inPeriod := false
	var current DrawdownPeriod
	var startPeak float64

	for _, point := range curve {
		if !inPeriod {
			if point.Drawdown > 0 {
				inPeriod = true
				startPeak = point.PeakEquity
				current = DrawdownPeriod{
					StartTime:      point.Timestamp,
					EndTime:        point.Timestamp,
					MaxDrawdown:    point.Drawdown,
					MaxDrawdownPct: point.DrawdownPct,
				}
			}
			continue
		}

		if point.Equity > startPeak {
			// New high above the old peak closes the period
			recovery := point.Timestamp
			current.EndTime = recovery
			current.Duration = current.EndTime.Sub(current.StartTime)
			current.Recovered = true
			current.RecoveryTime = &recovery
			periods = append(periods, current)
			inPeriod = false
			continue
		}

		current.EndTime = point.Timestamp
		if point.Drawdown > current.MaxDrawdown {
			current.MaxDrawdown = point.Drawdown
		}
		if point.DrawdownPct > current.MaxDrawdownPct {
			current.MaxDrawdownPct = point.DrawdownPct
		}
	}

	if inPeriod {
		current.Duration = current.EndTime.Sub(current.StartTime)
		periods = append(periods, current)
	}

	return periods
}
