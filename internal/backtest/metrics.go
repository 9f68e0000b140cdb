package backtest

import "math"

// Ratio is a metric whose denominator can legitimately vanish. When that
// happens with a meaningful numerator the ratio is reported as unbounded
// instead of being coerced to an arbitrary large number.
type Ratio struct {
	Value     float64 `json:"value"`
	Unbounded bool    `json:"unbounded,omitempty"`
}

// Metrics holds the performance statistics of one run. All return and
// drawdown figures are fractions, not percents.
type Metrics struct {
	TotalReturn    float64 `json:"total_return"`
	CAGR           float64 `json:"cagr"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	SortinoRatio   Ratio   `json:"sortino_ratio"`
	CalmarRatio    float64 `json:"calmar_ratio"`
	ProfitFactor   Ratio   `json:"profit_factor"`
	Expectancy     float64 `json:"expectancy"`
	UlcerIndex     float64 `json:"ulcer_index"`
	Volatility     float64 `json:"volatility"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
}

// stepReturns derives simple per-step returns from the equity curve
func stepReturns(curve []EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (curve[i].Equity-prev)/prev)
	}
	return returns
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the sample standard deviation. Fewer than two values gives 0.
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// SharpeRatio is the mean excess return over its standard deviation,
// per period. It is not annualized. A zero deviation gives 0.
func SharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - riskFreeRate
	}

	sd := stdDev(excess)
	if sd == 0 {
		return 0
	}
	return mean(excess) / sd
}

// SortinoRatio penalizes only downside volatility. The denominator is the
// root mean square of the negative excess returns, averaged over their own
// count. A run with no downside returns has no defined denominator and is
// reported unbounded.
func SortinoRatio(returns []float64, riskFreeRate float64) Ratio {
	if len(returns) == 0 {
		return Ratio{}
	}

	excess := make([]float64, len(returns))
	downsideSq := 0.0
	downsideCount := 0
	for i, r := range returns {
		e := r - riskFreeRate
		excess[i] = e
		if e < 0 {
			downsideSq += e * e
			downsideCount++
		}
	}

	if downsideCount == 0 {
		return Ratio{Unbounded: true}
	}

	denom := math.Sqrt(downsideSq / float64(downsideCount))
	if denom == 0 {
		return Ratio{}
	}
	return Ratio{Value: mean(excess) / denom}
}

// CAGR is the compound annual growth rate over the run. Degenerate inputs
// (no elapsed time, non-positive equity) give 0.
func CAGR(startEquity, endEquity, years float64) float64 {
	if years <= 0 || startEquity <= 0 || endEquity <= 0 {
		return 0
	}
	return math.Pow(endEquity/startEquity, 1/years) - 1
}

// CalmarRatio relates compound growth to the worst drawdown fraction
func CalmarRatio(cagr, maxDrawdownPct float64) float64 {
	if maxDrawdownPct == 0 {
		return 0
	}
	return cagr / maxDrawdownPct
}

// ProfitFactor is gross profit over gross loss. With profits and no
// losses the factor is unbounded; with no trades at all it is 0.
func ProfitFactor(grossProfit, grossLoss float64) Ratio {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return Ratio{Unbounded: true}
		}
		return Ratio{}
	}
	return Ratio{Value: grossProfit / grossLoss}
}

// Expectancy is the average pnl to expect from one trade. avgLoss is a
// positive magnitude.
func Expectancy(winRate, avgWin, lossRate, avgLoss float64) float64 {
	return winRate*avgWin - lossRate*avgLoss
}

// UlcerIndex is the root mean square of the fractional drawdowns across
// the whole curve. Deeper and longer underwater stretches raise it.
func UlcerIndex(curve []EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range curve {
		sum += p.DrawdownPct * p.DrawdownPct
	}
	return math.Sqrt(sum / float64(len(curve)))
}

// AnnualizedVolatility scales the per-period return deviation by the
// square root of the number of periods in a year
func AnnualizedVolatility(returns []float64, periodsPerYear float64) float64 {
	if periodsPerYear <= 0 {
		return 0
	}
	return stdDev(returns) * math.Sqrt(periodsPerYear)
}
