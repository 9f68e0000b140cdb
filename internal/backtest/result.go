package backtest

import (
	"time"

	"polysim/internal/types"
)

// Summary aggregates the closed trades of one run. Loss figures are
// positive magnitudes.
type Summary struct {
	TotalTrades      int           `json:"total_trades"`
	Winning          int           `json:"winning"`
	Losing           int           `json:"losing"`
	Breakeven        int           `json:"breakeven"`
	WinRate          float64       `json:"win_rate"`
	GrossProfit      float64       `json:"gross_profit"`
	GrossLoss        float64       `json:"gross_loss"`
	AvgWin           float64       `json:"avg_win"`
	AvgLoss          float64       `json:"avg_loss"`
	LargestWin       float64       `json:"largest_win"`
	LargestLoss      float64       `json:"largest_loss"`
	TotalFees        float64       `json:"total_fees"`
	TotalSlippage    float64       `json:"total_slippage"`
	AvgTradeDuration time.Duration `json:"avg_trade_duration"`
	InitialCapital   float64       `json:"initial_capital"`
	FinalEquity      float64       `json:"final_equity"`
}

// Result is the complete output of one backtest run
type Result struct {
	RunID           string           `json:"run_id"`
	Config          Config           `json:"config"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
	Elapsed         time.Duration    `json:"elapsed"`
	FramesProcessed int              `json:"frames_processed"`
	Summary         Summary          `json:"summary"`
	Metrics         Metrics          `json:"metrics"`
	Trades          []types.Trade    `json:"trades"`
	EquityCurve     []EquityPoint    `json:"equity_curve"`
	DrawdownPeriods []DrawdownPeriod `json:"drawdown_periods"`
	MonthlyReturns  []MonthlyReturn  `json:"monthly_returns"`
}

// buildSummary folds the trade list into aggregate statistics
func buildSummary(trades []types.Trade, initialCapital, finalEquity float64) Summary {
	s := Summary{
		TotalTrades:    len(trades),
		InitialCapital: initialCapital,
		FinalEquity:    finalEquity,
	}

	var totalDuration time.Duration
	for _, trade := range trades {
		s.TotalFees += trade.Fees
		s.TotalSlippage += trade.Slippage
		totalDuration += trade.Duration()

		switch trade.Outcome() {
		case types.OutcomeWin:
			s.Winning++
			s.GrossProfit += trade.PnL
			if trade.PnL > s.LargestWin {
				s.LargestWin = trade.PnL
			}
		case types.OutcomeLoss:
			s.Losing++
			loss := -trade.PnL
			s.GrossLoss += loss
			if loss > s.LargestLoss {
				s.LargestLoss = loss
			}
		default:
			s.Breakeven++
		}
	}

	if s.TotalTrades > 0 {
		s.WinRate = float64(s.Winning) / float64(s.TotalTrades)
		s.AvgTradeDuration = totalDuration / time.Duration(s.TotalTrades)
	}
	if s.Winning > 0 {
		s.AvgWin = s.GrossProfit / float64(s.Winning)
	}
	if s.Losing > 0 {
		s.AvgLoss = s.GrossLoss / float64(s.Losing)
	}

	return s
}

// computeMetrics derives the performance statistics from the curve and
// the trade summary
func computeMetrics(curve []EquityPoint, summary Summary, riskFreeRate, periodsPerYear float64) Metrics {
	m := Metrics{}

	if summary.InitialCapital != 0 {
		m.TotalReturn = (summary.FinalEquity - summary.InitialCapital) / summary.InitialCapital
	}

	for _, p := range curve {
		if p.Drawdown > m.MaxDrawdown {
			m.MaxDrawdown = p.Drawdown
		}
		if p.DrawdownPct > m.MaxDrawdownPct {
			m.MaxDrawdownPct = p.DrawdownPct
		}
	}

	years := 0.0
	if len(curve) >= 2 {
		span := curve[len(curve)-1].Timestamp.Sub(curve[0].Timestamp)
		years = span.Hours() / (24 * 365.25)
	}
	m.CAGR = CAGR(summary.InitialCapital, summary.FinalEquity, years)
	m.CalmarRatio = CalmarRatio(m.CAGR, m.MaxDrawdownPct)

	returns := stepReturns(curve)
	m.SharpeRatio = SharpeRatio(returns, riskFreeRate)
	m.SortinoRatio = SortinoRatio(returns, riskFreeRate)
	m.Volatility = AnnualizedVolatility(returns, periodsPerYear)

	m.ProfitFactor = ProfitFactor(summary.GrossProfit, summary.GrossLoss)

	lossRate := 0.0
	if summary.TotalTrades > 0 {
		lossRate = float64(summary.Losing) / float64(summary.TotalTrades)
	}
	m.Expectancy = Expectancy(summary.WinRate, summary.AvgWin, lossRate, summary.AvgLoss)

	m.UlcerIndex = UlcerIndex(curve)

	return m
}
