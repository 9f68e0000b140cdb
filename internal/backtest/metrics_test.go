package backtest

import (
	"testing"
	"time"

	"polysim/internal/types"
)

func tradesWithPnL(pnls ...float64) []types.Trade {
	trades := make([]types.Trade, len(pnls))
	for i, pnl := range pnls {
		trades[i] = types.Trade{
			ID:        string(rune('a' + i)),
			PnL:       pnl,
			EntryTime: testBase,
			ExitTime:  testBase.Add(time.Duration(i+1) * time.Hour),
		}
	}
	return trades
}

func TestBuildSummary(t *testing.T) {
	summary := buildSummary(tradesWithPnL(-10, -5, 30), 10000, 10015)

	if summary.TotalTrades != 3 || summary.Winning != 1 || summary.Losing != 2 {
		t.Fatalf("counts = %d/%d/%d, want 3 trades, 1 win, 2 losses",
			summary.TotalTrades, summary.Winning, summary.Losing)
	}
	if !approxEqual(summary.WinRate, 1.0/3.0) {
		t.Errorf("WinRate = %v, want 1/3", summary.WinRate)
	}
	if summary.GrossProfit != 30 || summary.GrossLoss != 15 {
		t.Errorf("gross = %v/%v, want 30/15", summary.GrossProfit, summary.GrossLoss)
	}
	if summary.AvgWin != 30 || summary.AvgLoss != 7.5 {
		t.Errorf("averages = %v/%v, want 30/7.5", summary.AvgWin, summary.AvgLoss)
	}
	if summary.LargestWin != 30 || summary.LargestLoss != 10 {
		t.Errorf("extremes = %v/%v, want 30/10", summary.LargestWin, summary.LargestLoss)
	}
	if summary.AvgTradeDuration != 2*time.Hour {
		t.Errorf("AvgTradeDuration = %v, want 2h", summary.AvgTradeDuration)
	}
}

func TestBuildSummaryBreakeven(t *testing.T) {
	summary := buildSummary(tradesWithPnL(0, 10), 100, 110)

	if summary.Breakeven != 1 {
		t.Errorf("Breakeven = %d, want exactly-zero pnl counted separately", summary.Breakeven)
	}
	if summary.Winning != 1 || summary.Losing != 0 {
		t.Errorf("wins/losses = %d/%d", summary.Winning, summary.Losing)
	}
	// The breakeven trade dilutes the win rate.
	if !approxEqual(summary.WinRate, 0.5) {
		t.Errorf("WinRate = %v, want 0.5", summary.WinRate)
	}
}

func TestBuildSummaryEmpty(t *testing.T) {
	summary := buildSummary(nil, 10000, 10000)
	if summary.TotalTrades != 0 || summary.WinRate != 0 || summary.AvgTradeDuration != 0 {
		t.Errorf("empty summary = %+v", summary)
	}
	if summary.FinalEquity != 10000 {
		t.Errorf("FinalEquity = %v, want initial capital", summary.FinalEquity)
	}
}

func TestSharpeRatio(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
		rf      float64
		want    float64
	}{
		{"known value", []float64{0.1, 0.2, 0.15}, 0, 3.0},
		{"risk free subtracted", []float64{0.2, 0.1}, 0.15, 0},
		{"zero variance", []float64{0.1, 0.1, 0.1}, 0, 0},
		{"no returns", nil, 0, 0},
		{"single return", []float64{0.5}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SharpeRatio(tt.returns, tt.rf); !approxEqual(got, tt.want) {
				t.Errorf("SharpeRatio(%v, %v) = %v, want %v", tt.returns, tt.rf, got, tt.want)
			}
		})
	}
}

func TestSortinoRatio(t *testing.T) {
	// Downside deviation is the RMS of the negative excess returns.
	got := SortinoRatio([]float64{0.2, -0.1}, 0)
	if got.Unbounded {
		t.Fatalf("mixed returns should be bounded")
	}
	if !approxEqual(got.Value, 0.5) {
		t.Errorf("SortinoRatio = %v, want 0.05/0.1 = 0.5", got.Value)
	}
}

func TestSortinoRatioNoDownside(t *testing.T) {
	got := SortinoRatio([]float64{0.1, 0.2}, 0)
	if !got.Unbounded {
		t.Errorf("no losing periods should report unbounded, got %+v", got)
	}
}

func TestSortinoRatioEmpty(t *testing.T) {
	got := SortinoRatio(nil, 0)
	if got.Unbounded || got.Value != 0 {
		t.Errorf("empty returns = %+v, want zero ratio", got)
	}
}

func TestCAGR(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
		years      float64
		want       float64
	}{
		{"doubling in two years", 10000, 12100, 2, 0.1},
		{"single year", 10000, 11000, 1, 0.1},
		{"no elapsed time", 10000, 20000, 0, 0},
		{"zero start", 0, 100, 1, 0},
		{"ruin", 10000, -500, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CAGR(tt.start, tt.end, tt.years); !approxEqual(got, tt.want) {
				t.Errorf("CAGR(%v, %v, %v) = %v, want %v", tt.start, tt.end, tt.years, got, tt.want)
			}
		})
	}
}

func TestCalmarRatio(t *testing.T) {
	if got := CalmarRatio(0.1, 0.2); !approxEqual(got, 0.5) {
		t.Errorf("CalmarRatio = %v, want 0.5", got)
	}
	if got := CalmarRatio(0.1, 0); got != 0 {
		t.Errorf("CalmarRatio with no drawdown = %v, want 0", got)
	}
}

func TestProfitFactor(t *testing.T) {
	if got := ProfitFactor(30, 15); got.Unbounded || !approxEqual(got.Value, 2.0) {
		t.Errorf("ProfitFactor(30, 15) = %+v, want 2.0", got)
	}
	if got := ProfitFactor(30, 0); !got.Unbounded {
		t.Errorf("profit with no losses = %+v, want unbounded", got)
	}
	if got := ProfitFactor(0, 0); got.Unbounded || got.Value != 0 {
		t.Errorf("no trades = %+v, want zero ratio", got)
	}
}

func TestExpectancy(t *testing.T) {
	got := Expectancy(1.0/3.0, 30, 2.0/3.0, 7.5)
	if !approxEqual(got, 5) {
		t.Errorf("Expectancy = %v, want 5", got)
	}
}

func TestUlcerIndex(t *testing.T) {
	curve := []EquityPoint{
		{DrawdownPct: 0},
		{DrawdownPct: 0.1},
		{DrawdownPct: 0.2},
		{DrawdownPct: 0.05},
		{DrawdownPct: 0},
	}
	want := 0.10246950765959598 // sqrt(0.0525/5)
	if got := UlcerIndex(curve); !approxEqual(got, want) {
		t.Errorf("UlcerIndex = %v, want %v", got, want)
	}
	if got := UlcerIndex(nil); got != 0 {
		t.Errorf("UlcerIndex(nil) = %v, want 0", got)
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	got := AnnualizedVolatility([]float64{0.1, -0.1}, 4)
	want := 0.282842712474619 // sqrt(0.02) * 2
	if !approxEqual(got, want) {
		t.Errorf("AnnualizedVolatility = %v, want %v", got, want)
	}
	if got := AnnualizedVolatility([]float64{0.1, -0.1}, 0); got != 0 {
		t.Errorf("zero periods per year = %v, want 0", got)
	}
}

func TestStepReturns(t *testing.T) {
	curve := []EquityPoint{{Equity: 100}, {Equity: 110}, {Equity: 99}}
	returns := stepReturns(curve)
	if len(returns) != 2 || !approxEqual(returns[0], 0.1) || !approxEqual(returns[1], -0.1) {
		t.Errorf("stepReturns = %v, want [0.1 -0.1]", returns)
	}

	// A zero previous equity cannot produce a return.
	guarded := stepReturns([]EquityPoint{{Equity: 0}, {Equity: 10}})
	if len(guarded) != 1 || guarded[0] != 0 {
		t.Errorf("stepReturns with zero base = %v, want [0]", guarded)
	}

	if got := stepReturns([]EquityPoint{{Equity: 100}}); got != nil {
		t.Errorf("single point curve = %v, want nil", got)
	}
}

func TestComputeMetricsSpan(t *testing.T) {
	// Exactly one year between the first and last point.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	curve := []EquityPoint{
		{Timestamp: start, Equity: 10000, PeakEquity: 10000},
		{Timestamp: start.Add(time.Duration(365.25 * 24 * float64(time.Hour))), Equity: 11000, PeakEquity: 11000},
	}
	summary := Summary{InitialCapital: 10000, FinalEquity: 11000}

	m := computeMetrics(curve, summary, 0, 365)

	if !approxEqual(m.TotalReturn, 0.1) {
		t.Errorf("TotalReturn = %v, want 0.1", m.TotalReturn)
	}
	if !approxEqual(m.CAGR, 0.1) {
		t.Errorf("CAGR = %v, want 0.1 over exactly one year", m.CAGR)
	}
	if m.MaxDrawdown != 0 || m.MaxDrawdownPct != 0 {
		t.Errorf("drawdown = %v/%v, want none", m.MaxDrawdown, m.MaxDrawdownPct)
	}
	// Monotonic rise has no downside periods.
	if !m.SortinoRatio.Unbounded {
		t.Errorf("SortinoRatio = %+v, want unbounded", m.SortinoRatio)
	}
}
