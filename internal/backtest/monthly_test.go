package backtest

import (
	"testing"
	"time"

	"polysim/internal/types"
)

func TestComputeMonthlyReturns(t *testing.T) {
	curve := []EquityPoint{
		{Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Equity: 100},
		{Timestamp: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Equity: 110},
		{Timestamp: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), Equity: 99},
		{Timestamp: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Equity: 120},
	}
	trades := []types.Trade{
		{ID: "t1", ExitTime: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
	}

	months := ComputeMonthlyReturns(curve, trades)
	if len(months) != 3 {
		t.Fatalf("got %d months, want 3", len(months))
	}

	jan, feb, mar := months[0], months[1], months[2]

	if jan.Year != 2024 || jan.Month != time.January {
		t.Errorf("first month = %d-%v, want 2024-January", jan.Year, jan.Month)
	}
	// First month is measured from its own first point.
	if !approxEqual(jan.Return, 0.1) {
		t.Errorf("January return = %v, want 0.1", jan.Return)
	}
	// Later months are measured from the previous month's close.
	if !approxEqual(feb.Return, -0.1) {
		t.Errorf("February return = %v, want -0.1", feb.Return)
	}
	if !approxEqual(mar.Return, 21.0/99.0) {
		t.Errorf("March return = %v, want 21/99", mar.Return)
	}

	if jan.Trades != 0 || feb.Trades != 1 || mar.Trades != 0 {
		t.Errorf("trade attribution = %d/%d/%d, want the trade in its exit month",
			jan.Trades, feb.Trades, mar.Trades)
	}
}

func TestComputeMonthlyReturnsYearBoundary(t *testing.T) {
	curve := []EquityPoint{
		{Timestamp: time.Date(2023, 12, 20, 0, 0, 0, 0, time.UTC), Equity: 100},
		{Timestamp: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), Equity: 105},
	}

	months := ComputeMonthlyReturns(curve, nil)
	if len(months) != 2 {
		t.Fatalf("got %d months, want 2", len(months))
	}
	if months[0].Year != 2023 || months[0].Month != time.December {
		t.Errorf("first bucket = %d-%v", months[0].Year, months[0].Month)
	}
	if months[1].Year != 2024 || months[1].Month != time.January {
		t.Errorf("second bucket = %d-%v", months[1].Year, months[1].Month)
	}
	if !approxEqual(months[1].Return, 0.05) {
		t.Errorf("January return = %v, want 0.05", months[1].Return)
	}
}

func TestComputeMonthlyReturnsSingleMonth(t *testing.T) {
	curve := []EquityPoint{
		{Timestamp: testBase, Equity: 100},
		{Timestamp: testBase.Add(time.Hour), Equity: 103},
	}

	months := ComputeMonthlyReturns(curve, nil)
	if len(months) != 1 {
		t.Fatalf("got %d months, want 1", len(months))
	}
	if !approxEqual(months[0].Return, 0.03) {
		t.Errorf("return = %v, want 0.03", months[0].Return)
	}
}

func TestComputeMonthlyReturnsEmpty(t *testing.T) {
	if months := ComputeMonthlyReturns(nil, nil); months != nil {
		t.Errorf("got %v, want nil for an empty curve", months)
	}
}
