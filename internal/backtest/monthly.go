package backtest

import (
	"time"

	"polysim/internal/types"
)

// MonthlyReturn is the equity change over one calendar month
type MonthlyReturn struct {
	Year   int        `json:"year"`
	Month  time.Month `json:"month"`
	Return float64    `json:"return"`
	Trades int        `json:"trades"`
}

// ComputeMonthlyReturns buckets the equity curve by calendar month. Each
// month's return is measured from the previous month's closing equity to
// this month's closing equity; the first month is measured from its own
// first point. Trades are attributed to the month they closed in.
func ComputeMonthlyReturns(curve []EquityPoint, trades []types.Trade) []MonthlyReturn {
	if len(curve) == 0 {
		return nil
	}

	tradesByMonth := make(map[int]int)
	for _, trade := range trades {
		tradesByMonth[monthKey(trade.ExitTime)]++
	}

	var months []MonthlyReturn

	currentKey := monthKey(curve[0].Timestamp)
	currentYear, currentMonth := curve[0].Timestamp.Year(), curve[0].Timestamp.Month()
	base := curve[0].Equity
	last := curve[0].Equity

	flush := func() {
		ret := 0.0
		if base != 0 {
			ret = (last - base) / base
		}
		months = append(months, MonthlyReturn{
			Year:   currentYear,
			Month:  currentMonth,
			Return: ret,
			Trades: tradesByMonth[currentKey],
		})
	}

	for _, point := range curve[1:] {
		key := monthKey(point.Timestamp)
		if key != currentKey {
			flush()
			currentKey = key
			currentYear, currentMonth = point.Timestamp.Year(), point.Timestamp.Month()
			base = last
		}
		last = point.Equity
	}
	flush()

	return months
}

func monthKey(ts time.Time) int {
	return ts.Year()*100 + int(ts.Month())
}
