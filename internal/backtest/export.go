package backtest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Save writes the result to the given directory as a timestamped JSON
// report plus CSV exports of the trade list and equity curve. It returns
// the path of the JSON report.
func (r *Result) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	base := "backtest_" + r.FinishedAt.Format("20060102_150405")

	reportPath := filepath.Join(dir, base+".json")
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(reportPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	if err := r.saveTradesCSV(filepath.Join(dir, base+"_trades.csv")); err != nil {
		return "", err
	}
	if err := r.saveEquityCSV(filepath.Join(dir, base+"_equity.csv")); err != nil {
		return "", err
	}

	return reportPath, nil
}

func (r *Result) saveTradesCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create trades file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{
		"trade_id", "market_id", "side", "size",
		"entry_price", "entry_time", "exit_price", "exit_time",
		"pnl", "pnl_percent", "fees", "slippage", "exit_reason", "strategy",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write trades header: %w", err)
	}

	for _, t := range r.Trades {
		row := []string{
			t.ID,
			t.MarketID,
			string(t.Side),
			formatFloat(t.Size),
			formatFloat(t.EntryPrice),
			t.EntryTime.Format(time.RFC3339),
			formatFloat(t.ExitPrice),
			t.ExitTime.Format(time.RFC3339),
			formatFloat(t.PnL),
			formatFloat(t.PnLPercent),
			formatFloat(t.Fees),
			formatFloat(t.Slippage),
			string(t.ExitReason),
			t.Signal.Strategy,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write trade row: %w", err)
		}
	}
	return nil
}

func (r *Result) saveEquityCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create equity file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{"timestamp", "equity", "peak_equity", "drawdown", "drawdown_pct"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write equity header: %w", err)
	}

	for _, p := range r.EquityCurve {
		row := []string{
			p.Timestamp.Format(time.RFC3339),
			formatFloat(p.Equity),
			formatFloat(p.PeakEquity),
			formatFloat(p.Drawdown),
			formatFloat(p.DrawdownPct),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write equity row: %w", err)
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
