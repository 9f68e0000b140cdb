package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"polysim/internal/archive"
	"polysim/internal/backtest"
	"polysim/internal/config"
	"polysim/internal/logging"
	"polysim/internal/provider"
	"polysim/internal/strategy"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	AppName           = "polysim"
	AppVersion        = "1.0.0"
	DefaultConfigPath = "./config.json"
)

var (
	configPath   = flag.String("config", DefaultConfigPath, "Path to configuration file")
	scenarioPath = flag.String("scenario", "", "Path to a YAML scenario overlay")
	strategyName = flag.String("strategy", "", "Strategy to run (overrides config)")
	marketList   = flag.String("markets", "", "Comma separated market ids (overrides config)")
	outDir       = flag.String("out", "", "Results directory (overrides config)")
	debugMode    = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	help         = flag.Bool("help", false, "Show help information")
)

func init() {
	flag.Usage = printUsage
}

func main() {
	flag.Parse()

	if *version {
		printVersion()
		os.Exit(0)
	}
	if *help {
		printUsage()
		os.Exit(0)
	}

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *scenarioPath != "" {
		scenario, err := config.LoadScenario(*scenarioPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load scenario: %v\n", err)
			os.Exit(1)
		}
		scenario.Apply(cfg)
	}

	// Flag overrides win over both config and scenario
	if *strategyName != "" {
		cfg.Backtest.Strategy = *strategyName
	}
	if *marketList != "" {
		cfg.Backtest.Markets = splitMarkets(*marketList)
	}
	if *outDir != "" {
		cfg.Backtest.ResultsDirectory = *outDir
	}
	if *debugMode {
		cfg.App.Debug = true
		cfg.Logging.Level = "debug"
	}

	logging.InitGlobalLogger(cfg.Logging)
	logger := logging.GetGlobalLogger()

	logger.WithFields(logrus.Fields{
		"version":  AppVersion,
		"strategy": cfg.Backtest.Strategy,
		"provider": cfg.Backtest.Provider,
		"markets":  len(cfg.Backtest.Markets),
	}).Info("Starting backtest")

	result, err := runBacktest(cfg, logger)
	if err != nil {
		logger.Fatalf("Backtest failed: %v", err)
	}

	printResult(result)

	reportPath, err := result.Save(cfg.Backtest.ResultsDirectory)
	if err != nil {
		logger.Fatalf("Failed to save results: %v", err)
	}
	fmt.Printf("\nReport written to %s (trade and equity CSVs alongside)\n", reportPath)

	if cfg.Archive.Enabled {
		archiveLogger := logging.CreateArchiveLogger()
		if err := archiveResult(cfg.Archive.DSN, result); err != nil {
			archiveLogger.Errorf("Failed to archive result: %v", err)
		} else {
			archiveLogger.Infof("Run %s archived", result.RunID)
		}
	}
}

// runBacktest wires the provider, strategy and engine together and runs
// to completion. Ctrl-C cancels the history fetch.
func runBacktest(cfg *config.Config, logger *logging.Logger) (*backtest.Result, error) {
	if len(cfg.Backtest.Markets) == 0 {
		return nil, fmt.Errorf("no markets configured; set markets in config, scenario, or -markets")
	}

	p, err := provider.New(cfg.Backtest.Provider, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating provider: %w", err)
	}

	s, err := strategy.New(cfg.Backtest.Strategy)
	if err != nil {
		return nil, fmt.Errorf("creating strategy: %w", err)
	}

	start, end, err := cfg.Backtest.TimeRange()
	if err != nil {
		return nil, err
	}

	engineCfg := backtest.Config{
		Strategy:       cfg.Backtest.Strategy,
		Parameters:     cfg.Backtest.Parameters,
		Markets:        cfg.Backtest.Markets,
		StartTime:      start,
		EndTime:        end,
		InitialCapital: cfg.Backtest.InitialCapital,
		MaxPositions:   cfg.Backtest.MaxPositions,
		Slippage:       cfg.Backtest.Slippage,
		FeeRate:        cfg.Backtest.FeeRate,
		MinNotional:    cfg.Backtest.MinNotional,
		RiskFreeRate:   cfg.Backtest.RiskFreeRate,
		PeriodsPerYear: cfg.Backtest.PeriodsPerYear,
		FetchWorkers:   cfg.Backtest.FetchWorkers,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	engine := backtest.NewEngine(engineCfg, p, s, logging.CreateBacktestLogger())
	return engine.Run(ctx)
}

// archiveResult stores the run in the Postgres archive
func archiveResult(dsn string, result *backtest.Result) error {
	arc, err := archive.Open(dsn)
	if err != nil {
		return err
	}
	return arc.SaveResult(result)
}

func splitMarkets(s string) []string {
	var markets []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			markets = append(markets, part)
		}
	}
	return markets
}

// printResult renders the run summary to stdout
func printResult(res *backtest.Result) {
	sum := res.Summary
	met := res.Metrics

	fmt.Printf("\n=== Backtest %s ===\n", res.RunID)
	fmt.Printf("Strategy:        %s\n", res.Config.Strategy)
	fmt.Printf("Frames:          %d (%.2fs)\n", res.FramesProcessed, res.Elapsed.Seconds())
	fmt.Printf("Capital:         %.2f -> %.2f (%+.2f%%)\n",
		sum.InitialCapital, sum.FinalEquity, met.TotalReturn*100)

	fmt.Printf("\nTrades:          %d (%d win / %d loss / %d breakeven)\n",
		sum.TotalTrades, sum.Winning, sum.Losing, sum.Breakeven)
	fmt.Printf("Win rate:        %.1f%%\n", sum.WinRate*100)
	fmt.Printf("Avg win/loss:    %.2f / %.2f\n", sum.AvgWin, sum.AvgLoss)
	fmt.Printf("Fees paid:       %.2f\n", sum.TotalFees)
	fmt.Printf("Avg duration:    %s\n", sum.AvgTradeDuration.Round(time.Minute))

	fmt.Printf("\nSharpe:          %.3f\n", met.SharpeRatio)
	fmt.Printf("Sortino:         %s\n", formatRatio(met.SortinoRatio))
	fmt.Printf("Calmar:          %.3f\n", met.CalmarRatio)
	fmt.Printf("Profit factor:   %s\n", formatRatio(met.ProfitFactor))
	fmt.Printf("Expectancy:      %.4f\n", met.Expectancy)
	fmt.Printf("CAGR:            %.2f%%\n", met.CAGR*100)
	fmt.Printf("Volatility:      %.2f%%\n", met.Volatility*100)
	fmt.Printf("Max drawdown:    %.2f%% (%.2f)\n", met.MaxDrawdownPct*100, met.MaxDrawdown)
	fmt.Printf("Ulcer index:     %.4f\n", met.UlcerIndex)

	if len(res.DrawdownPeriods) > 0 {
		fmt.Printf("\nDrawdown periods:\n")
		for _, dd := range res.DrawdownPeriods {
			status := "recovered"
			if !dd.Recovered {
				status = "open at end"
			}
			fmt.Printf("  %s  depth %.2f%%  %s  (%s)\n",
				dd.StartTime.Format("2006-01-02"), dd.MaxDrawdownPct*100,
				dd.Duration.Round(time.Hour), status)
		}
	}

	if len(res.MonthlyReturns) > 0 {
		fmt.Printf("\nMonthly returns:\n")
		for _, mr := range res.MonthlyReturns {
			fmt.Printf("  %04d-%02d  %+7.2f%%  (%d trades)\n", mr.Year, mr.Month, mr.Return*100, mr.Trades)
		}
	}
}

// formatRatio renders a possibly unbounded ratio
func formatRatio(r backtest.Ratio) string {
	if r.Unbounded {
		return "inf"
	}
	return fmt.Sprintf("%.3f", r.Value)
}

func printUsage() {
	fmt.Printf(`%s %s - prediction market backtesting engine

Usage: %s [options]

Options:
`, AppName, AppVersion, os.Args[0])
	flag.PrintDefaults()
	fmt.Printf(`
Examples:
  %s                                          # Run with default config
  %s -config ./myconfig.json                  # Run with custom config
  %s -scenario ./scenarios/election.yaml      # Overlay a scenario
  %s -strategy meanrev -markets 0xabc,0xdef   # Override strategy and markets
  %s -debug                                   # Verbose logging

Environment Variables:
  POLYMARKET_BASE_URL    Polymarket CLOB endpoint
  ALPACA_API_KEY         Alpaca market data key
  ALPACA_API_SECRET      Alpaca market data secret
  BINANCE_API_KEY        Binance API key (optional, klines are public)
  BINANCE_SECRET_KEY     Binance API secret
  POLYSIM_ARCHIVE_DSN    Postgres DSN for the results archive

A configuration file with defaults is created at %s on first run.
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], DefaultConfigPath)
}

func printVersion() {
	fmt.Printf(`%s %s

Go Version: %s
GOOS: %s
GOARCH: %s
`, AppName, AppVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
