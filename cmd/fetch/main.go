package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"polysim/internal/config"
	"polysim/internal/logging"
	"polysim/internal/provider"
	"polysim/internal/store"
	"polysim/internal/types"

	"github.com/joho/godotenv"
)

// fetch downloads snapshot history from a remote provider into the local
// snapshot store (or per-market CSV files), so backtests can replay it
// offline via the sqlite or csv provider.

var (
	configPath   = flag.String("config", "./config.json", "Path to configuration file")
	providerName = flag.String("provider", "polymarket", "Source provider: polymarket, alpaca, binance, synthetic")
	marketList   = flag.String("markets", "", "Comma separated market ids (required)")
	startDate    = flag.String("start", "", "Window start, e.g. 2024-01-01 (required)")
	endDate      = flag.String("end", "", "Window end (required)")
	interval     = flag.String("interval", "", "Optional resample interval, e.g. 1h")
	dbPath       = flag.String("db", "", "Snapshot store path (overrides config)")
	csvDir       = flag.String("dir", "", "Write per-market CSV files here instead of the store")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.InitGlobalLogger(cfg.Logging)
	logger := logging.CreateProviderLogger()

	markets := splitMarkets(*marketList)
	if len(markets) == 0 {
		fmt.Fprintln(os.Stderr, "-markets is required")
		flag.Usage()
		os.Exit(1)
	}
	if *startDate == "" || *endDate == "" {
		fmt.Fprintln(os.Stderr, "-start and -end are required")
		flag.Usage()
		os.Exit(1)
	}

	start, err := config.ParseDate(*startDate)
	if err != nil {
		logger.Fatalf("Invalid start date: %v", err)
	}
	end, err := config.ParseDate(*endDate)
	if err != nil {
		logger.Fatalf("Invalid end date: %v", err)
	}
	if !start.Before(end) {
		logger.Fatalf("Start %s must be before end %s", *startDate, *endDate)
	}

	var resample time.Duration
	if *interval != "" {
		resample, err = time.ParseDuration(*interval)
		if err != nil {
			logger.Fatalf("Invalid interval: %v", err)
		}
	}

	src, err := provider.New(*providerName, cfg)
	if err != nil {
		logger.Fatalf("Creating provider: %v", err)
	}

	storePath := cfg.Providers.SQLite.Path
	if *dbPath != "" {
		storePath = *dbPath
	}
	var db *store.Store
	if *csvDir != "" {
		if err := os.MkdirAll(*csvDir, 0o755); err != nil {
			logger.Fatalf("Creating CSV directory: %v", err)
		}
	} else {
		db, err = store.Open(storePath)
		if err != nil {
			logger.Fatalf("Opening snapshot store: %v", err)
		}
		defer db.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	total := 0
	failed := 0
	for _, marketID := range markets {
		snaps, err := src.GetHistoricalData(ctx, marketID, start, end)
		if err != nil {
			logger.Errorf("Fetching %s: %v", marketID, err)
			failed++
			continue
		}
		if resample > 0 {
			snaps = provider.Resample(snaps, resample)
		}
		if len(snaps) == 0 {
			logger.Warnf("No snapshots for %s in window", marketID)
			continue
		}
		if *csvDir != "" {
			if err := writeMarketCSV(filepath.Join(*csvDir, marketID+".csv"), snaps); err != nil {
				logger.Errorf("Writing %s: %v", marketID, err)
				failed++
				continue
			}
		} else if err := db.SaveSnapshots(ctx, snaps); err != nil {
			logger.Errorf("Saving %s: %v", marketID, err)
			failed++
			continue
		}
		logger.Infof("Stored %d snapshots for %s", len(snaps), marketID)
		total += len(snaps)
	}

	sink := storePath
	if *csvDir != "" {
		sink = *csvDir
	}
	fmt.Printf("Stored %d snapshots for %d/%d markets in %s\n",
		total, len(markets)-failed, len(markets), sink)
	if failed > 0 {
		os.Exit(1)
	}
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

// writeMarketCSV writes one market's snapshots in the layout the csv
// provider reads back.
func writeMarketCSV(path string, snapshots []types.Snapshot) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", "price", "volume", "liquidity", "resolved"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, snap := range snapshots {
		row := []string{
			snap.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(snap.Price, 'f', -1, 64),
			strconv.FormatFloat(snap.Volume, 'f', -1, 64),
			strconv.FormatFloat(snap.Liquidity, 'f', -1, 64),
			strconv.FormatBool(snap.Resolved),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", snap.MarketID, err)
		}
	}
	return nil
}
