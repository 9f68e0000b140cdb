package provider

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"polysim/internal/logging"
	"polysim/internal/types"
)

// CSVProvider reads snapshot history from per-market CSV files in a
// directory. Files need a header with timestamp and price columns;
// volume, liquidity and resolved are optional.
type CSVProvider struct {
	directory string
	logger    *logging.Logger
}

// NewCSVProvider creates a provider that reads from the given directory
func NewCSVProvider(directory string) *CSVProvider {
	return &CSVProvider{
		directory: directory,
		logger:    logging.CreateProviderLogger(),
	}
}

// Timestamp formats accepted in CSV files, tried in order. A bare
// integer is treated as unix seconds.
var csvTimestampFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05.000",
	"2006/01/02 15:04:05",
	"2006-01-02",
}

// GetHistoricalData loads one market's snapshots from its CSV file,
// filtered to the requested window. Bad rows are logged and skipped.
func (p *CSVProvider) GetHistoricalData(ctx context.Context, marketID string, start, end time.Time) ([]types.Snapshot, error) {
	if p.directory == "" {
		return nil, fmt.Errorf("csv provider requires a data directory")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Try multiple filename formats
	candidates := []string{
		filepath.Join(p.directory, marketID+".csv"),
		filepath.Join(p.directory, strings.ToLower(marketID)+".csv"),
		filepath.Join(p.directory, strings.ToUpper(marketID)+".csv"),
	}

	var file *os.File
	var err error
	for _, candidate := range candidates {
		file, err = os.Open(candidate)
		if err == nil {
			p.logger.Infof("Loading snapshots from: %s", candidate)
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("CSV file not found for market %s (tried: %v)", marketID, candidates)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var snapshots []types.Snapshot
	lineNumber := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record at line %d: %w", lineNumber, err)
		}
		lineNumber++

		snap, err := parseCSVRecord(record, marketID, columns)
		if err != nil {
			p.logger.Warnf("Skipping line %d due to parse error: %v", lineNumber, err)
			continue
		}

		if !start.IsZero() && snap.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && snap.Timestamp.After(end) {
			continue
		}
		snapshots = append(snapshots, snap)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.Before(snapshots[j].Timestamp)
	})

	if len(snapshots) > 0 {
		p.logger.Infof("Loaded %d snapshots for %s from %s to %s",
			len(snapshots), marketID,
			snapshots[0].Timestamp.Format(time.RFC3339),
			snapshots[len(snapshots)-1].Timestamp.Format(time.RFC3339))
	}
	return snapshots, nil
}

// csvColumns maps snapshot fields to CSV column indexes. Optional
// columns are -1 when absent.
type csvColumns struct {
	timestamp int
	price     int
	volume    int
	liquidity int
	resolved  int
}

// resolveColumns locates the snapshot fields in the header. Column
// names are matched case-insensitively after trimming.
func resolveColumns(header []string) (csvColumns, error) {
	cols := csvColumns{timestamp: -1, price: -1, volume: -1, liquidity: -1, resolved: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "timestamp", "time", "ts":
			cols.timestamp = i
		case "price", "close":
			cols.price = i
		case "volume":
			cols.volume = i
		case "liquidity":
			cols.liquidity = i
		case "resolved":
			cols.resolved = i
		}
	}
	if cols.timestamp < 0 || cols.price < 0 {
		return cols, fmt.Errorf("invalid CSV header: timestamp and price columns are required, got %v", header)
	}
	return cols, nil
}

// parseCSVRecord converts one CSV row into a snapshot
func parseCSVRecord(record []string, marketID string, cols csvColumns) (types.Snapshot, error) {
	if cols.timestamp >= len(record) || cols.price >= len(record) {
		return types.Snapshot{}, fmt.Errorf("record has %d fields, need at least timestamp and price", len(record))
	}

	timestamp, err := parseTimestamp(record[cols.timestamp])
	if err != nil {
		return types.Snapshot{}, err
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(record[cols.price]), 64)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("invalid price: %s", record[cols.price])
	}
	if price < 0 || price > 1 {
		return types.Snapshot{}, fmt.Errorf("price %.4f outside [0, 1]", price)
	}

	snap := types.Snapshot{
		MarketID:  marketID,
		Timestamp: timestamp,
		Price:     price,
	}
	if cols.volume >= 0 && cols.volume < len(record) {
		if v, err := strconv.ParseFloat(strings.TrimSpace(record[cols.volume]), 64); err == nil {
			snap.Volume = v
		}
	}
	if cols.liquidity >= 0 && cols.liquidity < len(record) {
		if v, err := strconv.ParseFloat(strings.TrimSpace(record[cols.liquidity]), 64); err == nil {
			snap.Liquidity = v
		}
	}
	if cols.resolved >= 0 && cols.resolved < len(record) {
		switch strings.ToLower(strings.TrimSpace(record[cols.resolved])) {
		case "true", "1", "yes":
			snap.Resolved = true
		}
	}
	return snap, nil
}

// parseTimestamp tries the accepted layouts, then unix seconds
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, format := range csvTimestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp format: %s", s)
}
