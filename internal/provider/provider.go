// Package provider supplies historical market snapshots from pluggable
// sources: local CSV files, the snapshot store, remote APIs, or a
// deterministic synthetic generator.
package provider

import (
	"context"
	"fmt"
	"time"

	"polysim/internal/config"
	"polysim/internal/types"
)

// MarketDataProvider loads the snapshot history for one market within a
// time window. Zero bounds leave the corresponding side of the window
// open. Snapshots must come back ordered by time ascending.
type MarketDataProvider interface {
	GetHistoricalData(ctx context.Context, marketID string, start, end time.Time) ([]types.Snapshot, error)
}

// New creates a market data provider by name using the matching section
// of the configuration
func New(name string, cfg *config.Config) (MarketDataProvider, error) {
	switch name {
	case "csv":
		return NewCSVProvider(cfg.Providers.CSV.Directory), nil

	case "sqlite":
		return NewSQLiteProvider(cfg.Providers.SQLite.Path)

	case "polymarket":
		return NewPolymarketProvider(cfg.Providers.Polymarket), nil

	case "alpaca":
		if cfg.Providers.Alpaca.APIKey == "" || cfg.Providers.Alpaca.APISecret == "" {
			return nil, fmt.Errorf("alpaca provider requires ALPACA_API_KEY and ALPACA_API_SECRET")
		}
		return NewAlpacaProvider(cfg.Providers.Alpaca), nil

	case "binance":
		return NewBinanceProvider(cfg.Providers.Binance)

	case "synthetic":
		return NewSyntheticProvider(cfg.Providers.Synthetic)

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", name)
	}
}
