package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"polysim/internal/config"
	"polysim/internal/logging"
	"polysim/internal/types"
)

// AlpacaProvider serves daily US equity bars as snapshots, letting the
// engine replay stock history. Equity markets never resolve, so runs on
// this provider only exit through stops, targets, expiry or end of data.
type AlpacaProvider struct {
	client *marketdata.Client
	logger *logging.Logger
}

// NewAlpacaProvider creates a provider from its config section
func NewAlpacaProvider(cfg config.AlpacaProviderConfig) *AlpacaProvider {
	opts := marketdata.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
	}
	if cfg.BaseURL != "" {
		opts.BaseURL = cfg.BaseURL
	}
	return &AlpacaProvider{
		client: marketdata.NewClient(opts),
		logger: logging.CreateProviderLogger(),
	}
}

// GetHistoricalData fetches daily bars for the symbol and maps the close
// of each bar to a snapshot
func (p *AlpacaProvider) GetHistoricalData(ctx context.Context, marketID string, start, end time.Time) ([]types.Snapshot, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("alpaca provider requires explicit start and end times")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bars, err := p.client.GetBars(marketID, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", marketID, err)
	}

	snapshots := make([]types.Snapshot, 0, len(bars))
	for _, bar := range bars {
		snapshots = append(snapshots, types.Snapshot{
			MarketID:  marketID,
			Timestamp: bar.Timestamp,
			Price:     bar.Close,
			Volume:    float64(bar.Volume),
		})
	}

	p.logger.Infof("Fetched %d daily bars for %s from alpaca", len(snapshots), marketID)
	return snapshots, nil
}
