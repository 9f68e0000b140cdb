package provider

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"golang.org/x/time/rate"

	"polysim/internal/config"
	"polysim/internal/logging"
	"polysim/internal/types"
)

// Binance kline requests return at most 1000 candles; chunk windows to
// stay under that for the supported intervals.
const binanceChunk = 30 * 24 * time.Hour

// BinanceProvider serves crypto futures klines as snapshots. Like
// equities, crypto markets never resolve.
type BinanceProvider struct {
	client   *futures.Client
	limiter  *rate.Limiter
	interval string
	logger   *logging.Logger
}

// NewBinanceProvider creates a provider from its config section. Klines
// are public data, so credentials are optional.
func NewBinanceProvider(cfg config.BinanceProviderConfig) (*BinanceProvider, error) {
	interval := cfg.Interval
	if interval == "" {
		interval = "1d"
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	client.HTTPClient = &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &BinanceProvider{
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(10), 20),
		interval: interval,
		logger:   logging.CreateProviderLogger(),
	}, nil
}

// GetHistoricalData fetches klines across the window in chunks and maps
// each candle's close to a snapshot
func (p *BinanceProvider) GetHistoricalData(ctx context.Context, marketID string, start, end time.Time) ([]types.Snapshot, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("binance provider requires explicit start and end times")
	}

	startMs := start.UnixMilli()
	endMs := end.UnixMilli()

	var snapshots []types.Snapshot
	for currentStart := startMs; currentStart < endMs; {
		currentEnd := currentStart + binanceChunk.Milliseconds()
		if currentEnd > endMs {
			currentEnd = endMs
		}

		klines, err := p.getKlines(ctx, marketID, currentStart, currentEnd)
		if err != nil {
			return nil, err
		}

		for _, kline := range klines {
			closePrice, err := strconv.ParseFloat(kline.Close, 64)
			if err != nil {
				p.logger.Warnf("Skipping kline for %s: invalid close %q", marketID, kline.Close)
				continue
			}
			volume, _ := strconv.ParseFloat(kline.Volume, 64)
			snapshots = append(snapshots, types.Snapshot{
				MarketID:  marketID,
				Timestamp: time.UnixMilli(kline.CloseTime).UTC(),
				Price:     closePrice,
				Volume:    volume,
			})
		}

		currentStart = currentEnd
	}

	snapshots = clampWindow(snapshots, start, end)
	p.logger.Infof("Fetched %d klines for %s from binance", len(snapshots), marketID)
	return snapshots, nil
}

// getKlines performs one rate-limited kline request with exponential
// backoff on failure
func (p *BinanceProvider) getKlines(ctx context.Context, symbol string, startMs, endMs int64) ([]*futures.Kline, error) {
	maxRetries := 3
	backoff := 100 * time.Millisecond

	for attempt := 0; ; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		klines, err := p.client.NewKlinesService().
			Symbol(symbol).
			Interval(p.interval).
			StartTime(startMs).
			EndTime(endMs).
			Do(ctx)
		if err == nil {
			return klines, nil
		}
		if attempt == maxRetries {
			return nil, fmt.Errorf("klines %s after %d retries: %w", symbol, maxRetries, err)
		}

		waitTime := time.Duration(math.Pow(2, float64(attempt))) * backoff
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitTime):
		}
	}
}
