package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"polysim/internal/config"
	"polysim/internal/logging"
	"polysim/internal/types"
)

// PolymarketProvider fetches price history from the Polymarket CLOB
// prices-history endpoint. Requests are rate limited to stay under the
// public API quota.
type PolymarketProvider struct {
	baseURL  string
	fidelity int // minutes per point
	client   *http.Client
	limiter  *rate.Limiter
	logger   *logging.Logger
}

// NewPolymarketProvider creates a provider from its config section
func NewPolymarketProvider(cfg config.PolymarketProviderConfig) *PolymarketProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://clob.polymarket.com"
	}
	fidelity := cfg.FidelityMinutes
	if fidelity <= 0 {
		fidelity = 60
	}
	return &PolymarketProvider{
		baseURL:  baseURL,
		fidelity: fidelity,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(5), 5),
		logger:   logging.CreateProviderLogger(),
	}
}

// pricePoint is one entry of the prices-history response
type pricePoint struct {
	T int64   `json:"t"` // unix seconds
	P float64 `json:"p"`
}

type priceHistoryResponse struct {
	History []pricePoint `json:"history"`
}

// GetHistoricalData fetches the market's price history in the window
// and resamples it to the configured fidelity. Both bounds must be set
// since the endpoint requires an explicit range.
func (p *PolymarketProvider) GetHistoricalData(ctx context.Context, marketID string, start, end time.Time) ([]types.Snapshot, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("polymarket provider requires explicit start and end times")
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u, err := url.Parse(p.baseURL + "/prices-history")
	if err != nil {
		return nil, fmt.Errorf("invalid polymarket base URL: %w", err)
	}
	q := u.Query()
	q.Set("market", marketID)
	q.Set("startTs", strconv.FormatInt(start.Unix(), 10))
	q.Set("endTs", strconv.FormatInt(end.Unix(), 10))
	q.Set("fidelity", strconv.Itoa(p.fidelity))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polymarket request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("polymarket status %d: %s", resp.StatusCode, string(body))
	}

	var history priceHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, fmt.Errorf("failed to decode price history: %w", err)
	}

	snapshots := make([]types.Snapshot, 0, len(history.History))
	for _, point := range history.History {
		if point.P < 0 || point.P > 1 {
			p.logger.Warnf("Skipping price %.4f for %s: outside [0, 1]", point.P, marketID)
			continue
		}
		snapshots = append(snapshots, types.Snapshot{
			MarketID:  marketID,
			Timestamp: time.Unix(point.T, 0).UTC(),
			Price:     point.P,
		})
	}

	snapshots = Resample(snapshots, time.Duration(p.fidelity)*time.Minute)
	snapshots = clampWindow(snapshots, start, end)

	p.logger.Infof("Fetched %d snapshots for %s from polymarket", len(snapshots), marketID)
	return snapshots, nil
}
