package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"polysim/internal/config"
)

func TestPolymarketProviderFetch(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var gotQuery map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prices-history" {
			t.Errorf("path = %q, want /prices-history", r.URL.Path)
		}
		gotQuery = map[string]string{
			"market":   r.URL.Query().Get("market"),
			"startTs":  r.URL.Query().Get("startTs"),
			"endTs":    r.URL.Query().Get("endTs"),
			"fidelity": r.URL.Query().Get("fidelity"),
		}
		json.NewEncoder(w).Encode(priceHistoryResponse{History: []pricePoint{
			{T: start.Unix(), P: 0.40},
			{T: start.Add(time.Hour).Unix(), P: 0.45},
			{T: start.Add(2 * time.Hour).Unix(), P: 1.80}, // bad price, skipped
			{T: start.Add(3 * time.Hour).Unix(), P: 0.50},
		}})
	}))
	defer server.Close()

	p := NewPolymarketProvider(config.PolymarketProviderConfig{
		BaseURL:         server.URL,
		FidelityMinutes: 60,
	})

	snaps, err := p.GetHistoricalData(context.Background(), "0xabc", start, start.Add(4*time.Hour))
	if err != nil {
		t.Fatalf("GetHistoricalData() error = %v", err)
	}

	if gotQuery["market"] != "0xabc" {
		t.Errorf("market query = %q, want 0xabc", gotQuery["market"])
	}
	if gotQuery["fidelity"] != "60" {
		t.Errorf("fidelity query = %q, want 60", gotQuery["fidelity"])
	}

	if len(snaps) != 3 {
		t.Fatalf("got %d snapshots, want 3 (out-of-band price dropped)", len(snaps))
	}
	if snaps[0].Price != 0.40 || snaps[0].MarketID != "0xabc" {
		t.Errorf("first snapshot = %+v", snaps[0])
	}
	for i := 1; i < len(snaps); i++ {
		if !snaps[i].Timestamp.After(snaps[i-1].Timestamp) {
			t.Errorf("snapshots not ordered")
		}
	}
}

func TestPolymarketProviderHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "market not found", http.StatusNotFound)
	}))
	defer server.Close()

	p := NewPolymarketProvider(config.PolymarketProviderConfig{BaseURL: server.URL})
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := p.GetHistoricalData(context.Background(), "0xabc", start, start.Add(time.Hour)); err == nil {
		t.Errorf("404 should surface as an error")
	}
}

func TestPolymarketProviderRequiresWindow(t *testing.T) {
	p := NewPolymarketProvider(config.PolymarketProviderConfig{BaseURL: "http://localhost:9"})
	if _, err := p.GetHistoricalData(context.Background(), "0xabc", time.Time{}, time.Time{}); err == nil {
		t.Errorf("open window should fail")
	}
}
