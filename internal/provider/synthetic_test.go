package provider

import (
	"context"
	"testing"
	"time"

	"polysim/internal/config"
)

func newTestSynthetic(t *testing.T, seed int64) *SyntheticProvider {
	t.Helper()
	p, err := NewSyntheticProvider(config.SyntheticProviderConfig{
		Seed:         seed,
		Interval:     "1h",
		InitialPrice: 0.5,
		Volatility:   0.02,
	})
	if err != nil {
		t.Fatalf("NewSyntheticProvider() error = %v", err)
	}
	return p
}

func TestSyntheticDeterminism(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)

	a, err := newTestSynthetic(t, 7).GetHistoricalData(context.Background(), "mkt-a", start, end)
	if err != nil {
		t.Fatalf("first run error = %v", err)
	}
	b, err := newTestSynthetic(t, 7).GetHistoricalData(context.Background(), "mkt-a", start, end)
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}

	if len(a) != len(b) || len(a) == 0 {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Price != b[i].Price || !a[i].Timestamp.Equal(b[i].Timestamp) {
			t.Fatalf("runs diverge at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSyntheticMarketsWalkIndependently(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)
	p := newTestSynthetic(t, 7)

	a, err := p.GetHistoricalData(context.Background(), "mkt-a", start, end)
	if err != nil {
		t.Fatalf("mkt-a error = %v", err)
	}
	b, err := p.GetHistoricalData(context.Background(), "mkt-b", start, end)
	if err != nil {
		t.Fatalf("mkt-b error = %v", err)
	}

	same := true
	for i := range a {
		if a[i].Price != b[i].Price {
			same = false
			break
		}
	}
	if same {
		t.Errorf("different markets produced identical walks")
	}
}

func TestSyntheticPricesStayInBand(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(90 * 24 * time.Hour)

	snaps, err := newTestSynthetic(t, 99).GetHistoricalData(context.Background(), "mkt-a", start, end)
	if err != nil {
		t.Fatalf("GetHistoricalData() error = %v", err)
	}
	if len(snaps) == 0 {
		t.Fatalf("no snapshots generated")
	}
	for _, snap := range snaps {
		if snap.Price < 0.01 || snap.Price > 0.99 {
			t.Fatalf("price %v escaped the [0.01, 0.99] band at %v", snap.Price, snap.Timestamp)
		}
	}
}

func TestSyntheticRequiresWindow(t *testing.T) {
	p := newTestSynthetic(t, 1)
	if _, err := p.GetHistoricalData(context.Background(), "mkt-a", time.Time{}, time.Time{}); err == nil {
		t.Errorf("open window should fail")
	}

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := p.GetHistoricalData(context.Background(), "mkt-a", start, start); err == nil {
		t.Errorf("empty window should fail")
	}
}

func TestSyntheticBadInterval(t *testing.T) {
	_, err := NewSyntheticProvider(config.SyntheticProviderConfig{Interval: "soon"})
	if err == nil {
		t.Errorf("invalid interval should fail")
	}
}

func TestProviderFactoryUnknown(t *testing.T) {
	cfg := config.DefaultConfig()
	if _, err := New("carrier-pigeon", cfg); err == nil {
		t.Errorf("unknown provider name should fail")
	}
}
