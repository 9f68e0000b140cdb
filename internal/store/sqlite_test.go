package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"polysim/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadSnapshots(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	snaps := []types.Snapshot{
		{MarketID: "mkt-a", Timestamp: base, Price: 0.40, Volume: 100, Liquidity: 500},
		{MarketID: "mkt-a", Timestamp: base.Add(time.Hour), Price: 0.45, Volume: 120, Liquidity: 510},
		{MarketID: "mkt-a", Timestamp: base.Add(2 * time.Hour), Price: 0.50, Volume: 90, Liquidity: 480, Resolved: true},
		{MarketID: "mkt-b", Timestamp: base, Price: 0.70, Volume: 10, Liquidity: 50},
	}
	if err := s.SaveSnapshots(ctx, snaps); err != nil {
		t.Fatalf("SaveSnapshots() error = %v", err)
	}

	got, err := s.LoadSnapshots(ctx, "mkt-a", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("LoadSnapshots() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("LoadSnapshots() returned %d snapshots, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Errorf("snapshots not ordered by time: %v before %v", got[i-1].Timestamp, got[i].Timestamp)
		}
	}
	if got[0].Price != 0.40 || got[0].Volume != 100 {
		t.Errorf("first snapshot = %+v, want price 0.40 volume 100", got[0])
	}
	if !got[2].Resolved {
		t.Errorf("last snapshot should be resolved")
	}
	if got[2].Resolved && got[0].Resolved {
		t.Errorf("resolved flag leaked to earlier rows")
	}
}

func TestSaveSnapshotsUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	first := []types.Snapshot{{MarketID: "mkt-a", Timestamp: ts, Price: 0.40}}
	second := []types.Snapshot{{MarketID: "mkt-a", Timestamp: ts, Price: 0.55, Volume: 42}}

	if err := s.SaveSnapshots(ctx, first); err != nil {
		t.Fatalf("SaveSnapshots(first) error = %v", err)
	}
	if err := s.SaveSnapshots(ctx, second); err != nil {
		t.Fatalf("SaveSnapshots(second) error = %v", err)
	}

	got, err := s.LoadSnapshots(ctx, "mkt-a", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("LoadSnapshots() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("upsert produced %d rows, want 1", len(got))
	}
	if got[0].Price != 0.55 || got[0].Volume != 42 {
		t.Errorf("upsert kept stale values: %+v", got[0])
	}
}

func TestLoadSnapshotsRange(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var snaps []types.Snapshot
	for i := 0; i < 10; i++ {
		snaps = append(snaps, types.Snapshot{
			MarketID:  "mkt-a",
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Price:     0.40 + float64(i)*0.01,
		})
	}
	if err := s.SaveSnapshots(ctx, snaps); err != nil {
		t.Fatalf("SaveSnapshots() error = %v", err)
	}

	got, err := s.LoadSnapshots(ctx, "mkt-a", base.Add(2*time.Hour), base.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("LoadSnapshots() error = %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("range query returned %d rows, want 4 (bounds inclusive)", len(got))
	}
	if !got[0].Timestamp.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("range start = %v, want %v", got[0].Timestamp, base.Add(2*time.Hour))
	}
	if !got[3].Timestamp.Equal(base.Add(5 * time.Hour)) {
		t.Errorf("range end = %v, want %v", got[3].Timestamp, base.Add(5*time.Hour))
	}
}

func TestMarkets(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	snaps := []types.Snapshot{
		{MarketID: "mkt-c", Timestamp: ts, Price: 0.30},
		{MarketID: "mkt-a", Timestamp: ts, Price: 0.40},
		{MarketID: "mkt-b", Timestamp: ts, Price: 0.50},
		{MarketID: "mkt-a", Timestamp: ts.Add(time.Hour), Price: 0.41},
	}
	if err := s.SaveSnapshots(ctx, snaps); err != nil {
		t.Fatalf("SaveSnapshots() error = %v", err)
	}

	markets, err := s.Markets(ctx)
	if err != nil {
		t.Fatalf("Markets() error = %v", err)
	}
	want := []string{"mkt-a", "mkt-b", "mkt-c"}
	if len(markets) != len(want) {
		t.Fatalf("Markets() = %v, want %v", markets, want)
	}
	for i := range want {
		if markets[i] != want[i] {
			t.Errorf("Markets()[%d] = %q, want %q", i, markets[i], want[i])
		}
	}

	n, err := s.Count(ctx, "mkt-a")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Count(mkt-a) = %d, want 2", n)
	}
}

func TestLoadSnapshotsEmptyMarket(t *testing.T) {
	s := openTestStore(t)

	got, err := s.LoadSnapshots(context.Background(), "missing", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("LoadSnapshots() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("LoadSnapshots(missing) = %d rows, want 0", len(got))
	}
}
