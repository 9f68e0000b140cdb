package types

import (
	"testing"
	"time"
)

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestTradeOutcome(t *testing.T) {
	tests := []struct {
		name string
		pnl  float64
		want Outcome
	}{
		{"profit", 12.5, OutcomeWin},
		{"tiny profit", 1e-12, OutcomeWin},
		{"loss", -3.0, OutcomeLoss},
		{"tiny loss", -1e-12, OutcomeLoss},
		{"exactly zero", 0, OutcomeBreakeven},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade := Trade{PnL: tt.pnl}
			if got := trade.Outcome(); got != tt.want {
				t.Errorf("Outcome() with pnl %v = %q, want %q", tt.pnl, got, tt.want)
			}
		})
	}
}

func TestTradeDuration(t *testing.T) {
	trade := Trade{EntryTime: testTime, ExitTime: testTime.Add(36 * time.Hour)}
	if got := trade.Duration(); got != 36*time.Hour {
		t.Errorf("Duration() = %v, want 36h", got)
	}
}

func TestSignalExpired(t *testing.T) {
	sig := NewSignal("m", SideLong, 0.5, testTime)
	sig.ExpiresAt = testTime.Add(time.Hour)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before expiry", testTime.Add(59 * time.Minute), false},
		{"exactly at expiry", testTime.Add(time.Hour), true},
		{"after expiry", testTime.Add(2 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sig.Expired(tt.now); got != tt.want {
				t.Errorf("Expired(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestSignalWithoutExpiryNeverExpires(t *testing.T) {
	sig := NewSignal("m", SideShort, 0.5, testTime)
	if sig.Expired(testTime.Add(1000 * time.Hour)) {
		t.Errorf("a signal with no expiry must never expire")
	}
}

func TestNewSignalPopulatesIdentity(t *testing.T) {
	a := NewSignal("m", SideLong, 0.42, testTime)
	b := NewSignal("m", SideLong, 0.42, testTime)

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("signal ids must be unique and non-empty: %q vs %q", a.ID, b.ID)
	}
	if !a.CreatedAt.Equal(testTime) {
		t.Errorf("CreatedAt = %v, want the frame time", a.CreatedAt)
	}
}

func TestPositionUnrealizedPnL(t *testing.T) {
	longPos := NewPosition(NewSignal("m", SideLong, 0.40, testTime), 100, 0.40, testTime)
	if got := longPos.UnrealizedPnL(0.55); got != 15.0 {
		t.Errorf("long UnrealizedPnL(0.55) = %v, want 15", got)
	}
	if got := longPos.UnrealizedPnL(0.30); got != -10.0 {
		t.Errorf("long UnrealizedPnL(0.30) = %v, want -10", got)
	}

	shortPos := NewPosition(NewSignal("m", SideShort, 0.40, testTime), 100, 0.40, testTime)
	if got := shortPos.UnrealizedPnL(0.30); got != 10.0 {
		t.Errorf("short UnrealizedPnL(0.30) = %v, want 10", got)
	}
}

func TestPositionMark(t *testing.T) {
	pos := NewPosition(NewSignal("m", SideLong, 0.40, testTime), 50, 0.40, testTime)
	ts := testTime.Add(3 * time.Hour)

	pos.Mark(0.47, ts)

	if pos.LastPrice != 0.47 || !pos.LastSeen.Equal(ts) {
		t.Errorf("Mark did not record the observation: price=%v seen=%v", pos.LastPrice, pos.LastSeen)
	}
	if got := pos.Notional(); got != 20.0 {
		t.Errorf("Notional() = %v, want 20", got)
	}
	if got := pos.Duration(ts); got != 3*time.Hour {
		t.Errorf("Duration() = %v, want 3h", got)
	}
}

func TestSnapshotIsTradable(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want bool
	}{
		{"live market", Snapshot{Price: 0.5}, true},
		{"resolved market", Snapshot{Price: 1.0, Resolved: true}, false},
		{"no price", Snapshot{Price: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.IsTradable(); got != tt.want {
				t.Errorf("IsTradable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSnapshotImpliedProbability(t *testing.T) {
	tests := []struct {
		price float64
		want  float64
	}{
		{0.42, 0.42},
		{-0.1, 0},
		{1.3, 1},
	}

	for _, tt := range tests {
		snap := Snapshot{Price: tt.price}
		if got := snap.ImpliedProbability(); got != tt.want {
			t.Errorf("ImpliedProbability() with price %v = %v, want %v", tt.price, got, tt.want)
		}
	}
}
