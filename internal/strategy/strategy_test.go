package strategy

import (
	"strings"
	"testing"
	"time"

	"polysim/internal/types"
)

func TestRegistryKnowsBuiltins(t *testing.T) {
	names := Names()
	for _, want := range []string{"longshot", "meanrev", "momentum"} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("builtin %q missing from registry: %v", want, names)
		}
	}

	// Names must come back sorted.
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Names() not sorted: %v", names)
		}
	}
}

func TestNewReturnsFreshInstances(t *testing.T) {
	a, err := New("momentum")
	if err != nil {
		t.Fatalf("New(momentum) error = %v", err)
	}
	b, err := New("momentum")
	if err != nil {
		t.Fatalf("New(momentum) error = %v", err)
	}
	if a == b {
		t.Errorf("New() returned the same instance twice")
	}
	if a.Name() != "momentum" {
		t.Errorf("Name() = %q, want momentum", a.Name())
	}
}

func TestNewUnknownStrategy(t *testing.T) {
	_, err := New("astrology")
	if err == nil {
		t.Fatalf("New(astrology) should fail")
	}
	if !strings.Contains(err.Error(), "momentum") {
		t.Errorf("error should list known strategies, got: %v", err)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("duplicate Register should panic")
		}
	}()
	Register("momentum", func() Strategy { return NewMomentumStrategy() })
}

func TestParams(t *testing.T) {
	p := Params{
		"fraction": 0.25,
		"count":    float64(7), // JSON numbers decode as float64
		"window":   "48h",
		"label":    "fast",
		"enabled":  true,
	}

	if got := p.Float("fraction", 0.5); got != 0.25 {
		t.Errorf("Float(fraction) = %v, want 0.25", got)
	}
	if got := p.Float("missing", 0.5); got != 0.5 {
		t.Errorf("Float(missing) = %v, want default 0.5", got)
	}
	if got := p.Int("count", 3); got != 7 {
		t.Errorf("Int(count) = %v, want 7", got)
	}
	if got := p.Duration("window", time.Hour); got != 48*time.Hour {
		t.Errorf("Duration(window) = %v, want 48h", got)
	}
	if got := p.Duration("label", time.Hour); got != time.Hour {
		t.Errorf("Duration(label) = %v, want default on unparsable", got)
	}
	if got := p.String("label", "slow"); got != "fast" {
		t.Errorf("String(label) = %q, want fast", got)
	}
	if !p.Bool("enabled", false) {
		t.Errorf("Bool(enabled) = false, want true")
	}
}

func TestHistorySetTrimsWindow(t *testing.T) {
	h := newHistorySet(5)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	var mh *marketHistory
	for i := 0; i < 8; i++ {
		mh = h.observe(types.Snapshot{
			MarketID:  "m",
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Price:     float64(i),
			Volume:    float64(i * 10),
		})
	}

	if mh.size() != 5 {
		t.Fatalf("window size = %d, want 5", mh.size())
	}
	if mh.prices[0] != 3 {
		t.Errorf("oldest kept price = %v, want 3", mh.prices[0])
	}
	if mh.volumes[len(mh.volumes)-1] != 70 {
		t.Errorf("latest volume = %v, want 70", mh.volumes[len(mh.volumes)-1])
	}
	if mh.last.Price != 7 {
		t.Errorf("last snapshot price = %v, want 7", mh.last.Price)
	}
}
