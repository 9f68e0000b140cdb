package strategy

import (
	"polysim/internal/types"
)

// maxHistory bounds the per-market window kept for indicators
const maxHistory = 200

// marketHistory is a rolling window of one market's recent snapshots
type marketHistory struct {
	prices  []float64
	volumes []float64
	last    types.Snapshot
}

// historySet tracks rolling windows for every market a strategy has seen
type historySet struct {
	markets map[string]*marketHistory
	cap     int
}

func newHistorySet(cap int) *historySet {
	if cap <= 0 || cap > maxHistory {
		cap = maxHistory
	}
	return &historySet{
		markets: make(map[string]*marketHistory),
		cap:     cap,
	}
}

// observe appends the snapshot to its market's window, trimming the
// oldest entry once the window is full
func (h *historySet) observe(snap types.Snapshot) *marketHistory {
	mh, ok := h.markets[snap.MarketID]
	if !ok {
		mh = &marketHistory{}
		h.markets[snap.MarketID] = mh
	}

	mh.prices = append(mh.prices, snap.Price)
	mh.volumes = append(mh.volumes, snap.Volume)
	if len(mh.prices) > h.cap {
		mh.prices = mh.prices[1:]
		mh.volumes = mh.volumes[1:]
	}
	mh.last = snap
	return mh
}

// size returns the number of observations in the window
func (mh *marketHistory) size() int {
	return len(mh.prices)
}

// reset drops all windows
func (h *historySet) reset() {
	h.markets = make(map[string]*marketHistory)
}
