package backtest

import (
	"sort"
	"time"

	"polysim/internal/types"
)

// Frame holds every market snapshot observed at one instant. Markets with
// no snapshot at this exact timestamp are absent from the map.
type Frame struct {
	Time      time.Time
	Snapshots map[string]types.Snapshot
}

// MarketIDs returns the markets present in this frame in sorted order
func (f Frame) MarketIDs() []string {
	ids := make([]string, 0, len(f.Snapshots))
	for id := range f.Snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Available returns the unresolved snapshots in this frame, sorted by
// market id. These are the markets a strategy may still trade.
func (f Frame) Available() []types.Snapshot {
	snaps := make([]types.Snapshot, 0, len(f.Snapshots))
	for _, id := range f.MarketIDs() {
		snap := f.Snapshots[id]
		if !snap.Resolved {
			snaps = append(snaps, snap)
		}
	}
	return snaps
}

// BuildTimeline merges per-market histories into a single chronological
// sequence of frames. The timeline holds one frame per distinct timestamp
// across all markets; a frame only carries the markets that actually have a
// snapshot at that instant. When a market has several snapshots with the
// same timestamp the last one wins.
func BuildTimeline(histories map[string][]types.Snapshot) []Frame {
	byTime := make(map[int64]map[string]types.Snapshot)

	for marketID, snaps := range histories {
		for _, snap := range snaps {
			key := snap.Timestamp.UnixNano()
			frame, ok := byTime[key]
			if !ok {
				frame = make(map[string]types.Snapshot)
				byTime[key] = frame
			}
			frame[marketID] = snap
		}
	}

	keys := make([]int64, 0, len(byTime))
	for key := range byTime {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	frames := make([]Frame, 0, len(keys))
	for _, key := range keys {
		frames = append(frames, Frame{
			Time:      time.Unix(0, key).UTC(),
			Snapshots: byTime[key],
		})
	}

	return frames
}
