package provider

import (
	"sort"
	"time"

	"polysim/internal/types"
)

// Resample buckets snapshots into fixed intervals aligned with Truncate.
// Within a bucket the last price and liquidity win, volumes are summed,
// and a resolved flag sticks. An interval of zero returns the input
// sorted by time.
func Resample(snapshots []types.Snapshot, interval time.Duration) []types.Snapshot {
	if len(snapshots) == 0 {
		return nil
	}

	sorted := make([]types.Snapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	if interval <= 0 {
		return sorted
	}

	buckets := make(map[int64]*types.Snapshot)
	var order []int64
	for _, snap := range sorted {
		bucketTime := snap.Timestamp.Truncate(interval)
		key := bucketTime.UnixNano()

		agg, ok := buckets[key]
		if !ok {
			s := snap
			s.Timestamp = bucketTime
			buckets[key] = &s
			order = append(order, key)
			continue
		}
		agg.Price = snap.Price
		agg.Liquidity = snap.Liquidity
		agg.Volume += snap.Volume
		agg.Resolved = agg.Resolved || snap.Resolved
	}

	out := make([]types.Snapshot, 0, len(order))
	for _, key := range order {
		out = append(out, *buckets[key])
	}
	return out
}

// clampWindow drops snapshots outside [start, end]. Zero bounds leave
// the corresponding side open.
func clampWindow(snapshots []types.Snapshot, start, end time.Time) []types.Snapshot {
	var out []types.Snapshot
	for _, snap := range snapshots {
		if !start.IsZero() && snap.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && snap.Timestamp.After(end) {
			continue
		}
		out = append(out, snap)
	}
	return out
}
