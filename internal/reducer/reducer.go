// Package reducer implements the per-tick value reduction algorithm (§4.1):
// given a dimension's collected samples and a reduction window, derive the
// single value the formatter will emit for this interval.
package reducer

import (
	"time"

	"github.com/vigilantagent/exporting/internal/model"
	"github.com/vigilantagent/exporting/internal/tsdb"
)

// Reduce derives the value and timestamp to emit for dim over window w at
// granularity ue (update_every), per mode. The third return is false when
// the window, after clamping to the dimension's retained range, contains
// no collected point — callers must skip emitting the dimension for this
// tick rather than emit a synthetic zero.
//
// AS_COLLECTED never goes through the shift/accumulate path below: it
// dispatches to reduceAsCollected and returns the dimension's own raw
// last-collected value and its original timestamp, mirroring the
// original exporting engine's separate format_dimension_collected_* vs.
// format_dimension_stored_* callbacks. AVERAGE and SUM accumulate over the
// shifted window and are stamped with the window's own Before, since
// their value only makes sense in relation to the whole interval.
//
// For AVERAGE/SUM, the window is shifted back by 2*ue and floored to a
// multiple of ue on both ends, then Before is pulled back one further ue,
// so that a tick firing slightly early never reduces over a
// still-filling, not-yet-closed collection slot.
func Reduce(dim tsdb.Dimension, ue time.Duration, w model.Window, mode model.DataSource) (float64, time.Time, bool) {
	if ue <= 0 {
		ue = dim.Granularity()
	}
	if mode == model.AsCollected {
		return reduceAsCollected(dim, w)
	}

	after := floor(w.After.Add(-2*ue), ue)
	before := floor(w.Before.Add(-2*ue), ue).Add(-ue)

	oldest, latest := dim.Oldest(), dim.Latest()
	if oldest.IsZero() || latest.IsZero() {
		return 0, time.Time{}, false
	}
	if after.Before(oldest) {
		after = oldest
	}
	if before.After(latest) {
		before = latest
	}
	if !after.Before(before) {
		return 0, time.Time{}, false
	}

	points := dim.Points(after, before.Add(time.Nanosecond))
	var sum float64
	var count int
	for _, p := range points {
		if !p.Collected {
			continue
		}
		sum += p.Value
		count++
	}
	if count == 0 {
		return 0, time.Time{}, false
	}

	switch mode {
	case model.Sum:
		return sum, w.Before, true
	default: // model.Average
		return sum / float64(count), w.Before, true
	}
}

// reduceAsCollected returns dim's most recent collected point at or
// before w.Before, along with its own timestamp, without any window
// shifting or accumulation — the raw value the collector last saw.
func reduceAsCollected(dim tsdb.Dimension, w model.Window) (float64, time.Time, bool) {
	oldest, latest := dim.Oldest(), dim.Latest()
	if oldest.IsZero() || latest.IsZero() {
		return 0, time.Time{}, false
	}
	before := w.Before
	if before.After(latest) {
		before = latest
	}
	if before.Before(oldest) {
		return 0, time.Time{}, false
	}

	points := dim.Points(oldest, before.Add(time.Nanosecond))
	for i := len(points) - 1; i >= 0; i-- {
		if points[i].Collected {
			return points[i].Value, points[i].Timestamp, true
		}
	}
	return 0, time.Time{}, false
}

func floor(t time.Time, d time.Duration) time.Time {
	if d <= 0 {
		return t
	}
	return t.Truncate(d)
}
