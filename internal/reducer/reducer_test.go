package reducer

import (
	"testing"
	"time"

	"github.com/vigilantagent/exporting/internal/model"
	"github.com/vigilantagent/exporting/internal/tsdb"
)

func seedDim(t *testing.T, ds model.DataSource, ue time.Duration, start time.Time, values ...float64) *tsdb.MemDB {
	t.Helper()
	db := tsdb.NewMemDB("localhost")
	dim := tsdb.NewDimension("dim1", ds, ue)
	for i, v := range values {
		dim.Append(tsdb.Point{Timestamp: start.Add(time.Duration(i) * ue), Value: v, Collected: true})
	}
	db.AddDimension("localhost", "chart1", dim)
	return db
}

func getDim(t *testing.T, db *tsdb.MemDB) tsdb.Dimension {
	t.Helper()
	h, _ := db.Host("localhost")
	c, _ := h.Chart("chart1")
	dims := c.Dimensions()
	if len(dims) != 1 {
		t.Fatalf("expected 1 dimension, got %d", len(dims))
	}
	return dims[0]
}

func TestReduceAverage(t *testing.T) {
	ue := time.Second
	start := time.Unix(1000, 0)
	db := seedDim(t, model.Average, ue, start, 10, 20, 30, 40)
	dim := getDim(t, db)

	// Before shifts to start+3ue, floors, then pulls back one ue to
	// start+2ue: the samples 10, 20, 30 are reduced, 40 waits a tick.
	w := model.Window{After: start.Add(-ue), Before: start.Add(5 * ue)}
	got, _, ok := Reduce(dim, ue, w, model.Average)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	want := 20.0
	if got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestReduceSum(t *testing.T) {
	ue := time.Second
	start := time.Unix(2000, 0)
	db := seedDim(t, model.Sum, ue, start, 1, 2, 3)
	dim := getDim(t, db)

	// Shifted, floored and pulled back, Before lands on start+ue: the
	// samples 1 and 2 are summed, 3 waits a tick.
	w := model.Window{After: start.Add(-ue), Before: start.Add(4 * ue)}
	got, _, ok := Reduce(dim, ue, w, model.Sum)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if got != 3 {
		t.Fatalf("got %v want 3", got)
	}
}

func TestReduceNoData(t *testing.T) {
	ue := time.Second
	db := tsdb.NewMemDB("localhost")
	dim := tsdb.NewDimension("empty", model.AsCollected, ue)
	db.AddDimension("localhost", "chart1", dim)
	got := getDim(t, db)

	w := model.Window{After: time.Unix(0, 0), Before: time.Unix(10, 0)}
	_, _, ok := Reduce(got, ue, w, model.AsCollected)
	if ok {
		t.Fatalf("expected ok=false for a dimension with no points")
	}
}

func TestReduceAsCollectedReturnsRawLastValueAndItsOwnTimestamp(t *testing.T) {
	ue := time.Second
	start := time.Unix(3000, 0)
	// AVERAGE/SUM would accumulate all four samples; AS_COLLECTED must
	// ignore that entirely and return only the latest one, stamped with
	// its own collection time rather than the window's Before.
	db := seedDim(t, model.AsCollected, ue, start, 10, 20, 30, 40)
	dim := getDim(t, db)

	w := model.Window{After: start.Add(-ue), Before: start.Add(10 * ue)}
	got, ts, ok := Reduce(dim, ue, w, model.AsCollected)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if got != 40 {
		t.Fatalf("got %v want the raw last-collected value 40", got)
	}
	wantTS := start.Add(3 * ue)
	if !ts.Equal(wantTS) {
		t.Fatalf("got ts %v want the sample's own timestamp %v", ts, wantTS)
	}
}

func TestReduceClampsToOldest(t *testing.T) {
	ue := time.Second
	start := time.Unix(5000, 0)
	db := seedDim(t, model.Sum, ue, start, 5, 5, 5)
	dim := getDim(t, db)

	// Window requests far earlier than any data exists; clamping to Oldest
	// must still land inside the retained range and find the samples up to
	// the shifted Before (start+ue): two of the three 5s.
	w := model.Window{After: start.Add(-100 * ue), Before: start.Add(4 * ue)}
	got, _, ok := Reduce(dim, ue, w, model.Sum)
	if !ok {
		t.Fatalf("expected ok=true after clamping to oldest")
	}
	if got != 10 {
		t.Fatalf("got %v want 10", got)
	}
}
