// Package tsdb defines the read-only contract the exporting engine walks
// each tick: hosts, charts, dimensions, and their collected points. The
// actual round-robin database lives outside this spec (§1); this package
// only specifies the collaborator interface and ships a minimal in-memory
// implementation (MemDB) used by tests and the demo daemon.
package tsdb

import (
	"time"

	"github.com/vigilantagent/exporting/internal/model"
)

// Point is a single collected sample.
type Point struct {
	Timestamp time.Time
	Value     float64
	// Collected is false for gaps (no sample landed in that slot); the
	// reducer (§4.1) must skip these rather than treat them as zero.
	Collected bool
}

// Dimension is one collected series within a chart.
type Dimension interface {
	ID() string
	Name() string
	DataSource() model.DataSource
	// Granularity is the dimension's native collection interval.
	Granularity() time.Duration
	// Points returns the collected samples with Timestamp in
	// [after, before), oldest first.
	Points(after, before time.Time) []Point
	// Oldest and Latest bound the dimension's retained history; used to
	// clamp a reduction window that falls outside the stored range.
	Oldest() time.Time
	Latest() time.Time
	// Algorithm is the collection algorithm backing this dimension (e.g.
	// "absolute", "incremental"); the Prometheus exposition path uses it
	// to pick a counter vs. gauge TYPE and the "_total" suffix (§4.6).
	Algorithm() string
	// Multiplier and Divisor are the dimension's configured scaling
	// factors. Dimensions within the same chart that disagree on either
	// force a heterogeneous exposition, one metric per dimension rather
	// than one metric per chart (§4.6 point 4).
	Multiplier() int64
	Divisor() int64
}

// Chart groups dimensions under one family/context.
type Chart interface {
	ID() string
	Name() string
	Family() string
	Context() string
	Units() string
	// Type is the chart type (e.g. "line", "area", "stacked").
	Type() string
	Dimensions() []Dimension
}

// Host is one monitored node (itself, or a stream-received child).
type Host interface {
	Hostname() string
	MachineGUID() string
	Charts() []Chart
	Chart(id string) (Chart, bool)
	Labels() map[string]string
	// Variables returns the host's numeric variables (e.g. total RAM),
	// exported independent of any chart walk when an instance opts into
	// send_variables (§4.2, §6).
	Variables() map[string]float64
}

// Database is the TSDB collaborator contract the pipeline driver walks
// each tick (§4.3). Implementations must allow concurrent readers; the
// driver takes no lock of its own, so each call must be safe by itself.
type Database interface {
	Hosts() []Host
	Host(hostname string) (Host, bool)
	// Localhost returns the node the engine itself runs on.
	Localhost() Host
}

// Writer is the narrow contract self-telemetry (§4.8) needs to push
// counters back in as first-class charts, without requiring the full
// collector-facing ingestion API a real TSDB exposes.
type Writer interface {
	// EnsureChart creates the chart/dimension set if absent and returns it.
	EnsureChart(host, chartID, name, family, context, units string, dims []string) Chart
	// Collect appends one point per named dimension at ts.
	Collect(chart Chart, ts time.Time, values map[string]float64)
}
