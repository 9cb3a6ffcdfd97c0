// Package formatter defines the wire-format callback table the pipeline
// driver invokes while walking the TSDB (§4.2), and ships one concrete Set
// per supported sink: graphite, opentsdb, jsonfmt, remotewrite.
//
// Set mirrors the exporting engine's C-side "any callback may be null"
// design as a Go interface: NoOp gives every method a do-nothing body so a
// concrete formatter only needs to override what it actually emits.
package formatter

import (
	"io"
	"time"

	"github.com/vigilantagent/exporting/internal/model"
)

// BatchMeta carries the per-instance context that does not change within
// one tick's walk: the instance's configured name prefix, its update
// interval, and its option bitmap (§3, §6) controlling names-vs-ids,
// labels, and variables.
type BatchMeta struct {
	Hostname    string
	Prefix      string
	UpdateEvery time.Duration
	Options     model.Options
}

// HostMeta describes the host currently being walked; unlike BatchMeta it
// changes on every Host call, since the pipeline driver walks every host
// the TSDB knows about (the local node plus any stream-received children).
type HostMeta struct {
	Hostname string
	Labels   map[string]string
}

// ChartMeta describes the chart currently being walked.
type ChartMeta struct {
	ID      string
	Name    string
	Family  string
	Context string
	Units   string
	Type    string
}

// DimensionMeta describes the dimension currently being walked.
type DimensionMeta struct {
	ID   string
	Name string
}

// Set is the formatter callback table. Every method may be a no-op; the
// pipeline driver calls them in this order per tick: BatchBegin, then for
// each host Host once, any Tag/Variable calls the instance's options ask
// for, then for each chart Chart followed by one Dimension call per
// emitted dimension, and finally BatchEnd.
type Set interface {
	// Name identifies the formatter for logging.
	Name() string
	// ContentType is the value for the HTTP Content-Type header, when the
	// sink is HTTP-framed; empty for telnet-style sinks.
	ContentType() string
	// BatchBegin writes any header the wire format needs once per send
	// buffer (e.g. a JSON array's opening bracket).
	BatchBegin(w io.Writer, b BatchMeta) error
	// Host writes host-identifying output once per walked host. An error
	// causes the pipeline to skip every chart under this host for this
	// tick (§4.2, §4.3 skip_host semantics).
	Host(w io.Writer, b BatchMeta, h HostMeta) error
	// Tag writes one host-level label/tag (§4.2 host_tags), called once
	// per label after Host when the instance sends configured or
	// automatic labels.
	Tag(w io.Writer, b BatchMeta, key, value string) error
	// Chart writes any per-chart header (e.g. Prometheus HELP/TYPE). An
	// error causes the pipeline to skip every dimension under this chart
	// for this tick (§4.2, §4.3 skip_chart semantics).
	Chart(w io.Writer, b BatchMeta, c ChartMeta) error
	// Dimension writes one reduced value.
	Dimension(w io.Writer, b BatchMeta, c ChartMeta, d DimensionMeta, value float64, ts time.Time) error
	// Variable writes a host-level variable (§4.2), independent of any
	// chart walk.
	Variable(w io.Writer, b BatchMeta, name string, value float64) error
	// BatchEnd writes any trailer and performs any whole-batch encoding
	// the wire format needs (e.g. protobuf marshal + compress).
	BatchEnd(w io.Writer, b BatchMeta) error
}

// NoOp implements Set with every method a no-op; concrete formatters embed
// it and override only the callbacks their wire format needs.
type NoOp struct{}

func (NoOp) Name() string                           { return "noop" }
func (NoOp) ContentType() string                    { return "" }
func (NoOp) BatchBegin(io.Writer, BatchMeta) error  { return nil }
func (NoOp) Host(io.Writer, BatchMeta, HostMeta) error { return nil }
func (NoOp) Tag(io.Writer, BatchMeta, string, string) error { return nil }
func (NoOp) Chart(io.Writer, BatchMeta, ChartMeta) error { return nil }
func (NoOp) Dimension(io.Writer, BatchMeta, ChartMeta, DimensionMeta, float64, time.Time) error {
	return nil
}
func (NoOp) Variable(io.Writer, BatchMeta, string, float64) error { return nil }
func (NoOp) BatchEnd(io.Writer, BatchMeta) error                  { return nil }
