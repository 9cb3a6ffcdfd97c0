// Package pipeline implements the tick-driven walk that turns TSDB state
// into formatted output for every due instance (§4.3): one pass over
// hosts, charts, and dimensions per tick, with each due instance's
// formatter invoked inline as the walk proceeds.
package pipeline

import (
	"io"
	"time"

	"github.com/vigilantagent/exporting/internal/formatter"
	"github.com/vigilantagent/exporting/internal/model"
	"github.com/vigilantagent/exporting/internal/reducer"
	"github.com/vigilantagent/exporting/internal/tsdb"
)

// Target is the driver's view of one configured sink instance. It is kept
// narrow so pipeline does not need to import the instance package (which
// in turn depends on buffer and transport): the driver only needs to
// stage formatted bytes and know when the instance is due.
type Target interface {
	Meta() formatter.BatchMeta
	Formatter() formatter.Set
	// Stage returns the writer for this tick's formatted output.
	Stage() io.Writer
	// Push closes out the staged buffer, handing it to the instance's
	// ring for the worker to drain.
	Push(createdAt time.Time)
	// Window returns the reduction window this instance should use for
	// the tick at now, and whether the instance is due at all.
	Window(now time.Time) (model.Window, bool)
	// AcceptsHost and AcceptsChart report whether this instance's
	// configured hosts_pattern/charts_pattern (§3, §4.3, §6) allow
	// exporting the given host/chart.
	AcceptsHost(hostname string) bool
	AcceptsChart(chartID string) bool
}

// Driver runs the single-thread walk of §4.3. It holds no goroutines of
// its own; the engine calls Tick once per scheduler interval.
type Driver struct {
	DB      tsdb.Database
	Targets []Target
}

// New returns a Driver over db with no targets registered yet.
func New(db tsdb.Database) *Driver {
	return &Driver{DB: db}
}

// Register adds t to the set of instances walked on every Tick.
func (d *Driver) Register(t Target) {
	d.Targets = append(d.Targets, t)
}

// Tick walks every host/chart/dimension once, feeding each due target's
// formatter. Targets whose Window reports them not due at now are skipped
// entirely: their window is not advanced and their staging buffer is left
// untouched, so a slow-interval sink doesn't get partial ticks.
func (d *Driver) Tick(now time.Time) {
	due := make([]dueTarget, 0, len(d.Targets))
	for _, t := range d.Targets {
		w, ok := t.Window(now)
		if !ok {
			continue
		}
		meta := t.Meta()
		if err := t.Formatter().BatchBegin(t.Stage(), meta); err != nil {
			continue
		}
		due = append(due, dueTarget{Target: t, meta: meta, window: w, wrote: false})
	}
	if len(due) == 0 {
		return
	}

	skipHost := make([]bool, len(due))
	skipChart := make([]bool, len(due))
	for _, host := range d.DB.Hosts() {
		hm := formatter.HostMeta{Hostname: host.Hostname(), Labels: host.Labels()}
		for i := range due {
			switch {
			case !due[i].AcceptsHost(host.Hostname()):
				skipHost[i] = true
			case due[i].Formatter().Host(due[i].Stage(), due[i].meta, hm) != nil:
				// skip_host: a Host callback error drops every chart
				// under this host for this target, this tick only
				// (§4.2, §4.3) — the next tick tries again.
				skipHost[i] = true
			default:
				skipHost[i] = false
				emitHostLabelsAndVariables(due[i], host)
			}
		}

		for _, chart := range host.Charts() {
			dims := chart.Dimensions()
			if len(dims) == 0 {
				continue
			}
			cm := formatter.ChartMeta{
				ID:      chart.ID(),
				Name:    chart.Name(),
				Family:  chart.Family(),
				Context: chart.Context(),
				Units:   chart.Units(),
				Type:    chart.Type(),
			}
			for i := range due {
				switch {
				case skipHost[i]:
					skipChart[i] = true
				case !due[i].AcceptsChart(chart.ID()):
					skipChart[i] = true
				case due[i].Formatter().Chart(due[i].Stage(), due[i].meta, cm) != nil:
					// skip_chart: a Chart callback error drops every
					// dimension under this chart for this target, this
					// tick only (§4.2, §4.3).
					skipChart[i] = true
				default:
					skipChart[i] = false
				}
			}
			for _, dim := range dims {
				dm := formatter.DimensionMeta{ID: dim.ID(), Name: dim.Name()}
				for i := range due {
					if skipChart[i] {
						continue
					}
					ue := dim.Granularity()
					value, ts, ok := reducer.Reduce(dim, ue, due[i].window, dim.DataSource())
					if !ok {
						continue
					}
					if err := due[i].Formatter().Dimension(due[i].Stage(), due[i].meta, cm, dm, value, ts); err == nil {
						due[i].wrote = true
						if m, ok := due[i].Stage().(interface{ IncMetrics() }); ok {
							m.IncMetrics()
						}
					}
				}
			}
		}
	}

	for i := range due {
		_ = due[i].Formatter().BatchEnd(due[i].Stage(), due[i].meta)
		due[i].Push(now)
	}
}

// emitHostLabelsAndVariables sends t's configured/automatic labels and
// host variables, if its options ask for them (§4.2, §6). Errors are
// ignored here: a single missing tag or variable is not worth aborting
// the host's whole chart walk over, unlike a failing Host/Chart call.
func emitHostLabelsAndVariables(t dueTarget, host tsdb.Host) {
	opts := t.meta.Options
	if opts.Has(model.OptSendConfiguredLabels) || opts.Has(model.OptSendAutomaticLabels) {
		for k, v := range host.Labels() {
			_ = t.Formatter().Tag(t.Stage(), t.meta, k, v)
		}
	}
	if opts.Has(model.OptSendVariables) {
		for name, v := range host.Variables() {
			_ = t.Formatter().Variable(t.Stage(), t.meta, name, v)
		}
	}
}

type dueTarget struct {
	Target
	meta   formatter.BatchMeta
	window model.Window
	wrote  bool
}
