package promexpo

import (
	"fmt"
	"net/http"
	"time"

	"github.com/vigilantagent/exporting/internal/model"
	"github.com/vigilantagent/exporting/internal/reducer"
	"github.com/vigilantagent/exporting/internal/sanitize"
	"github.com/vigilantagent/exporting/internal/telemetry"
	"github.com/vigilantagent/exporting/internal/tsdb"
)

// OutputFlags selects optional pieces of the exposition (§4.6).
type OutputFlags uint32

const (
	// FlagNames sends dimension Name() instead of ID() in metric labels.
	FlagNames OutputFlags = 1 << iota
	// FlagTimestamps includes an explicit millisecond timestamp on every
	// sample line instead of letting the scraper stamp its own.
	FlagTimestamps
	// FlagHelpType emits a # HELP/# TYPE pair the first time a metric name
	// is written during a scrape (§4.6 point 6), so a metric family's
	// HELP/TYPE never repeats across chart instances with differing
	// chart.Name() text. NewHandler sets it by default.
	FlagHelpType
	// FlagVariables emits each host's numeric variables as their own
	// metric family, independent of any chart walk (§4.2, §4.6).
	FlagVariables
	// FlagOldUnits runs chart units through the OLDUNITS alias table
	// before deriving a metric-name suffix, for dashboards built against
	// the pre-rename unit spellings (§4.6 point 6).
	FlagOldUnits
	// FlagHideUnits drops the unit suffix from metric names entirely.
	FlagHideUnits
)

// Handler serves the TSDB as Prometheus text exposition on demand,
// keyed by the requesting scraper so each gets its own incremental window.
type Handler struct {
	DB     tsdb.Database
	State  *ScrapeState
	Prefix string
	Flags  OutputFlags
	Build  telemetry.BuildInfo
	// Since bounds how far back the very first scrape for a new key goes.
	Since time.Duration
}

// NewHandler returns a Handler with FlagNames and FlagHelpType set and a
// 1-hour Since bound, matching the exposition path's documented defaults.
func NewHandler(db tsdb.Database, build telemetry.BuildInfo) *Handler {
	return &Handler{
		DB:     db,
		State:  NewScrapeState(),
		Flags:  FlagNames | FlagHelpType,
		Build:  build,
		Since:  time.Hour,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	now := time.Now()
	key := r.RemoteAddr

	// seen dedups HELP/TYPE emission across hosts and charts within this
	// one scrape: the same metric name can recur once a chart's dimensions
	// are heterogeneous (each dimension of a chart gets its own metric
	// name) or once the same context shows up on more than one host.
	seen := make(map[string]bool)

	if h.Flags&FlagHelpType != 0 {
		fmt.Fprintf(w, "# HELP netdata_info %s identification\n# TYPE netdata_info gauge\n", h.Build.Application)
	}
	fmt.Fprintf(w, "netdata_info{application=%q,version=%q} 1\n", h.Build.Application, h.Build.Version)

	for _, host := range h.DB.Hosts() {
		after, before := h.State.Window(key+"/"+host.Hostname(), now, now.Add(-h.Since))
		win := model.Window{After: after, Before: before}
		h.writeHost(w, host, win, seen)
	}
}

func (h *Handler) writeHost(w http.ResponseWriter, host tsdb.Host, win model.Window, seen map[string]bool) {
	for _, chart := range host.Charts() {
		dims := chart.Dimensions()
		if len(dims) == 0 {
			continue
		}
		context := sanitize.Name(chart.Context())
		if context == "" {
			context = sanitize.Name(chart.ID())
		}
		base := h.Prefix + context
		homogeneous := homogeneousDimensions(dims)

		for _, dim := range dims {
			ue := dim.Granularity()
			ds := dim.DataSource()
			value, ts, ok := reducer.Reduce(dim, ue, win, ds)
			if !ok {
				continue
			}

			metric, metricType, withDimLabel := h.metricFor(base, chart, dim, ds, homogeneous)

			if h.Flags&FlagHelpType != 0 && !seen[metric] {
				fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", metric, chart.Name(), metric, metricType)
				seen[metric] = true
			}

			label := dim.ID()
			if h.Flags&FlagNames != 0 {
				label = dim.Name()
			}

			labels := fmt.Sprintf("instance=%q,chart=%q", sanitize.LabelValue(host.Hostname()), sanitize.LabelValue(chart.ID()))
			if withDimLabel {
				labels += fmt.Sprintf(",dimension=%q", sanitize.LabelValue(label))
			}

			if h.Flags&FlagTimestamps != 0 {
				fmt.Fprintf(w, "%s{%s} %f %d\n", metric, labels, value, ts.UnixMilli())
			} else {
				fmt.Fprintf(w, "%s{%s} %f\n", metric, labels, value)
			}
		}
	}

	if h.Flags&FlagVariables != 0 {
		for name, v := range host.Variables() {
			metric := h.Prefix + sanitize.Name(name)
			if h.Flags&FlagHelpType != 0 && !seen[metric] {
				fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n", metric, name, metric)
				seen[metric] = true
			}
			fmt.Fprintf(w, "%s{instance=%q} %f\n", metric, sanitize.LabelValue(host.Hostname()), v)
		}
	}
}

// homogeneousDimensions reports whether every dimension of a chart shares
// the same algorithm/multiplier/divisor, the condition under which they can
// be merged into one metric family differentiated only by a "dimension"
// label (§4.1, §4.6 point 6). A chart with mixed algorithms — e.g. one
// incremental dimension alongside an absolute one — is heterogeneous, and
// each of its dimensions gets its own metric name instead.
func homogeneousDimensions(dims []tsdb.Dimension) bool {
	if len(dims) == 0 {
		return true
	}
	first := dims[0]
	for _, d := range dims[1:] {
		if d.Algorithm() != first.Algorithm() || d.Multiplier() != first.Multiplier() || d.Divisor() != first.Divisor() {
			return false
		}
	}
	return true
}

// metricFor derives the metric name, its Prometheus TYPE, and whether the
// dimension belongs in a "dimension" label rather than baked into the name,
// following the exposition path's as-collected/average/sum dispatch (§4.1,
// §4.6 point 6): AS_COLLECTED counters get a "_total" suffix and TYPE
// counter; a heterogeneous AS_COLLECTED chart names each dimension
// individually since they cannot share one family; AVERAGE/SUM always
// reduce to a gauge, suffixed to say which aggregation produced the value.
func (h *Handler) metricFor(base string, chart tsdb.Chart, dim tsdb.Dimension, ds model.DataSource, homogeneous bool) (metric, metricType string, withDimLabel bool) {
	unitSuffix := ""
	if h.Flags&FlagHideUnits == 0 {
		unitSuffix = MetricUnitSuffix(chart.Units(), h.Flags&FlagOldUnits != 0)
	}

	isCounter := dim.Algorithm() == "incremental"

	switch ds {
	case model.Average:
		return base + unitSuffix + "_average", "gauge", true
	case model.Sum:
		return base + unitSuffix + "_sum", "gauge", true
	default: // model.AsCollected
		metric = base + unitSuffix
		withDimLabel = homogeneous
		if !homogeneous {
			metric += "_" + sanitize.Name(dim.Name())
		}
		if isCounter {
			metric += "_total"
			metricType = "counter"
		} else {
			metricType = "gauge"
		}
		return metric, metricType, withDimLabel
	}
}
