package telemetry

import (
	"fmt"
	"time"

	"github.com/vigilantagent/exporting/internal/constants"
	"github.com/vigilantagent/exporting/internal/tsdb"
)

// BuildInfo identifies the running engine in the netdata_info metric
// (§4.6 point 2, SUPPLEMENTED FEATURES).
type BuildInfo struct {
	Application string
	Version     string
}

// Source is one instance's stats plus the name used in chart ids.
type Source struct {
	Instance string
	Stats    *Stats
}

// Publisher periodically pushes every registered instance's Stats back
// into the TSDB as first-class charts under the synthetic internal host
// (§4.8), the way the teacher's Prometheus exporter periodically calls
// collectBusStats to refresh its own metric vectors from the event bus.
type Publisher struct {
	writer  tsdb.Writer
	sources []Source
}

// NewPublisher returns a Publisher writing through w.
func NewPublisher(w tsdb.Writer) *Publisher {
	return &Publisher{writer: w}
}

// Register adds an instance's stats to the set published on every Publish.
func (p *Publisher) Register(instance string, s *Stats) {
	p.sources = append(p.sources, Source{Instance: instance, Stats: s})
}

// Publish writes one point per chart per registered instance at ts.
func (p *Publisher) Publish(ts time.Time) {
	for _, src := range p.sources {
		snap := src.Stats.Snapshot()

		metricsChart := p.writer.EnsureChart(constants.InternalHost,
			fmt.Sprintf(constants.ChartMetricsFmt, src.Instance),
			"Metrics exported", constants.InternalFamily, "exporting.metrics", "metrics/s",
			[]string{"buffered", "lost", "sent"})
		p.writer.Collect(metricsChart, ts, map[string]float64{
			"buffered": float64(snap.BufferedMetrics),
			"lost":     float64(snap.LostMetrics),
			"sent":     float64(snap.SentMetrics),
		})

		bytesChart := p.writer.EnsureChart(constants.InternalHost,
			fmt.Sprintf(constants.ChartBytesFmt, src.Instance),
			"Bytes transferred", constants.InternalFamily, "exporting.bytes", "bytes/s",
			[]string{"sent", "received"})
		p.writer.Collect(bytesChart, ts, map[string]float64{
			"sent":     float64(snap.SentBytes),
			"received": float64(snap.ReceivedBytes),
		})

		opsChart := p.writer.EnsureChart(constants.InternalHost,
			fmt.Sprintf(constants.ChartOpsFmt, src.Instance),
			"Transmission outcomes", constants.InternalFamily, "exporting.ops", "events",
			[]string{"successes", "failures", "reconnects", "data_lost"})
		p.writer.Collect(opsChart, ts, map[string]float64{
			"successes":  float64(snap.TransmitSuccesses),
			"failures":   float64(snap.TransmitFailures),
			"reconnects": float64(snap.Reconnects),
			"data_lost":  float64(snap.DataLostEvents),
		})
	}
}
