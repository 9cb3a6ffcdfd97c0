package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vigilantagent/exporting/internal/constants"
)

// PromCollector exposes every registered instance's Stats as native
// Prometheus collectors, grounded on the teacher's internal/export/
// prometheus.go (promauto CounterVecs refreshed from collectBusStats).
// This is the second of the two self-telemetry surfaces (§4.8 plus the
// DOMAIN STACK expansion): operators scraping the engine's own /metrics
// endpoint see the same counters Publisher pushes into the TSDB, without
// waiting for a TSDB round trip.
type PromCollector struct {
	pub *Publisher

	buffered   *prometheus.Desc
	lost       *prometheus.Desc
	sent       *prometheus.Desc
	sentBytes  *prometheus.Desc
	recvBytes  *prometheus.Desc
	successes  *prometheus.Desc
	failures   *prometheus.Desc
	reconnects *prometheus.Desc
}

// NewPromCollector returns a collector that reads pub's registered
// sources on every Collect call.
func NewPromCollector(pub *Publisher) *PromCollector {
	labels := constants.LabelsInstance
	return &PromCollector{
		pub:        pub,
		buffered:   prometheus.NewDesc(constants.MetricBufferedMetrics, "Metrics buffered for sending.", labels, nil),
		lost:       prometheus.NewDesc(constants.MetricLostMetrics, "Metrics dropped without being sent.", labels, nil),
		sent:       prometheus.NewDesc(constants.MetricSentMetrics, "Metrics successfully sent.", labels, nil),
		sentBytes:  prometheus.NewDesc(constants.MetricSentBytes, "Bytes successfully sent.", labels, nil),
		recvBytes:  prometheus.NewDesc(constants.MetricReceivedBytes, "Bytes received in responses.", labels, nil),
		successes:  prometheus.NewDesc(constants.MetricTransmitSuccesses, "Successful transmissions.", labels, nil),
		failures:   prometheus.NewDesc(constants.MetricTransmitFailures, "Failed transmissions.", labels, nil),
		reconnects: prometheus.NewDesc(constants.MetricReconnects, "Transport reconnects.", labels, nil),
	}
}

func (c *PromCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.buffered
	ch <- c.lost
	ch <- c.sent
	ch <- c.sentBytes
	ch <- c.recvBytes
	ch <- c.successes
	ch <- c.failures
	ch <- c.reconnects
}

func (c *PromCollector) Collect(ch chan<- prometheus.Metric) {
	for _, src := range c.pub.sources {
		snap := src.Stats.Snapshot()
		ch <- prometheus.MustNewConstMetric(c.buffered, prometheus.CounterValue, float64(snap.BufferedMetrics), src.Instance)
		ch <- prometheus.MustNewConstMetric(c.lost, prometheus.CounterValue, float64(snap.LostMetrics), src.Instance)
		ch <- prometheus.MustNewConstMetric(c.sent, prometheus.CounterValue, float64(snap.SentMetrics), src.Instance)
		ch <- prometheus.MustNewConstMetric(c.sentBytes, prometheus.CounterValue, float64(snap.SentBytes), src.Instance)
		ch <- prometheus.MustNewConstMetric(c.recvBytes, prometheus.CounterValue, float64(snap.ReceivedBytes), src.Instance)
		ch <- prometheus.MustNewConstMetric(c.successes, prometheus.CounterValue, float64(snap.TransmitSuccesses), src.Instance)
		ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(snap.TransmitFailures), src.Instance)
		ch <- prometheus.MustNewConstMetric(c.reconnects, prometheus.CounterValue, float64(snap.Reconnects), src.Instance)
	}
}
