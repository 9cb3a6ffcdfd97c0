// Package telemetry implements the exporting engine's self-telemetry
// (§4.8): per-instance counters collected with atomics for low overhead,
// then pushed two ways — back into the TSDB as first-class charts, and
// exposed as native Prometheus collectors on the engine's own admin
// endpoint — mirroring the teacher's dual push-to-store /
// expose-as-collector split (internal/export/prometheus.go's
// collectBusStats alongside internal/exporter.Server's promhttp.Handler).
package telemetry

import "sync/atomic"

// Stats holds one instance's lifetime counters. All fields are accessed
// via atomic operations so the worker goroutine and any concurrent
// reporter (pipeline collector, Prometheus scrape) never race.
type Stats struct {
	BufferedMetrics int64
	BufferedBytes   int64
	LostMetrics     int64
	LostBytes       int64
	SentMetrics     int64
	SentBytes       int64
	ReceivedBytes   int64

	TransmitSuccesses int64
	TransmitFailures  int64
	Reconnects        int64
	DataLostEvents    int64
}

func (s *Stats) AddBuffered(metrics int, bytes int) {
	atomic.AddInt64(&s.BufferedMetrics, int64(metrics))
	atomic.AddInt64(&s.BufferedBytes, int64(bytes))
}

func (s *Stats) AddLost(metrics int, bytes int) {
	atomic.AddInt64(&s.LostMetrics, int64(metrics))
	atomic.AddInt64(&s.LostBytes, int64(bytes))
	atomic.AddInt64(&s.DataLostEvents, 1)
}

func (s *Stats) AddSent(metrics int, bytes int) {
	atomic.AddInt64(&s.SentMetrics, int64(metrics))
	atomic.AddInt64(&s.SentBytes, int64(bytes))
}

func (s *Stats) AddReceived(bytes int) {
	atomic.AddInt64(&s.ReceivedBytes, int64(bytes))
}

func (s *Stats) AddTransmitSuccess() { atomic.AddInt64(&s.TransmitSuccesses, 1) }
func (s *Stats) AddTransmitFailure() { atomic.AddInt64(&s.TransmitFailures, 1) }
func (s *Stats) AddReconnect()       { atomic.AddInt64(&s.Reconnects, 1) }

// Snapshot is a point-in-time copy safe to read without further locking.
type Snapshot struct {
	BufferedMetrics, BufferedBytes     int64
	LostMetrics, LostBytes             int64
	SentMetrics, SentBytes             int64
	ReceivedBytes                      int64
	TransmitSuccesses, TransmitFailures int64
	Reconnects, DataLostEvents         int64
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		BufferedMetrics:   atomic.LoadInt64(&s.BufferedMetrics),
		BufferedBytes:     atomic.LoadInt64(&s.BufferedBytes),
		LostMetrics:       atomic.LoadInt64(&s.LostMetrics),
		LostBytes:         atomic.LoadInt64(&s.LostBytes),
		SentMetrics:       atomic.LoadInt64(&s.SentMetrics),
		SentBytes:         atomic.LoadInt64(&s.SentBytes),
		ReceivedBytes:     atomic.LoadInt64(&s.ReceivedBytes),
		TransmitSuccesses: atomic.LoadInt64(&s.TransmitSuccesses),
		TransmitFailures:  atomic.LoadInt64(&s.TransmitFailures),
		Reconnects:        atomic.LoadInt64(&s.Reconnects),
		DataLostEvents:    atomic.LoadInt64(&s.DataLostEvents),
	}
}
