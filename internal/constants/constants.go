// Package constants provides the named constants for the exporting engine.
// Eliminates magic numbers and hardcoded values throughout the codebase.
// All tuning parameters, sizes, timeouts, and keys are defined here.
package constants

import "time"

// ─── Engine Defaults ───────────────────────────────────────────────
const (
	// DefaultConfigPath is the default YAML config file path.
	DefaultConfigPath = "exporting.yaml"

	// Version is the current engine version, surfaced in netdata_info.
	Version = "1.0.0"

	// Application is the netdata_info application label value.
	Application = "exporting-engine"

	// DefaultUpdateEvery is used when an instance config omits it.
	DefaultUpdateEvery = 10 * time.Second

	// MinUpdateEvery is the smallest accepted send interval.
	MinUpdateEvery = 1 * time.Second
)

// ─── Environment Variable Keys ─────────────────────────────────────
const (
	EnvConfigPath = "EXPORTING_CONFIG"
	EnvLogLevel   = "EXPORTING_LOG_LEVEL"
	EnvAdminAddr  = "EXPORTING_ADMIN_ADDR"
)

// ─── Buffering ──────────────────────────────────────────────────────
const (
	// MinBufferOnFailures is the minimum ring depth per instance (§3).
	MinBufferOnFailures = 1

	// DefaultBufferOnFailures is used when an instance config omits it.
	DefaultBufferOnFailures = 10
)

// ─── Network Timeouts ──────────────────────────────────────────────
const (
	// DefaultTimeout is used when an instance config omits timeout_ms.
	DefaultTimeout = 20 * time.Second

	// MinTLSReadTimeout is the floor for a TLS connection's read deadline,
	// computed as max(timeout/4, this) per §4.5.
	MinTLSReadTimeout = 2 * time.Second

	// SDKPollTimeout bounds how long an SDK-backed send waits for the
	// underlying async publish/put to resolve within one worker iteration.
	SDKPollTimeout = 50 * time.Millisecond
)

// ─── Shutdown ──────────────────────────────────────────────────────
const (
	// ShutdownTimeout is the max time the engine waits for all instance
	// workers to observe exit and drain before giving up (§4.4, §5).
	ShutdownTimeout = 2 * time.Second

	// AdminShutdownTimeout bounds the admin HTTP server's graceful drain.
	AdminShutdownTimeout = 5 * time.Second
)

// ─── HTTP Server Timeouts (admin/self-telemetry endpoint) ─────────
const (
	HTTPReadTimeout  = 5 * time.Second
	HTTPWriteTimeout = 10 * time.Second
	HTTPIdleTimeout  = 120 * time.Second
)

// ─── HTTP Paths ────────────────────────────────────────────────────
const (
	PathMetrics           = "/metrics"
	PathHealthz           = "/healthz"
	PathReadyz            = "/readyz"
	PathAllMetrics        = "/api/v1/allmetrics"
	DefaultRemoteWritePath = "/receive"
	DefaultOpenTSDBPath   = "/api/put"
)

// ─── Self-telemetry chart ids (§4.8) ───────────────────────────────
const (
	InternalHost    = "netdata"
	InternalFamily  = "exporting"
	ChartMetricsFmt = "exporting_%s_metrics"
	ChartBytesFmt   = "exporting_%s_bytes"
	ChartOpsFmt     = "exporting_%s_ops"
	ChartCPUFmt     = "exporting_%s_thread_cpu"
)

// ─── Self-telemetry Prometheus metric names (admin /metrics) ──────
const (
	MetricPrefix               = "exporting_"
	MetricBufferedMetrics      = MetricPrefix + "buffered_metrics_total"
	MetricBufferedBytes        = MetricPrefix + "buffered_bytes_total"
	MetricLostMetrics          = MetricPrefix + "lost_metrics_total"
	MetricLostBytes            = MetricPrefix + "lost_bytes_total"
	MetricSentMetrics          = MetricPrefix + "sent_metrics_total"
	MetricSentBytes            = MetricPrefix + "sent_bytes_total"
	MetricReceivedBytes        = MetricPrefix + "received_bytes_total"
	MetricTransmitSuccesses    = MetricPrefix + "transmission_successes_total"
	MetricTransmitFailures     = MetricPrefix + "transmission_failures_total"
	MetricReceptions           = MetricPrefix + "receptions_total"
	MetricReconnects           = MetricPrefix + "reconnects_total"
	MetricDataLostEvents       = MetricPrefix + "data_lost_events_total"
)

// ─── Prometheus label names ────────────────────────────────────────
const (
	LabelInstance  = "instance"
	LabelChart     = "chart"
	LabelDimension = "dimension"
	LabelFamily    = "family"
)

// ─── Kinesis ────────────────────────────────────────────────────────
const (
	// KinesisRecordMax is the PutRecord payload ceiling (1 MiB).
	KinesisRecordMax = 1 << 20
)
