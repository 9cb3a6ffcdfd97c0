package constants

// ─── Histogram Buckets ─────────────────────────────────────────────
// Pre-defined bucket sets for Prometheus histograms.

// SendLatencyBuckets covers 1ms to 10s — tuned for per-instance network sends.
var SendLatencyBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05,
	0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0,
}

// ─── Common Prometheus Label Sets ──────────────────────────────────
// Pre-defined label slices to avoid repeated allocations.

var LabelsInstance = []string{LabelInstance}
var LabelsInstanceChartDimension = []string{LabelInstance, LabelChart, LabelDimension}
