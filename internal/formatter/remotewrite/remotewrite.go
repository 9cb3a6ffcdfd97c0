// Package remotewrite implements the Prometheus remote-write formatter:
// each dimension becomes one prompb.TimeSeries, the whole batch is
// protobuf-marshaled and snappy-compressed into a single
// prompb.WriteRequest (§4.2), grounded on the wire format used by
// Prometheus's own remote_write client and by other remote-write producers
// in the wild (k6's output plugin, among others).
package remotewrite

import (
	"io"
	"time"

	"github.com/golang/snappy"
	"github.com/prometheus/prometheus/prompb"

	"github.com/vigilantagent/exporting/internal/formatter"
	"github.com/vigilantagent/exporting/internal/model"
	"github.com/vigilantagent/exporting/internal/sanitize"
)

const labelHost = "instance"
const labelName = "__name__"

// Formatter accumulates one prompb.TimeSeries per Dimension call and
// flushes the whole batch as a single compressed WriteRequest on
// BatchEnd. Unlike the line-oriented formatters, it cannot stream: the
// wire format requires the full message length up front for protobuf
// framing, so state is held on the Formatter rather than written
// incrementally to w.
type Formatter struct {
	formatter.NoOp
	host        string
	extraLabels []prompb.Label
	series      []prompb.TimeSeries
}

func New() *Formatter { return &Formatter{} }

func (f *Formatter) Name() string        { return "prometheus_remote_write" }
func (f *Formatter) ContentType() string { return "application/x-protobuf" }

func (f *Formatter) BatchBegin(w io.Writer, b formatter.BatchMeta) error {
	f.series = f.series[:0]
	return nil
}

func (f *Formatter) Host(w io.Writer, b formatter.BatchMeta, h formatter.HostMeta) error {
	f.host = h.Hostname
	f.extraLabels = f.extraLabels[:0]
	return nil
}

// Tag accumulates a host label as an extra Prometheus label, merged into
// every series emitted for this host (§4.2 host_tags).
func (f *Formatter) Tag(w io.Writer, b formatter.BatchMeta, key, value string) error {
	f.extraLabels = append(f.extraLabels, prompb.Label{
		Name:  sanitize.Name(key),
		Value: sanitize.LabelValue(value),
	})
	return nil
}

func (f *Formatter) Dimension(w io.Writer, b formatter.BatchMeta, c formatter.ChartMeta, d formatter.DimensionMeta, value float64, ts time.Time) error {
	label := d.ID
	if b.Options.Has(model.OptSendNamesInsteadOfIDs) {
		label = d.Name
	}
	name := sanitize.Name(b.Prefix + "_" + c.ID + "_" + label)
	host := f.host
	if host == "" {
		host = b.Hostname
	}
	labels := []prompb.Label{
		{Name: labelName, Value: name},
		{Name: labelHost, Value: sanitize.LabelValue(host)},
		{Name: "chart", Value: sanitize.LabelValue(c.ID)},
		{Name: "dimension", Value: sanitize.LabelValue(label)},
	}
	labels = append(labels, f.extraLabels...)
	f.series = append(f.series, prompb.TimeSeries{
		Labels: labels,
		Samples: []prompb.Sample{
			{Value: value, Timestamp: ts.UnixMilli()},
		},
	})
	return nil
}

// Variable emits a host-level variable as its own time series, named
// "<prefix>_variable_<name>" (§4.2).
func (f *Formatter) Variable(w io.Writer, b formatter.BatchMeta, name string, value float64) error {
	host := f.host
	if host == "" {
		host = b.Hostname
	}
	labels := []prompb.Label{
		{Name: labelName, Value: sanitize.Name(b.Prefix + "_variable_" + name)},
		{Name: labelHost, Value: sanitize.LabelValue(host)},
	}
	labels = append(labels, f.extraLabels...)
	f.series = append(f.series, prompb.TimeSeries{
		Labels: labels,
		Samples: []prompb.Sample{
			{Value: value, Timestamp: time.Now().UnixMilli()},
		},
	})
	return nil
}

func (f *Formatter) BatchEnd(w io.Writer, b formatter.BatchMeta) error {
	if len(f.series) == 0 {
		return nil
	}
	req := &prompb.WriteRequest{Timeseries: f.series}
	raw, err := req.Marshal()
	if err != nil {
		return err
	}
	compressed := snappy.Encode(nil, raw)
	_, err = w.Write(compressed)
	return err
}
