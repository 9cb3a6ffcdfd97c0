// Package jsonfmt implements the JSON array formatter: one JSON object per
// dimension, the whole send buffer a single top-level array (§4.2).
package jsonfmt

import (
	"encoding/json"
	"io"
	"time"

	"github.com/vigilantagent/exporting/internal/formatter"
	"github.com/vigilantagent/exporting/internal/model"
)

// record is one flat JSON object per dimension, matching the documented
// wire schema (§4.2): host/chart identity, the chart's own metadata, the
// dimension, its value, and the host's tags.
type record struct {
	Host      string            `json:"host"`
	HostTags  map[string]string `json:"host_tags,omitempty"`
	Prefix    string            `json:"prefix,omitempty"`
	Chart     string            `json:"chart"`
	ChartName string            `json:"chart_name,omitempty"`
	Family    string            `json:"family,omitempty"`
	Context   string            `json:"context,omitempty"`
	Type      string            `json:"type,omitempty"`
	Units     string            `json:"units,omitempty"`
	Dimension string            `json:"dimension"`
	Name      string            `json:"name,omitempty"`
	Value     float64           `json:"value"`
	Timestamp int64             `json:"timestamp"`
}

// Formatter emits a JSON array of flat dimension records.
type Formatter struct {
	formatter.NoOp
	host     string
	hostTags map[string]string
	first    bool
}

func New() *Formatter { return &Formatter{} }

func (f *Formatter) Name() string        { return "json" }
func (f *Formatter) ContentType() string { return "application/json" }

func (f *Formatter) BatchBegin(w io.Writer, b formatter.BatchMeta) error {
	f.first = true
	_, err := io.WriteString(w, "[")
	return err
}

func (f *Formatter) Host(w io.Writer, b formatter.BatchMeta, h formatter.HostMeta) error {
	f.host = h.Hostname
	f.hostTags = map[string]string{}
	return nil
}

// Tag accumulates a host label into host_tags, emitted on every record
// for this host (§4.2 host_tags).
func (f *Formatter) Tag(w io.Writer, b formatter.BatchMeta, key, value string) error {
	if f.hostTags == nil {
		f.hostTags = map[string]string{}
	}
	f.hostTags[key] = value
	return nil
}

func (f *Formatter) Dimension(w io.Writer, b formatter.BatchMeta, c formatter.ChartMeta, d formatter.DimensionMeta, value float64, ts time.Time) error {
	if err := f.writeSeparator(w); err != nil {
		return err
	}
	dimension := d.ID
	if b.Options.Has(model.OptSendNamesInsteadOfIDs) {
		dimension = d.Name
	}
	rec := record{
		Host:      f.host,
		HostTags:  f.hostTags,
		Prefix:    b.Prefix,
		Chart:     c.ID,
		ChartName: c.Name,
		Family:    c.Family,
		Context:   c.Context,
		Type:      c.Type,
		Units:     c.Units,
		Dimension: dimension,
		Name:      d.Name,
		Value:     value,
		Timestamp: ts.UnixMilli(),
	}
	return f.encode(w, rec)
}

// Variable emits a host-level variable as its own record, distinguished
// by an empty Dimension and Type "variable" (§4.2).
func (f *Formatter) Variable(w io.Writer, b formatter.BatchMeta, name string, value float64) error {
	if err := f.writeSeparator(w); err != nil {
		return err
	}
	rec := record{
		Host:      f.host,
		HostTags:  f.hostTags,
		Prefix:    b.Prefix,
		Type:      "variable",
		Name:      name,
		Value:     value,
		Timestamp: time.Now().UnixMilli(),
	}
	return f.encode(w, rec)
}

func (f *Formatter) writeSeparator(w io.Writer) error {
	if !f.first {
		if _, err := io.WriteString(w, ","); err != nil {
			return err
		}
	}
	f.first = false
	return nil
}

func (f *Formatter) encode(w io.Writer, rec record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(rec)
}

func (f *Formatter) BatchEnd(w io.Writer, b formatter.BatchMeta) error {
	_, err := io.WriteString(w, "]\n")
	return err
}
