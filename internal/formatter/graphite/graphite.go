// Package graphite implements the Graphite plaintext protocol formatter:
// one line per dimension, "<prefix>.<host>.<chart>.<dimension> <value>
// <unix-ts>\n", dot-separated and otherwise sanitized (§4.2).
package graphite

import (
	"fmt"
	"io"
	"time"

	"github.com/vigilantagent/exporting/internal/formatter"
	"github.com/vigilantagent/exporting/internal/model"
	"github.com/vigilantagent/exporting/internal/sanitize"
)

// Formatter emits the Graphite plaintext line protocol.
type Formatter struct {
	formatter.NoOp
	host string
}

func New() *Formatter { return &Formatter{} }

func (f *Formatter) Name() string { return "graphite" }

func (f *Formatter) Host(w io.Writer, b formatter.BatchMeta, h formatter.HostMeta) error {
	f.host = sanitize.NameKeepDot(h.Hostname)
	return nil
}

func (f *Formatter) Dimension(w io.Writer, b formatter.BatchMeta, c formatter.ChartMeta, d formatter.DimensionMeta, value float64, ts time.Time) error {
	host := f.host
	if host == "" {
		host = sanitize.NameKeepDot(b.Hostname)
	}
	prefix := sanitize.NameKeepDot(b.Prefix)
	chart := sanitize.NameKeepDot(c.ID)
	label := d.ID
	if b.Options.Has(model.OptSendNamesInsteadOfIDs) {
		label = d.Name
	}
	dim := sanitize.NameKeepDot(label)
	_, err := fmt.Fprintf(w, "%s.%s.%s.%s %f %d\n", prefix, host, chart, dim, value, ts.Unix())
	return err
}

// Variable writes a host-level variable as its own dotted line under a
// "variables" namespace, the graphite-native way to represent a
// non-chart scalar (§4.2).
func (f *Formatter) Variable(w io.Writer, b formatter.BatchMeta, name string, value float64) error {
	host := f.host
	if host == "" {
		host = sanitize.NameKeepDot(b.Hostname)
	}
	prefix := sanitize.NameKeepDot(b.Prefix)
	v := sanitize.NameKeepDot(name)
	_, err := fmt.Fprintf(w, "%s.%s.variables.%s %f %d\n", prefix, host, v, value, time.Now().Unix())
	return err
}
