// Package opentsdb implements the OpenTSDB "put" line protocol (telnet)
// and its HTTP JSON batch variant (§4.2).
package opentsdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/vigilantagent/exporting/internal/formatter"
	"github.com/vigilantagent/exporting/internal/model"
	"github.com/vigilantagent/exporting/internal/sanitize"
)

// Formatter emits OpenTSDB "put" lines. Set HTTP to batch the same points
// into a single JSON array for the /api/put HTTP endpoint instead.
type Formatter struct {
	formatter.NoOp
	HTTP bool

	host      string
	extraTags map[string]string
	batched   []point
}

type point struct {
	Metric    string            `json:"metric"`
	Timestamp int64             `json:"timestamp"`
	Value     float64           `json:"value"`
	Tags      map[string]string `json:"tags"`
}

func New(http bool) *Formatter { return &Formatter{HTTP: http} }

func (f *Formatter) Name() string {
	if f.HTTP {
		return "opentsdb:http"
	}
	return "opentsdb"
}

func (f *Formatter) ContentType() string {
	if f.HTTP {
		return "application/json"
	}
	return ""
}

func (f *Formatter) BatchBegin(w io.Writer, b formatter.BatchMeta) error {
	f.batched = f.batched[:0]
	return nil
}

func (f *Formatter) Host(w io.Writer, b formatter.BatchMeta, h formatter.HostMeta) error {
	f.host = sanitize.Name(h.Hostname)
	f.extraTags = map[string]string{}
	return nil
}

// Tag accumulates a host label as an extra OpenTSDB tag, merged into
// every point emitted for this host (§4.2 host_tags).
func (f *Formatter) Tag(w io.Writer, b formatter.BatchMeta, key, value string) error {
	if f.extraTags == nil {
		f.extraTags = map[string]string{}
	}
	f.extraTags[sanitize.Name(key)] = value
	return nil
}

func (f *Formatter) Dimension(w io.Writer, b formatter.BatchMeta, c formatter.ChartMeta, d formatter.DimensionMeta, value float64, ts time.Time) error {
	label := d.ID
	if b.Options.Has(model.OptSendNamesInsteadOfIDs) {
		label = d.Name
	}
	metric := sanitize.Name(fmt.Sprintf("%s.%s.%s", b.Prefix, c.ID, label))
	host := f.host
	if host == "" {
		host = sanitize.Name(b.Hostname)
	}
	if f.HTTP {
		tags := map[string]string{"host": host}
		for k, v := range f.extraTags {
			tags[k] = v
		}
		f.batched = append(f.batched, point{
			Metric: metric,
			// OpenTSDB's HTTP /api/put endpoint accepts millisecond
			// timestamps; the telnet "put" line below stays in seconds,
			// the wire format the telnet protocol actually expects.
			Timestamp: ts.UnixMilli(),
			Value:     value,
			Tags:      tags,
		})
		return nil
	}
	line := fmt.Sprintf("put %s %d %f host=%s", metric, ts.Unix(), value, host)
	for k, v := range f.extraTags {
		line += fmt.Sprintf(" %s=%s", k, sanitize.Name(v))
	}
	_, err := fmt.Fprintf(w, "%s\n", line)
	return err
}

// Variable writes a host-level variable as its own metric under a
// "variables" namespace.
func (f *Formatter) Variable(w io.Writer, b formatter.BatchMeta, name string, value float64) error {
	host := f.host
	if host == "" {
		host = sanitize.Name(b.Hostname)
	}
	metric := sanitize.Name(fmt.Sprintf("%s.variables.%s", b.Prefix, name))
	if f.HTTP {
		f.batched = append(f.batched, point{
			Metric:    metric,
			Timestamp: time.Now().UnixMilli(),
			Value:     value,
			Tags:      map[string]string{"host": host},
		})
		return nil
	}
	_, err := fmt.Fprintf(w, "put %s %d %f host=%s\n", metric, time.Now().Unix(), value, host)
	return err
}

func (f *Formatter) BatchEnd(w io.Writer, b formatter.BatchMeta) error {
	if !f.HTTP {
		return nil
	}
	if len(f.batched) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(f.batched); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
