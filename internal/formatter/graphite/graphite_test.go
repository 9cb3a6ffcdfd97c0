package graphite

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/vigilantagent/exporting/internal/formatter"
)

func TestFormatterEmitsDottedLine(t *testing.T) {
	f := New()
	var buf bytes.Buffer
	meta := formatter.BatchMeta{Hostname: "web-01", Prefix: "netdata"}

	if err := f.Host(&buf, meta, formatter.HostMeta{Hostname: "web-01"}); err != nil {
		t.Fatalf("Host: %v", err)
	}
	ts := time.Unix(1700000000, 0)
	err := f.Dimension(&buf, meta,
		formatter.ChartMeta{ID: "system.cpu"},
		formatter.DimensionMeta{ID: "user"},
		42.5, ts)
	if err != nil {
		t.Fatalf("Dimension: %v", err)
	}

	got := buf.String()
	want := "netdata.web-01.system.cpu.user 42.500000 1700000000\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestFormatterSanitizesNames(t *testing.T) {
	f := New()
	var buf bytes.Buffer
	meta := formatter.BatchMeta{Hostname: "web 01", Prefix: "net data"}
	_ = f.Host(&buf, meta, formatter.HostMeta{Hostname: "web 01"})
	_ = f.Dimension(&buf, meta,
		formatter.ChartMeta{ID: "system cpu"},
		formatter.DimensionMeta{ID: "us er"},
		1, time.Unix(0, 0))

	got := buf.String()
	if !strings.HasPrefix(got, "net_data.web_01.system_cpu.us_er ") {
		t.Fatalf("expected sanitized dotted path, got %q", got)
	}
}
