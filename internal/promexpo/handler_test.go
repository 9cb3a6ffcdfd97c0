package promexpo

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vigilantagent/exporting/internal/model"
	"github.com/vigilantagent/exporting/internal/telemetry"
	"github.com/vigilantagent/exporting/internal/tsdb"
)

func newTestHandler(db tsdb.Database) *Handler {
	return NewHandler(db, telemetry.BuildInfo{Application: "exporterd", Version: "test"})
}

func seedCounterChart(db *tsdb.MemDB, host, chartID string) {
	dim := tsdb.NewDimension("received", model.AsCollected, time.Second)
	dim.SetScaling("incremental", 1, 1)
	dim.Append(tsdb.Point{Timestamp: time.Now().Add(-time.Second), Value: 100, Collected: true})
	dim.Append(tsdb.Point{Timestamp: time.Now(), Value: 200, Collected: true})
	db.AddDimension(host, chartID, dim)
}

func TestHomogeneousChartSharesOneMetricFamily(t *testing.T) {
	db := tsdb.NewMemDB("localhost")
	seedCounterChart(db, "localhost", "net.eth0")

	h := newTestHandler(db)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "net_eth0_total{") {
		t.Fatalf("expected a _total counter metric, got:\n%s", body)
	}
	if !strings.Contains(body, `dimension="received"`) {
		t.Fatalf("expected a dimension label on the homogeneous metric, got:\n%s", body)
	}
	if !strings.Contains(body, "# TYPE net_eth0_total counter") {
		t.Fatalf("expected TYPE counter for an incremental dimension, got:\n%s", body)
	}
}

func TestHeterogeneousChartNamesEachDimensionSeparately(t *testing.T) {
	db := tsdb.NewMemDB("localhost")

	counter := tsdb.NewDimension("in", model.AsCollected, time.Second)
	counter.SetScaling("incremental", 1, 1)
	counter.Append(tsdb.Point{Timestamp: time.Now(), Value: 10, Collected: true})
	db.AddDimension("localhost", "mixed.chart", counter)

	gauge := tsdb.NewDimension("level", model.AsCollected, time.Second)
	gauge.SetScaling("absolute", 1, 1)
	gauge.Append(tsdb.Point{Timestamp: time.Now(), Value: 42, Collected: true})
	db.AddDimension("localhost", "mixed.chart", gauge)

	h := newTestHandler(db)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "mixed_chart_in_total{") {
		t.Fatalf("expected the counter dimension to get its own metric name, got:\n%s", body)
	}
	if !strings.Contains(body, "mixed_chart_level{") {
		t.Fatalf("expected the gauge dimension to get its own metric name, got:\n%s", body)
	}
	if strings.Contains(body, `dimension="in"`) || strings.Contains(body, `dimension="level"`) {
		t.Fatalf("heterogeneous dimensions should not carry a dimension label, got:\n%s", body)
	}
}

func TestHelpTypeEmittedOncePerMetricPerScrape(t *testing.T) {
	db := tsdb.NewMemDB("localhost")
	seedCounterChart(db, "host-a", "net.eth0")
	seedCounterChart(db, "host-b", "net.eth0")

	h := newTestHandler(db)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if n := strings.Count(body, "# TYPE net_eth0_total"); n != 1 {
		t.Fatalf("expected exactly one TYPE line for net_eth0_total across both hosts, got %d in:\n%s", n, body)
	}
}

func TestFlagHelpTypeOffSuppressesHelpAndType(t *testing.T) {
	db := tsdb.NewMemDB("localhost")
	seedCounterChart(db, "localhost", "net.eth0")

	h := newTestHandler(db)
	h.Flags &^= FlagHelpType
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if body := rec.Body.String(); strings.Contains(body, "# TYPE net_eth0") {
		t.Fatalf("expected no TYPE line with FlagHelpType unset, got:\n%s", body)
	}
}

func TestFlagVariablesEmitsHostVariables(t *testing.T) {
	db := tsdb.NewMemDB("localhost")
	seedCounterChart(db, "localhost", "net.eth0")
	db.SetHostVariable("localhost", "ram_total", 16384)

	h := newTestHandler(db)
	h.Flags |= FlagVariables
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if body := rec.Body.String(); !strings.Contains(body, "ram_total{") {
		t.Fatalf("expected a ram_total variable metric, got:\n%s", body)
	}
}

func TestFlagHideUnitsSuppressesUnitSuffix(t *testing.T) {
	db := tsdb.NewMemDB("localhost")
	c := db.EnsureChart("localhost", "system.cpu", "CPU", "cpu", "cpu", "percentage", []string{"user"})
	db.Collect(c, time.Now().Add(-time.Second), map[string]float64{"user": 1})
	db.Collect(c, time.Now(), map[string]float64{"user": 2})

	h := newTestHandler(db)
	h.Flags |= FlagHideUnits
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if strings.Contains(body, "cpu_percent") || strings.Contains(body, "cpu_percentage") {
		t.Fatalf("expected no unit suffix with FlagHideUnits set, got:\n%s", body)
	}
	if !strings.Contains(body, "cpu{") {
		t.Fatalf("expected the cpu metric without a unit suffix, got:\n%s", body)
	}
}
