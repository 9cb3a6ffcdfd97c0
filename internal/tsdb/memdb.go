package tsdb

import (
	"sort"
	"sync"
	"time"

	"github.com/vigilantagent/exporting/internal/model"
)

// MemDB is a minimal in-memory Database/Writer, standing in for the real
// round-robin database so the pipeline can be exercised end to end without
// it. Safe for concurrent use: the database, each host, each chart, and
// each dimension are guarded by their own RWMutex, taken per call.
type MemDB struct {
	mu        sync.RWMutex
	hosts     map[string]*memHost
	localhost string
}

// NewMemDB returns an empty database whose Localhost is named localhost.
func NewMemDB(localhost string) *MemDB {
	return &MemDB{
		hosts:     map[string]*memHost{localhost: newMemHost(localhost)},
		localhost: localhost,
	}
}

func (d *MemDB) Hosts() []Host {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Host, 0, len(d.hosts))
	for _, h := range d.hosts {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hostname() < out[j].Hostname() })
	return out
}

func (d *MemDB) Host(hostname string) (Host, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.hosts[hostname]
	if !ok {
		return nil, false
	}
	return h, true
}

func (d *MemDB) Localhost() Host {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.hosts[d.localhost]
}

// EnsureChart implements Writer.
func (d *MemDB) EnsureChart(host, chartID, name, family, context, units string, dims []string) Chart {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.hosts[host]
	if !ok {
		h = newMemHost(host)
		d.hosts[host] = h
	}
	return h.ensureChart(chartID, name, family, context, units, dims)
}

// Collect implements Writer.
func (d *MemDB) Collect(chart Chart, ts time.Time, values map[string]float64) {
	c, ok := chart.(*memChart)
	if !ok {
		return
	}
	c.collect(ts, values)
}

// AddDimension registers dim on an arbitrary (non-Writer-path) chart, used
// by tests that build a fixture TSDB directly rather than through Collect.
func (d *MemDB) AddDimension(host, chartID string, dim *memDimension) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.hosts[host]
	if !ok {
		h = newMemHost(host)
		d.hosts[host] = h
	}
	c, ok := h.charts[chartID]
	if !ok {
		c = &memChart{id: chartID, name: chartID, dims: map[string]*memDimension{}}
		h.charts[chartID] = c
		h.order = append(h.order, chartID)
	}
	c.mu.Lock()
	if _, exists := c.dims[dim.id]; !exists {
		c.dimOrder = append(c.dimOrder, dim.id)
	}
	c.dims[dim.id] = dim
	c.mu.Unlock()
}

// SetHostLabel sets a configured/automatic label on host, creating the
// host if it does not exist yet.
func (d *MemDB) SetHostLabel(host, key, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.hosts[host]
	if !ok {
		h = newMemHost(host)
		d.hosts[host] = h
	}
	h.SetLabel(key, value)
}

// SetHostVariable sets a numeric host variable on host, creating the host
// if it does not exist yet.
func (d *MemDB) SetHostVariable(host, name string, value float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	h, ok := d.hosts[host]
	if !ok {
		h = newMemHost(host)
		d.hosts[host] = h
	}
	h.SetVariable(name, value)
}

type memHost struct {
	mu        sync.RWMutex
	hostname  string
	guid      string
	labels    map[string]string
	variables map[string]float64
	charts    map[string]*memChart
	order     []string
}

func newMemHost(hostname string) *memHost {
	return &memHost{
		hostname:  hostname,
		charts:    map[string]*memChart{},
		labels:    map[string]string{},
		variables: map[string]float64{},
	}
}

func (h *memHost) Hostname() string          { return h.hostname }
func (h *memHost) MachineGUID() string       { return h.guid }
func (h *memHost) Labels() map[string]string { return h.labels }

func (h *memHost) Variables() map[string]float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.variables
}

// SetLabel sets a host-level configured/automatic label (§4.2 host_tags).
func (h *memHost) SetLabel(key, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.labels[key] = value
}

// SetVariable sets a host-level numeric variable (§4.2, §6 send_variables).
func (h *memHost) SetVariable(name string, value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.variables[name] = value
}

func (h *memHost) Charts() []Chart {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Chart, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.charts[id])
	}
	return out
}

func (h *memHost) Chart(id string) (Chart, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.charts[id]
	if !ok {
		return nil, false
	}
	return c, true
}

func (h *memHost) ensureChart(id, name, family, context, units string, dims []string) *memChart {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.charts[id]
	if !ok {
		c = &memChart{id: id, name: name, family: family, context: context, units: units, dims: map[string]*memDimension{}}
		h.charts[id] = c
		h.order = append(h.order, id)
	}
	for _, dn := range dims {
		if _, exists := c.dims[dn]; !exists {
			c.mu.Lock()
			c.dims[dn] = &memDimension{id: dn, name: dn, ds: model.AsCollected, granularity: time.Second}
			c.dimOrder = append(c.dimOrder, dn)
			c.mu.Unlock()
		}
	}
	return c
}

type memChart struct {
	mu       sync.RWMutex
	id       string
	name     string
	family   string
	context  string
	units    string
	typ      string
	dims     map[string]*memDimension
	dimOrder []string
}

func (c *memChart) ID() string      { return c.id }
func (c *memChart) Name() string    { return c.name }
func (c *memChart) Family() string  { return c.family }
func (c *memChart) Context() string { return c.context }
func (c *memChart) Units() string   { return c.units }

func (c *memChart) Type() string {
	if c.typ == "" {
		return "line"
	}
	return c.typ
}

// SetType overrides the chart's type (default "line"), a fixture
// convenience for exercising the counter/area distinction.
func (c *memChart) SetType(typ string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.typ = typ
}

func (c *memChart) Dimensions() []Dimension {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Dimension, 0, len(c.dimOrder))
	for _, id := range c.dimOrder {
		out = append(out, c.dims[id])
	}
	return out
}

func (c *memChart) collect(ts time.Time, values map[string]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, v := range values {
		d, ok := c.dims[name]
		if !ok {
			d = &memDimension{id: name, name: name, ds: model.AsCollected, granularity: time.Second}
			c.dims[name] = d
			c.dimOrder = append(c.dimOrder, name)
		}
		d.append(Point{Timestamp: ts, Value: v, Collected: true})
	}
}

// NewDimension constructs a fixture dimension for direct use with
// MemDB.AddDimension in tests.
func NewDimension(id string, ds model.DataSource, granularity time.Duration) *memDimension {
	return &memDimension{id: id, name: id, ds: ds, granularity: granularity}
}

type memDimension struct {
	mu          sync.RWMutex
	id          string
	name        string
	ds          model.DataSource
	granularity time.Duration
	algorithm   string
	multiplier  int64
	divisor     int64
	points      []Point
}

func (d *memDimension) ID() string                  { return d.id }
func (d *memDimension) Name() string                { return d.name }
func (d *memDimension) DataSource() model.DataSource { return d.ds }
func (d *memDimension) Granularity() time.Duration   { return d.granularity }

func (d *memDimension) Algorithm() string {
	if d.algorithm == "" {
		return "absolute"
	}
	return d.algorithm
}

func (d *memDimension) Multiplier() int64 {
	if d.multiplier == 0 {
		return 1
	}
	return d.multiplier
}

func (d *memDimension) Divisor() int64 {
	if d.divisor == 0 {
		return 1
	}
	return d.divisor
}

// SetScaling overrides the dimension's algorithm/multiplier/divisor
// (defaults are "absolute"/1/1), used by tests that exercise
// heterogeneous-chart exposition (§4.6 point 4).
func (d *memDimension) SetScaling(algorithm string, multiplier, divisor int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.algorithm = algorithm
	d.multiplier = multiplier
	d.divisor = divisor
}

func (d *memDimension) append(p Point) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.points = append(d.points, p)
}

// Append adds a point directly, used by tests seeding a fixture dimension.
func (d *memDimension) Append(p Point) { d.append(p) }

func (d *memDimension) Points(after, before time.Time) []Point {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Point, 0, len(d.points))
	for _, p := range d.points {
		if !p.Timestamp.Before(after) && p.Timestamp.Before(before) {
			out = append(out, p)
		}
	}
	return out
}

func (d *memDimension) Oldest() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.points) == 0 {
		return time.Time{}
	}
	return d.points[0].Timestamp
}

func (d *memDimension) Latest() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.points) == 0 {
		return time.Time{}
	}
	return d.points[len(d.points)-1].Timestamp
}
