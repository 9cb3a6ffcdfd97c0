// Package instance implements the per-sink worker (§4.4): a scheduling
// side that the pipeline driver feeds via the Target interface, and a
// goroutine that drains the instance's ring toward its Sender, retrying a
// failed send up to buffer_on_failures times before dropping it (§4.10).
package instance

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/vigilantagent/exporting/internal/buffer"
	"github.com/vigilantagent/exporting/internal/formatter"
	"github.com/vigilantagent/exporting/internal/match"
	"github.com/vigilantagent/exporting/internal/model"
	"github.com/vigilantagent/exporting/internal/telemetry"
)

// Sender is the uniform send contract every backend — simple transport or
// SDK wrapper — is adapted to, so the worker loop below never needs to
// know which kind of sink it is talking to (§4.5, §4.7).
type Sender interface {
	Send(ctx context.Context, payload []byte) (sentBytes, receivedBytes int, err error)
	Close() error
}

// retryBackoff is how long the worker waits before retrying a requeued
// buffer, giving a flapping destination a moment to recover.
const retryBackoff = 500 * time.Millisecond

// Instance is one configured sink: its formatter, its ring of send
// buffers, its sender, and its scheduling state.
type Instance struct {
	Name             string
	UpdateEvery      time.Duration
	BufferOnFailures int

	meta   formatter.BatchMeta
	fmtr   formatter.Set
	ring   *buffer.Ring
	sender Sender
	stats  *telemetry.Stats

	hostsPattern  match.Pattern
	chartsPattern match.Pattern

	mu       sync.Mutex
	lastTick time.Time
}

// New constructs an Instance. ringDepth and bufferOnFailures are used as
// given (the ring clamps a depth below 1 to 1); stats must be non-nil
// (use &telemetry.Stats{}). hostsPattern and chartsPattern are
// simple patterns (§3, §4.3, §6); an empty string matches everything.
func New(name string, meta formatter.BatchMeta, f formatter.Set, sender Sender, ringDepth, bufferOnFailures int, updateEvery time.Duration, stats *telemetry.Stats, hostsPattern, chartsPattern string) *Instance {
	return &Instance{
		Name:             name,
		UpdateEvery:      updateEvery,
		BufferOnFailures: bufferOnFailures,
		meta:             meta,
		fmtr:             f,
		ring:             buffer.NewRing(ringDepth),
		sender:           sender,
		stats:            stats,
		hostsPattern:     match.Compile(hostsPattern),
		chartsPattern:    match.Compile(chartsPattern),
	}
}

// AcceptsHost implements pipeline.Target.
func (ins *Instance) AcceptsHost(hostname string) bool { return ins.hostsPattern.Match(hostname) }

// AcceptsChart implements pipeline.Target.
func (ins *Instance) AcceptsChart(chartID string) bool { return ins.chartsPattern.Match(chartID) }

// Meta implements pipeline.Target.
func (ins *Instance) Meta() formatter.BatchMeta { return ins.meta }

// Formatter implements pipeline.Target.
func (ins *Instance) Formatter() formatter.Set { return ins.fmtr }

// Stage implements pipeline.Target.
func (ins *Instance) Stage() io.Writer {
	return ins.ring.Stage()
}

// Push implements pipeline.Target: it closes out the staging buffer,
// records what was buffered, and hands it to the ring.
func (ins *Instance) Push(createdAt time.Time) {
	s := ins.ring.Stage()
	metrics, bytes := s.Metrics, s.Len()
	ins.ring.Push(createdAt)
	if metrics > 0 {
		ins.stats.AddBuffered(metrics, bytes)
	}
}

// Window implements pipeline.Target, deciding whether this instance is
// due at now and, if so, which interval to reduce over (§4.3, §4.9).
func (ins *Instance) Window(now time.Time) (model.Window, bool) {
	ins.mu.Lock()
	defer ins.mu.Unlock()

	ue := ins.UpdateEvery
	if ue <= 0 {
		ue = time.Second
	}
	if ins.lastTick.IsZero() {
		ins.lastTick = now.Add(-ue)
	}
	if now.Before(ins.lastTick.Add(ue)) {
		return model.Window{}, false
	}
	w := model.Window{After: ins.lastTick, Before: now}
	ins.lastTick = now
	return w, true
}

// DueAt reports whether an instance last ticked at last is due at now,
// given its update interval — exposed standalone for tests.
func DueAt(last, now time.Time, updateEvery time.Duration) bool {
	if last.IsZero() {
		return true
	}
	return !now.Before(last.Add(updateEvery))
}

// Stats returns the instance's self-telemetry counters.
func (ins *Instance) Stats() *telemetry.Stats { return ins.stats }

// Run drains the ring toward the sender until ctx is canceled or the ring
// is closed and drained. It is meant to run in its own goroutine, one per
// instance, the way the teacher runs one goroutine per registered probe.
func (ins *Instance) Run(ctx context.Context) {
	for {
		s, err := ins.ring.Pop(ctx)
		if err != nil {
			return
		}
		if s == nil {
			return
		}

		sent, recv, err := ins.sender.Send(ctx, s.Bytes())
		if err != nil {
			ins.stats.AddTransmitFailure()
			if ins.ring.Requeue(ins.BufferOnFailures) {
				ins.stats.AddLost(s.Metrics, s.Len())
				ins.ring.Advance()
				continue
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryBackoff):
			}
			continue
		}

		ins.stats.AddTransmitSuccess()
		ins.stats.AddSent(s.Metrics, sent)
		ins.stats.AddReceived(recv)
		ins.ring.Advance()
	}
}

// Close releases the sender and closes the ring, unblocking Run.
func (ins *Instance) Close() error {
	ins.ring.Close()
	return ins.sender.Close()
}
