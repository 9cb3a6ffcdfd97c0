// Package buffer implements the bounded ring of send buffers that gives
// each instance worker its backpressure and retry behavior (§3, §4.4,
// §4.9, §4.10): the formatter stages metrics into one buffer while the
// worker drains the oldest ready buffer toward the sink, and a buffer
// whose send keeps failing is retried from the front of the ring up to
// buffer_on_failures times before being dropped.
package buffer

import (
	"bytes"
	"context"
	"sync"
	"time"
)

// SlotState names where a Send sits in its lifecycle, mirroring the
// teacher's typed-enum-with-String() style (see internal/event.Type).
type SlotState int

const (
	SlotEmpty SlotState = iota
	SlotStaging
	SlotReady
	SlotSending
)

func (s SlotState) String() string {
	switch s {
	case SlotEmpty:
		return "empty"
	case SlotStaging:
		return "staging"
	case SlotReady:
		return "ready"
	case SlotSending:
		return "sending"
	default:
		return "unknown"
	}
}

// Send is one formatted payload plus the bookkeeping the worker needs to
// report what it carries and how many times it has been retried.
type Send struct {
	buf       bytes.Buffer
	Metrics   int
	CreatedAt time.Time
	State     SlotState
	Failures  int
}

// Write implements io.Writer so formatters can stream directly into the
// staging buffer without an intermediate allocation.
func (s *Send) Write(p []byte) (int, error) { return s.buf.Write(p) }

// Bytes returns the accumulated payload.
func (s *Send) Bytes() []byte { return s.buf.Bytes() }

// Len returns the accumulated payload size.
func (s *Send) Len() int { return s.buf.Len() }

// IncMetrics records that one more metric was written into the buffer.
func (s *Send) IncMetrics() { s.Metrics++ }

func (s *Send) reset() {
	s.buf.Reset()
	s.Metrics = 0
	s.CreatedAt = time.Time{}
	s.State = SlotEmpty
	s.Failures = 0
}

// Ring is a bounded FIFO of Send buffers. One staging buffer accumulates
// formatted output for the in-progress tick; Push moves it to the back of
// the ready queue, evicting the oldest ready buffer if the ring is full
// (§3's buffer_on_failures also bounds ring depth). Pop blocks until a
// buffer is ready, the context is canceled, or the ring is closed.
type Ring struct {
	mu      sync.Mutex
	cond    *sync.Cond
	depth   int
	staging *Send
	ready   []*Send
	free    []*Send
	closed  bool

	// DroppedMetrics/DroppedBuffers count buffers evicted because the ring
	// was full or was closed. They are kept on the Ring only; they are not
	// added to telemetry.Stats, whose lost counters cover worker-driven
	// failure drops alone (§4.10).
	DroppedMetrics int64
	DroppedBuffers int64
}

// NewRing returns a ring that holds at most depth buffers at once. depth
// is clamped to at least 1 (constants.MinBufferOnFailures).
func NewRing(depth int) *Ring {
	if depth < 1 {
		depth = 1
	}
	r := &Ring{depth: depth}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Stage returns the in-progress staging buffer, allocating one from the
// free list (or fresh) if none is active.
func (r *Ring) Stage() *Send {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.staging == nil {
		r.staging = r.take()
		r.staging.State = SlotStaging
		r.staging.CreatedAt = time.Time{}
	}
	return r.staging
}

// Push closes out the staging buffer and moves it to the back of the
// ready queue. A nil or empty staging buffer is a no-op: the pipeline
// driver only pushes when a tick produced output (§4.3).
func (r *Ring) Push(createdAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.staging
	if s == nil || s.Len() == 0 {
		if s != nil {
			r.release(s)
			r.staging = nil
		}
		return
	}
	s.State = SlotReady
	s.CreatedAt = createdAt
	r.staging = nil

	if len(r.ready) >= r.depth {
		evicted := r.ready[0]
		r.ready = r.ready[1:]
		r.DroppedMetrics += int64(evicted.Metrics)
		r.DroppedBuffers++
		r.release(evicted)
	}
	r.ready = append(r.ready, s)
	r.cond.Broadcast()
}

// Pop waits for the oldest ready buffer and returns it without removing
// it from the ring; the caller must call Advance on success or Requeue on
// a retryable failure. Returns nil, ctx.Err() if ctx is done first, and
// nil, nil if the ring is closed with nothing left to drain.
func (r *Ring) Pop(ctx context.Context) (*Send, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stop := context.AfterFunc(ctx, r.cond.Broadcast)
	defer stop()

	for len(r.ready) == 0 && !r.closed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.cond.Wait()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(r.ready) == 0 {
		return nil, nil
	}
	s := r.ready[0]
	s.State = SlotSending
	return s, nil
}

// Advance removes the front buffer after a successful send (or a final,
// non-retryable failure) and returns it to the free list.
func (r *Ring) Advance() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ready) == 0 {
		return
	}
	s := r.ready[0]
	r.ready = r.ready[1:]
	r.release(s)
}

// Requeue puts the front buffer back at the head of the ready queue after
// a failed send, incrementing its failure count. It reports whether the
// buffer should be dropped because it has now failed more than
// maxFailures (buffer_on_failures) times (§4.10: buffer_on_failures=2
// tolerates a 1st and 2nd failure and drops on the 3rd); the caller is
// responsible for calling Advance in that case once it has accounted for
// the loss.
func (r *Ring) Requeue(maxFailures int) (dropped bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ready) == 0 {
		return false
	}
	s := r.ready[0]
	s.Failures++
	s.State = SlotReady
	if maxFailures > 0 && s.Failures > maxFailures {
		return true
	}
	return false
}

// Len reports how many buffers are currently ready to send.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ready)
}

// Close unblocks any pending Pop and evicts buffers still queued. This is
// a deliberate second line of defense beyond the worker's own
// failure-count eviction (§4.10): on shutdown there is no further chance
// for a retry to succeed, so holding undeliverable buffers serves no
// purpose and only holds memory.
func (r *Ring) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for _, s := range r.ready {
		r.DroppedMetrics += int64(s.Metrics)
		r.DroppedBuffers++
	}
	r.ready = nil
	r.cond.Broadcast()
}

func (r *Ring) take() *Send {
	if n := len(r.free); n > 0 {
		s := r.free[n-1]
		r.free = r.free[:n-1]
		return s
	}
	return &Send{}
}

func (r *Ring) release(s *Send) {
	s.reset()
	if len(r.free) < r.depth {
		r.free = append(r.free, s)
	}
}
