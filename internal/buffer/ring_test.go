package buffer

import (
	"context"
	"testing"
	"time"
)

func TestRingPushPopFIFO(t *testing.T) {
	r := NewRing(4)

	s := r.Stage()
	s.Write([]byte("a"))
	s.IncMetrics()
	r.Push(time.Now())

	s2 := r.Stage()
	s2.Write([]byte("b"))
	s2.IncMetrics()
	r.Push(time.Now())

	ctx := context.Background()
	got, err := r.Pop(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got.Bytes()) != "a" {
		t.Fatalf("expected FIFO order, got %q", got.Bytes())
	}
	r.Advance()

	got2, err := r.Pop(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got2.Bytes()) != "b" {
		t.Fatalf("got %q want b", got2.Bytes())
	}
	r.Advance()
}

func TestRingPushEmptyStagingIsNoop(t *testing.T) {
	r := NewRing(2)
	r.Stage() // never written to
	r.Push(time.Now())
	if r.Len() != 0 {
		t.Fatalf("expected empty staging buffer to be dropped, got len=%d", r.Len())
	}
}

func TestRingEvictsOldestWhenFull(t *testing.T) {
	r := NewRing(2)
	for _, payload := range []string{"x", "y", "z"} {
		s := r.Stage()
		s.Write([]byte(payload))
		s.IncMetrics()
		r.Push(time.Now())
	}
	if r.Len() != 2 {
		t.Fatalf("expected ring capped at depth 2, got %d", r.Len())
	}
	if r.DroppedBuffers != 1 {
		t.Fatalf("expected 1 dropped buffer, got %d", r.DroppedBuffers)
	}
	got, _ := r.Pop(context.Background())
	if string(got.Bytes()) != "y" {
		t.Fatalf("expected oldest surviving buffer 'y', got %q", got.Bytes())
	}
}

func TestRingRequeueDropsAfterMaxFailures(t *testing.T) {
	r := NewRing(2)
	s := r.Stage()
	s.Write([]byte("payload"))
	r.Push(time.Now())

	_, _ = r.Pop(context.Background())
	if dropped := r.Requeue(2); dropped {
		t.Fatalf("did not expect drop on first failure")
	}
	_, _ = r.Pop(context.Background())
	if dropped := r.Requeue(2); dropped {
		t.Fatalf("did not expect drop on second failure")
	}
	_, _ = r.Pop(context.Background())
	if dropped := r.Requeue(2); !dropped {
		t.Fatalf("expected drop on third failure with buffer_on_failures=2")
	}
}

func TestRingPopRespectsContextCancel(t *testing.T) {
	r := NewRing(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := r.Pop(ctx)
	if err == nil {
		t.Fatalf("expected context deadline error on empty ring")
	}
}

func TestRingCloseEvictsRemaining(t *testing.T) {
	r := NewRing(3)
	s := r.Stage()
	s.Write([]byte("leftover"))
	s.IncMetrics()
	r.Push(time.Now())

	r.Close()
	if r.DroppedBuffers != 1 {
		t.Fatalf("expected close to count the remaining buffer as dropped")
	}
	got, err := r.Pop(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil after close drains the ring")
	}
}
