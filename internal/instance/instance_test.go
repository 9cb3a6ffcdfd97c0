package instance

import (
	"testing"
	"time"
)

func TestDueAtFiresOnFirstTickAlways(t *testing.T) {
	if !DueAt(time.Time{}, time.Now(), time.Second) {
		t.Fatalf("expected a never-ticked instance to be due immediately")
	}
}

func TestDueAtRespectsInterval(t *testing.T) {
	last := time.Unix(1000, 0)
	ue := 10 * time.Second

	if DueAt(last, last.Add(5*time.Second), ue) {
		t.Fatalf("expected not due before the interval elapses")
	}
	if !DueAt(last, last.Add(10*time.Second), ue) {
		t.Fatalf("expected due once the interval elapses")
	}
	if !DueAt(last, last.Add(11*time.Second), ue) {
		t.Fatalf("expected due after the interval elapses")
	}
}
