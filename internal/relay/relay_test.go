package relay

import (
	"sync"
	"testing"
)

func TestLatestValueWins(t *testing.T) {
	r := New()
	if r.Timestamp() != 0 {
		t.Fatalf("fresh relay timestamp: got %d, want 0", r.Timestamp())
	}

	r.SetTimestamp(17)
	r.SetTimestamp(99)
	if got := r.Timestamp(); got != 99 {
		t.Fatalf("expected overwrite, got %d", got)
	}
	if got := r.Publishes(); got != 2 {
		t.Fatalf("publish count: got %d, want 2", got)
	}
}

func TestShutdownIdempotent(t *testing.T) {
	r := New()
	if !r.Running() {
		t.Fatalf("fresh relay should be running")
	}

	r.RequestShutdown()
	if r.Running() {
		t.Fatalf("expected not running after shutdown")
	}
	r.RequestShutdown()
	if r.Running() {
		t.Fatalf("expected shutdown to stay latched")
	}
}

func TestConcurrentPublishAndRead(t *testing.T) {
	r := New()
	const n = 10000

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := uint64(1); i <= n; i++ {
			r.SetTimestamp(i)
		}
		r.RequestShutdown()
	}()

	var last uint64
	go func() {
		defer wg.Done()
		for r.Running() {
			v := r.Timestamp()
			if v < last {
				t.Errorf("timestamp went backwards: %d after %d", v, last)
				return
			}
			last = v
		}
	}()
	wg.Wait()

	if got := r.Timestamp(); got != n {
		t.Fatalf("final timestamp: got %d, want %d", got, n)
	}
	if got := r.Publishes(); got != n {
		t.Fatalf("publish count: got %d, want %d", got, n)
	}
}
