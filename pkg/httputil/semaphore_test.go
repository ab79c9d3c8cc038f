package httputil

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSemaphore_Acquire(t *testing.T) {
	sem := NewSemaphore(1)

	ctx := context.Background()
	if err := sem.Acquire(ctx); err != nil {
		t.Fatalf("First Acquire failed: %v", err)
	}

	// Second should block until the context times out
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := sem.Acquire(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("Expected DeadlineExceeded, got %v", err)
	}

	sem.Release()
	if err := sem.Acquire(context.Background()); err != nil {
		t.Errorf("Acquire after Release failed: %v", err)
	}
}

func TestSemaphore_BoundsConcurrency(t *testing.T) {
	const capacity = 3
	sem := NewSemaphore(capacity)
	ctx := context.Background()

	var inFlight, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx); err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer sem.Release()

			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()

	if p := peak.Load(); p > capacity {
		t.Errorf("Peak concurrency = %d, want <= %d", p, capacity)
	}
	if sem.InUse() != 0 {
		t.Errorf("InUse = %d after completion, want 0", sem.InUse())
	}
}

func TestNewSemaphore_DefaultCapacity(t *testing.T) {
	// Zero or negative falls back to the batch concurrency default
	if sem := NewSemaphore(0); sem.Capacity() != 4 {
		t.Errorf("Default capacity should be 4, got %d", sem.Capacity())
	}
	if sem := NewSemaphore(-5); sem.Capacity() != 4 {
		t.Errorf("Negative capacity should default to 4, got %d", sem.Capacity())
	}
}
