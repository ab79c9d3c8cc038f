// Package httputil provides shared utilities for the GroomSafe HTTP API,
// currently concurrency limiting for batch assessment requests.
package httputil

import "context"

// Semaphore bounds how many conversations a batch request scores at once.
type Semaphore struct {
	sem chan struct{}
}

// NewSemaphore creates a semaphore with the given capacity. Non-positive
// capacities fall back to the default batch concurrency.
func NewSemaphore(capacity int) *Semaphore {
	if capacity <= 0 {
		capacity = 4
	}
	return &Semaphore{
		sem: make(chan struct{}, capacity),
	}
}

// Acquire blocks until a slot is available or the context is cancelled.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot. Must follow a successful Acquire.
func (s *Semaphore) Release() {
	select {
	case <-s.sem:
	default:
	}
}

// Capacity returns the maximum number of concurrent holders.
func (s *Semaphore) Capacity() int {
	return cap(s.sem)
}

// InUse returns the number of slots currently held.
func (s *Semaphore) InUse() int {
	return len(s.sem)
}
