package core

// run_limiter.go caps the number of pipeline runs executing at once.
//
// Each run holds a full combined table in memory, so the server admits at
// most maxConcurrent runs. When all slots are taken, new runs wait up to
// maxWait before failing with ErrTooManyRuns. WaitForDrain blocks until every
// active run has finished, for graceful shutdown.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyRuns is returned when all run slots are occupied and the wait
// timeout expires. Clients should retry after a short delay.
var ErrTooManyRuns = errors.New("too many concurrent runs, please try again later")

// DefaultMaxConcurrentRuns is the default limit for parallel runs.
const DefaultMaxConcurrentRuns = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// RunLimiter controls concurrent pipeline runs with a weighted semaphore.
type RunLimiter struct {
	sem     *semaphore.Weighted
	max     int
	maxWait time.Duration
	active  atomic.Int64
}

// NewRunLimiter creates a limiter that allows at most maxConcurrent runs.
// Runs that cannot acquire a slot within maxWait receive ErrTooManyRuns.
func NewRunLimiter(maxConcurrent int, maxWait time.Duration) *RunLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRuns
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &RunLimiter{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		max:     maxConcurrent,
		maxWait: maxWait,
	}
}

// Acquire waits for a run slot.
// Returns nil on success, ErrTooManyRuns if the wait times out, or the
// context's error if ctx ends first.
// The caller MUST call Release() when the run completes (use defer).
func (l *RunLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyRuns
	}
	l.active.Add(1)
	return nil
}

// TryAcquire takes a slot without blocking and reports whether it did.
func (l *RunLimiter) TryAcquire() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.active.Add(1)
	return true
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *RunLimiter) Release() {
	l.active.Add(-1)
	l.sem.Release(1)
}

// ActiveCount returns the number of runs holding a slot.
func (l *RunLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// MaxConcurrent returns the configured limit.
func (l *RunLimiter) MaxConcurrent() int {
	return l.max
}

// WaitForDrain blocks until all active runs complete or ctx is cancelled.
func (l *RunLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunLimiterStatus is a snapshot of the limiter's state.
type RunLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *RunLimiter) Status() RunLimiterStatus {
	active := l.ActiveCount()
	return RunLimiterStatus{
		Active:        active,
		Available:     l.max - active,
		MaxConcurrent: l.max,
	}
}
