package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRunLimiter_AcquireRelease(t *testing.T) {
	limiter := NewRunLimiter(2, time.Second)
	ctx := context.Background()

	if got := limiter.Status().Available; got != 2 {
		t.Errorf("initial Available = %d, want 2", got)
	}

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}
	if got := limiter.ActiveCount(); got != 2 {
		t.Errorf("after two Acquire, ActiveCount = %d, want 2", got)
	}
	if got := limiter.Status().Available; got != 0 {
		t.Errorf("after two Acquire, Available = %d, want 0", got)
	}

	limiter.Release()
	limiter.Release()

	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("after Release, ActiveCount = %d, want 0", got)
	}
}

func TestRunLimiter_TimesOutWhenFull(t *testing.T) {
	limiter := NewRunLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	err := limiter.Acquire(ctx)
	if !errors.Is(err, ErrTooManyRuns) {
		t.Errorf("expected ErrTooManyRuns, got %v", err)
	}
	if got := MapError(err).Code; got != "RUN002" {
		t.Errorf("MapError code = %s, want RUN002", got)
	}
}

func TestRunLimiter_ContextCancellation(t *testing.T) {
	limiter := NewRunLimiter(1, 5*time.Second)

	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- limiter.Acquire(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Acquire did not return after context cancellation")
	}
}

func TestRunLimiter_TryAcquire(t *testing.T) {
	limiter := NewRunLimiter(1, time.Second)

	if !limiter.TryAcquire() {
		t.Fatal("first TryAcquire should succeed")
	}
	if limiter.TryAcquire() {
		t.Error("second TryAcquire should fail")
		limiter.Release()
	}
	limiter.Release()

	if !limiter.TryAcquire() {
		t.Error("TryAcquire after Release should succeed")
	}
	limiter.Release()
}

func TestRunLimiter_ConcurrentAccess(t *testing.T) {
	const maxConcurrent = 3
	const totalRuns = 10

	limiter := NewRunLimiter(maxConcurrent, time.Second)

	var wg sync.WaitGroup
	var mu sync.Mutex
	maxObserved := 0

	for i := 0; i < totalRuns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer limiter.Release()

			mu.Lock()
			if n := limiter.ActiveCount(); n > maxObserved {
				maxObserved = n
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)
		}()
	}
	wg.Wait()

	if maxObserved > maxConcurrent {
		t.Errorf("exceeded max concurrent: observed %d, max %d", maxObserved, maxConcurrent)
	}
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("final ActiveCount = %d, want 0", got)
	}
}

func TestRunLimiter_WaitForDrain(t *testing.T) {
	limiter := NewRunLimiter(2, time.Second)
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	go func() {
		time.Sleep(30 * time.Millisecond)
		limiter.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := limiter.WaitForDrain(ctx); err != nil {
		t.Errorf("WaitForDrain: %v", err)
	}
}

func TestRunLimiter_Defaults(t *testing.T) {
	limiter := NewRunLimiter(0, 0)
	if got := limiter.MaxConcurrent(); got != DefaultMaxConcurrentRuns {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentRuns)
	}
}
