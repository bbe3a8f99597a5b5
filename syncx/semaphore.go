// Package syncx implements the runtime's sync primitives — Semaphore, Mutex,
// RWLock, Notify, Condvar, and Barrier — all layered on internal/waitqueue
// instead of hand-rolled futex/park code, the way asco's
// concurrency/concurrency.h layers its primitives on core::wait_queue and
// nsync's cv.go/mu.go layer theirs on a shared waiter list.
package syncx

import (
	"context"
	"sync/atomic"

	"github.com/taskloom/taskloom/internal/waitqueue"
)

// Semaphore is a bounded counting semaphore. Acquire decrements the count or
// parks; Release increments it (capped at the configured max) and wakes that
// many waiters.
type Semaphore struct {
	state atomic.Int64
	max   int64
	wq    *waitqueue.WaitQueue
}

// NewSemaphore returns a semaphore with an initial and maximum count of n.
func NewSemaphore(n int64) *Semaphore {
	return NewSemaphoreN(n, n)
}

// NewSemaphoreN returns a semaphore that starts with initial permits
// available, capped at max. Used where a caller wants a semaphore that
// begins empty (initial 0) without also capping how many signals it can
// bank — a plain NewSemaphore(0) would tie max to 0 too, making every
// Release a no-op.
func NewSemaphoreN(initial, max int64) *Semaphore {
	s := &Semaphore{max: max, wq: waitqueue.New()}
	s.state.Store(initial)
	return s
}

// TryAcquire takes one permit without blocking, reporting whether one was
// available.
func (s *Semaphore) TryAcquire() bool {
	for {
		cur := s.state.Load()
		if cur <= 0 {
			return false
		}
		if s.state.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}

// Acquire blocks until a permit is available.
func (s *Semaphore) Acquire() {
	_ = s.AcquireContext(context.Background())
}

// AcquireContext blocks until a permit is available or ctx is done, in which
// case it returns ctx.Err(). This implements acquire_for/acquire_until: wrap
// ctx in context.WithTimeout or context.WithDeadline at the call site.
func (s *Semaphore) AcquireContext(ctx context.Context) error {
	for {
		if s.TryAcquire() {
			return nil
		}
		ch, ticket := s.wq.Wait()
		if ch == nil {
			// A banked release notification was consumed; the permit it
			// announced is already reflected in state, so retry.
			continue
		}
		select {
		case <-ch:
			continue
		case <-ctx.Done():
			s.wq.InterruptWait(ticket)
			select {
			case <-ch:
				// Raced with a release that already woke us; the permit is
				// ours, so loop back and claim it rather than report error.
			default:
				return ctx.Err()
			}
		}
	}
}

// Release returns up to k permits, saturating at the configured max, and
// wakes that many waiters. It returns the number of permits actually
// credited, which may be less than k if the semaphore was near saturation.
func (s *Semaphore) Release(k int64) int64 {
	for {
		cur := s.state.Load()
		inc := k
		if cur+inc > s.max {
			inc = s.max - cur
		}
		if inc <= 0 {
			return 0
		}
		if s.state.CompareAndSwap(cur, cur+inc) {
			s.wq.Notify(int(inc), true)
			return inc
		}
	}
}
