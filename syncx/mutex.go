package syncx

import (
	"context"
	"sync/atomic"

	"github.com/taskloom/taskloom/internal/waitqueue"
)

// Mutex is a single-owner lock built from a boolean state atomic and a wait
// queue, matching spec.md §4.7's "single-owner; uses a boolean state".
// There is no destructor-released guard — Go has none — so callers use the
// ordinary defer m.Unlock() idiom instead.
type Mutex struct {
	locked atomic.Bool
	wq     *waitqueue.WaitQueue
}

// NewMutex returns an unlocked Mutex.
func NewMutex() *Mutex {
	return &Mutex{wq: waitqueue.New()}
}

// TryLock acquires the mutex without blocking, reporting success.
func (m *Mutex) TryLock() bool {
	return m.locked.CompareAndSwap(false, true)
}

// Lock blocks until the mutex is acquired. Satisfies sync.Locker so a Mutex
// can be passed directly to Condvar.Wait.
func (m *Mutex) Lock() {
	_ = m.LockContext(context.Background())
}

// LockContext blocks until the mutex is acquired or ctx is done.
func (m *Mutex) LockContext(ctx context.Context) error {
	for {
		if m.TryLock() {
			return nil
		}
		ch, ticket := m.wq.Wait()
		if ch == nil {
			continue
		}
		select {
		case <-ch:
			continue
		case <-ctx.Done():
			m.wq.InterruptWait(ticket)
			select {
			case <-ch:
			default:
				return ctx.Err()
			}
		}
	}
}

// Unlock releases the mutex and wakes one waiter, if any.
func (m *Mutex) Unlock() {
	m.locked.Store(false)
	m.wq.Notify(1, true)
}
