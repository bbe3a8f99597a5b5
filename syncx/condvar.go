package syncx

import (
	"context"
	"sync"

	"github.com/taskloom/taskloom/internal/waitqueue"
)

// Condvar is a Mesa-style condition variable: Wait re-checks its predicate
// under the caller's lock at each wake, never trusting a wakeup alone to mean
// the predicate is true. Grounded on nsync's cv.go (other_examples'
// nsync-cv.go.go), whose doc comment is explicit that Mesa-style waits
// require exactly this loop-and-recheck discipline.
type Condvar struct {
	wq *waitqueue.WaitQueue
}

// NewCondvar returns an empty condition variable.
func NewCondvar() *Condvar {
	return &Condvar{wq: waitqueue.New()}
}

// Wait releases locker, blocks until predicate is true, and reacquires
// locker before returning — even when woken spuriously or by an unrelated
// Broadcast, since predicate is re-checked on every wake. If ctx is done
// before predicate becomes true, Wait reacquires locker and returns
// ctx.Err().
func (c *Condvar) Wait(ctx context.Context, locker sync.Locker, predicate func() bool) error {
	for !predicate() {
		ch, ticket := c.wq.Wait()
		locker.Unlock()

		var err error
		if ch != nil {
			select {
			case <-ch:
			case <-ctx.Done():
				c.wq.InterruptWait(ticket)
				select {
				case <-ch:
				default:
					err = ctx.Err()
				}
			}
		}

		locker.Lock()
		if err != nil {
			return err
		}
	}
	return nil
}

// Signal wakes at least one waiter enqueued on c.
func (c *Condvar) Signal() {
	c.wq.Notify(1, false)
}

// Broadcast wakes every waiter enqueued on c.
func (c *Condvar) Broadcast() {
	c.wq.NotifyAll()
}
