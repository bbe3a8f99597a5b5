package syncx

import (
	"context"

	"github.com/taskloom/taskloom/internal/waitqueue"
)

// Notify is a thin wrapper over the wait queue that, unlike Semaphore, never
// banks an untriggered notification: signaling with nobody waiting is simply
// lost, per spec.md §4.7.
type Notify struct {
	wq *waitqueue.WaitQueue
}

// NewNotify returns a Notify with no pending signal.
func NewNotify() *Notify {
	return &Notify{wq: waitqueue.New()}
}

// Wait blocks until Signal or Broadcast wakes it, or ctx is done.
func (n *Notify) Wait(ctx context.Context) error {
	ch, ticket := n.wq.Wait()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		n.wq.InterruptWait(ticket)
		select {
		case <-ch:
			return nil
		default:
			return ctx.Err()
		}
	}
}

// Signal wakes at most one waiter. A no-op if nobody is waiting.
func (n *Notify) Signal() {
	n.wq.Notify(1, false)
}

// Broadcast wakes every currently waiting caller. A no-op if nobody is
// waiting.
func (n *Notify) Broadcast() {
	n.wq.NotifyAll()
}
