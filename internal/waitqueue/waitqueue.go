// Package waitqueue implements the wakeup backbone shared by every blocking
// primitive in syncx, timerwheel, and cancelctx.
//
// Grounded on asco's core::wait_queue (wait_queue.h/.cpp): Wait either
// consumes a notification that arrived before anyone was waiting for it, or
// parks the caller; Notify wakes parked waiters FIFO and banks any it
// couldn't deliver; InterruptWait lets a caller abandon a parked wait, used
// by timeouts and cancellation. asco parks by suspending the calling task on
// its worker; a goroutine has no equivalent handle to suspend, so waiters
// here park on a channel instead, in the style of nsync's cv.go condition
// variable (see other_examples' nsync-cv.go.go) adapted to Go's scheduler.
package waitqueue

import (
	"container/list"
	"sync"
)

// WaitQueue is a FIFO of parked waiters plus a count of notifications that
// had nobody to receive them. The zero value is ready to use.
type WaitQueue struct {
	mu                       sync.Mutex
	waiters                  list.List
	untriggeredNotifications int
}

type waiter struct {
	ch chan struct{}
}

// Ticket identifies a parked Wait call so it can be abandoned before it is
// notified.
type Ticket struct {
	el *list.Element
}

// New returns an empty wait queue.
func New() *WaitQueue {
	return &WaitQueue{}
}

// Wait either consumes a banked notification and returns immediately (nil
// channel, nil ticket), or parks the caller and returns a channel that
// closes on wakeup along with a ticket for InterruptWait.
func (q *WaitQueue) Wait() (<-chan struct{}, *Ticket) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.untriggeredNotifications > 0 {
		q.untriggeredNotifications--
		return nil, nil
	}

	w := &waiter{ch: make(chan struct{})}
	el := q.waiters.PushBack(w)
	return w.ch, &Ticket{el: el}
}

// InterruptWait removes a still-parked ticket from the queue. It is a safe
// no-op if the ticket was already notified (and so already removed) or is
// nil; callers still need to drain the wait channel in that case since the
// notification already happened.
func (q *WaitQueue) InterruptWait(t *Ticket) {
	if t == nil || t.el == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.waiters.Remove(t.el)
}

// Notify wakes up to n parked waiters, oldest first. Any shortfall is banked
// for future Wait calls to consume without parking when recordUntriggered is
// true; otherwise the shortfall is simply discarded, matching asco's
// record_untriggered=false callers that only want to wake whoever happens to
// already be waiting.
func (q *WaitQueue) Notify(n int, recordUntriggered bool) {
	q.mu.Lock()
	var toWake []*waiter
	for n > 0 {
		front := q.waiters.Front()
		if front == nil {
			break
		}
		q.waiters.Remove(front)
		toWake = append(toWake, front.Value.(*waiter))
		n--
	}
	if recordUntriggered && n > 0 {
		q.untriggeredNotifications += n
	}
	q.mu.Unlock()

	for _, w := range toWake {
		close(w.ch)
	}
}

// NotifyAll wakes every currently parked waiter. There is never a shortfall
// to bank since every waiter is drained.
func (q *WaitQueue) NotifyAll() {
	q.mu.Lock()
	var toWake []*waiter
	for {
		front := q.waiters.Front()
		if front == nil {
			break
		}
		q.waiters.Remove(front)
		toWake = append(toWake, front.Value.(*waiter))
	}
	q.mu.Unlock()

	for _, w := range toWake {
		close(w.ch)
	}
}

// Len reports the number of currently parked waiters. Diagnostic use only;
// callers must not make correctness decisions from a racy count.
func (q *WaitQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.waiters.Len()
}

// Pending reports the number of banked notifications awaiting a Wait.
func (q *WaitQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.untriggeredNotifications
}
