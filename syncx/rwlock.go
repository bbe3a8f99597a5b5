package syncx

import (
	"context"
	"sync/atomic"

	"github.com/taskloom/taskloom/internal/waitqueue"
)

// Single state word bit layout, per spec.md §4.7: a high bit for "writer
// holds", the next bit down for "writer pending" (announced to bias against
// reader starvation of writers), and the remaining bits as a reader count.
const (
	rwWriterHeld    = uint64(1) << 63
	rwWriterPending = uint64(1) << 62
	rwReaderMask    = rwWriterPending - 1
)

// RWLock never admits a writer while any reader holds the lock, and never
// admits a reader while a writer holds or is pending the lock.
type RWLock struct {
	state atomic.Uint64
	wq    *waitqueue.WaitQueue
}

// NewRWLock returns an unlocked RWLock.
func NewRWLock() *RWLock {
	return &RWLock{wq: waitqueue.New()}
}

// TryRLock takes a read lock without blocking.
func (l *RWLock) TryRLock() bool {
	for {
		cur := l.state.Load()
		if cur&(rwWriterHeld|rwWriterPending) != 0 {
			return false
		}
		if l.state.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// RLock blocks until a read lock is acquired.
func (l *RWLock) RLock() {
	_ = l.RLockContext(context.Background())
}

// RLockContext blocks until a read lock is acquired or ctx is done.
func (l *RWLock) RLockContext(ctx context.Context) error {
	for {
		if l.TryRLock() {
			return nil
		}
		if err := l.park(ctx); err != nil {
			return err
		}
	}
}

// RUnlock releases a read lock.
func (l *RWLock) RUnlock() {
	l.state.Add(^uint64(0)) // -1
	l.wq.NotifyAll()
}

// TryLock takes a write lock without blocking. Unlike Lock, it never
// announces writer-pending, since it must not block if it can't proceed
// immediately.
func (l *RWLock) TryLock() bool {
	cur := l.state.Load()
	if cur != 0 {
		return false
	}
	return l.state.CompareAndSwap(0, rwWriterHeld)
}

// Lock blocks until a write lock is acquired.
func (l *RWLock) Lock() {
	_ = l.LockContext(context.Background())
}

// LockContext blocks until a write lock is acquired or ctx is done.
func (l *RWLock) LockContext(ctx context.Context) error {
	// Announce writer-pending so new readers stop admitting.
	for {
		cur := l.state.Load()
		if cur&rwWriterPending != 0 {
			break
		}
		if l.state.CompareAndSwap(cur, cur|rwWriterPending) {
			break
		}
	}

	for {
		cur := l.state.Load()
		if cur&rwReaderMask == 0 && cur&rwWriterHeld == 0 {
			if l.state.CompareAndSwap(cur, (cur&^rwWriterPending)|rwWriterHeld) {
				return nil
			}
			continue
		}
		if err := l.park(ctx); err != nil {
			l.state.And(^rwWriterPending)
			l.wq.NotifyAll()
			return err
		}
	}
}

// Unlock releases a write lock and wakes every waiter, reader or writer,
// to re-check the predicate Mesa-style.
func (l *RWLock) Unlock() {
	l.state.And(^rwWriterHeld)
	l.wq.NotifyAll()
}

func (l *RWLock) park(ctx context.Context) error {
	ch, ticket := l.wq.Wait()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		l.wq.InterruptWait(ticket)
		select {
		case <-ch:
			return nil
		default:
			return ctx.Err()
		}
	}
}
