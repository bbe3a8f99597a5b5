// Package cancelctx implements the runtime's cancellation context tree.
//
// Grounded on spec.md §4.9: "A context owns a cancellation flag, a notifier
// (wait-queue), a protected callback, and optional timeout wiring. cancel()
// sets the flag, wakes all waiters, invokes the callback (if any)." The
// "protected callback" becomes an ordered set of callbacks here, registered
// and revoked the way zoobzio-pipz's connectors register hookz handlers
// (hooks.Hook(key, handler), discarding the returned id the way every
// On<Event> method in timeout.go/backoff.go/fallback.go does) — hookz exists
// in the pack specifically to give ordered, revocable event callbacks, which
// is exactly this primitive's job.
package cancelctx

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taskloom/taskloom/internal/waitqueue"
	"github.com/taskloom/taskloom/timerwheel"
	"github.com/zoobzio/hookz"
)

// cancelEvent carries the reason a Context was cancelled through hookz.
type cancelEvent struct {
	reason error
}

const cancelEventKey = hookz.Key("cancelctx.cancel")

// CallbackHandle is returned by OnCancel. Unregister stops the callback from
// running if cancellation hasn't happened yet; it is the RAII-release
// asco's header expects from callback registration, made explicit since Go
// has no destructors.
type CallbackHandle struct {
	unregister func()
	once       sync.Once
}

// Unregister revokes the callback. Safe to call more than once, and safe to
// call after the callback has already fired.
func (h *CallbackHandle) Unregister() {
	h.once.Do(func() {
		if h.unregister != nil {
			h.unregister()
		}
	})
}

// Context is a cancellation signal that can be waited on, queried, and
// chained into a tree via WithCancel/WithTimeout on an existing Context.
type Context struct {
	cancelled atomic.Bool

	mu     sync.Mutex
	reason error

	wq    *waitqueue.WaitQueue
	hooks *hookz.Hooks[cancelEvent]
}

func newContext() *Context {
	return &Context{wq: waitqueue.New(), hooks: hookz.New[cancelEvent]()}
}

// Background returns a Context that is never cancelled on its own; it is the
// root of a cancellation tree when no existing Context applies.
func Background() *Context {
	return newContext()
}

// WithCancel derives a manual child context from c (or from a fresh root if
// c is nil). Cancelling the parent cancels the child; cancelling the child
// does not affect the parent. The returned func cancels the child with the
// given reason (nil becomes ErrCancelled).
func WithCancel(c *Context) (*Context, func(error)) {
	child := newContext()
	if c != nil {
		handle := c.OnCancel(func(reason error) { child.cancel(reason) })
		return child, func(reason error) {
			handle.Unregister()
			child.cancel(reason)
		}
	}
	return child, child.cancel
}

// WithTimeout derives a child context from c that cancels itself with
// ErrDeadlineExceeded after timeout, measured against daemon's clock — the
// "hidden task that sleeps d then cancels" from spec.md §4.9, realized as a
// timer registration instead of a spawned task since no task body is needed.
func WithTimeout(c *Context, daemon *timerwheel.Daemon, timeout time.Duration) (*Context, func(error)) {
	child, cancel := WithCancel(c)
	id := daemon.Schedule(daemon.Now().Add(timeout), func() {
		cancel(ErrDeadlineExceeded)
	})
	return child, func(reason error) {
		daemon.Cancel(id)
		cancel(reason)
	}
}

// cancel marks c cancelled with reason (defaulting to ErrCancelled), wakes
// every waiter, and runs every registered callback. Only the first call has
// an effect.
func (c *Context) cancel(reason error) {
	if !c.cancelled.CompareAndSwap(false, true) {
		return
	}
	if reason == nil {
		reason = ErrCancelled
	}

	c.mu.Lock()
	c.reason = reason
	c.mu.Unlock()

	c.wq.NotifyAll()
	_ = c.hooks.Emit(context.Background(), cancelEventKey, cancelEvent{reason: reason})
	c.hooks.Close()
}

// Cancelled reports whether c has been cancelled.
func (c *Context) Cancelled() bool {
	return c.cancelled.Load()
}

// Err returns the cancellation reason, or nil if c is not yet cancelled.
func (c *Context) Err() error {
	if !c.cancelled.Load() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Wait blocks until c is cancelled or ctx is done, matching spec.md's
// "co_await ctx yields if and only if the flag is not yet set".
func (c *Context) Wait(ctx context.Context) error {
	if c.cancelled.Load() {
		return c.Err()
	}
	ch, ticket := c.wq.Wait()
	if ch == nil {
		return c.Err()
	}
	if c.cancelled.Load() {
		c.wq.InterruptWait(ticket)
		return c.Err()
	}
	select {
	case <-ch:
		return c.Err()
	case <-ctx.Done():
		c.wq.InterruptWait(ticket)
		return ctx.Err()
	}
}

// OnCancel registers handler to run (with the cancellation reason) once c is
// cancelled, or immediately if c is already cancelled. The returned handle's
// Unregister prevents the handler from running if it hasn't already.
func (c *Context) OnCancel(handler func(reason error)) *CallbackHandle {
	handle := &CallbackHandle{}

	if c.cancelled.Load() {
		handler(c.Err())
		return handle
	}

	var active atomic.Bool
	active.Store(true)
	handle.unregister = func() { active.Store(false) }

	_, err := c.hooks.Hook(cancelEventKey, func(_ context.Context, ev cancelEvent) error {
		if active.Load() {
			handler(ev.reason)
		}
		return nil
	})
	if err != nil {
		// c was cancelled (and its hooks closed) between the check above and
		// the registration attempt; run the handler directly instead.
		handler(c.Err())
	}
	return handle
}
