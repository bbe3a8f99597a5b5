package taskloom

import (
	"context"

	"github.com/taskloom/taskloom/internal/queue"
	"github.com/taskloom/taskloom/syncx"
)

// Channel is an MPMC channel of values of type T, built on the same
// lock-free queue used for dispatch. A syncx.Semaphore stands in for the
// `unlimited_semaphore` asco's sender/receiver share (_examples/original_source/
// asco/sync/channel.h): every successful Send releases one permit, and Recv
// on an empty-but-open channel parks on the semaphore instead of polling —
// the same suspend-until-woken shape Worker's idle wait uses in worker.go.
// Per spec.md §4's channel primitive: "create an MPMC channel, receiving a
// sender and a receiver; sender send is async and returns a rejected value
// on a closed channel; receiver recv is async and returns an optional value
// (none on closed-and-drained)".
type Channel[T any] struct {
	q     *queue.Queue[T]
	avail *syncx.Semaphore
}

// chanAvailMax bounds how many permits a channel's wait semaphore can bank,
// sized like Worker's idle semaphore so a burst of sends, or Close's wake-
// everyone broadcast, never saturates it mid-stream.
const chanAvailMax = 1 << 30

// NewChannel creates an open, unbounded MPMC channel.
func NewChannel[T any]() *Channel[T] {
	return &Channel[T]{q: queue.New[T](), avail: syncx.NewSemaphoreN(0, chanAvailMax)}
}

// Sender returns a handle for sending on the channel. Safe to call more than
// once and to share the result across goroutines.
func (c *Channel[T]) Sender() *Sender[T] { return &Sender[T]{c: c} }

// Receiver returns a handle for receiving from the channel. Safe to call
// more than once and to share the result across goroutines.
func (c *Channel[T]) Receiver() *Receiver[T] { return &Receiver[T]{c: c} }

// Close stops accepting new sends and wakes every receiver currently parked
// in Recv so each can observe the closed-and-drained state directly, rather
// than waiting for a Send that will never come.
func (c *Channel[T]) Close() {
	c.q.StopSender()
	c.avail.Release(chanAvailMax)
}

// Sender is the send half of a Channel.
type Sender[T any] struct{ c *Channel[T] }

// Send pushes v onto the channel and re-activates one parked receiver. If
// the channel is already closed, it returns v back to the caller (the
// "rejected value") alongside ErrChannelClosed.
func (s *Sender[T]) Send(v T) (T, error) {
	out, ok := s.c.q.Push(v)
	if !ok {
		return out, ErrChannelClosed
	}
	s.c.avail.Release(1)
	return out, nil
}

// TrySend behaves exactly like Send: the underlying queue.Push never
// blocks, so there is no separate non-blocking path to add. Provided for
// symmetry with Receiver.TryRecv.
func (s *Sender[T]) TrySend(v T) (T, error) {
	return s.Send(v)
}

// Receiver is the receive half of a Channel.
type Receiver[T any] struct{ c *Channel[T] }

// RecvStatus discriminates TryRecv's three outcomes, matching spec.md §8
// scenario 1's "try_recv... discriminating closed vs. non_object in the
// non-blocking variant".
type RecvStatus int

const (
	// RecvDelivered means TryRecv returned a real value.
	RecvDelivered RecvStatus = iota
	// RecvEmpty is spec.md's non_object: nothing available right now, but
	// the channel is still open and a later Send may deliver one.
	RecvEmpty
	// RecvClosed means the channel is closed and fully drained.
	RecvClosed
)

// TryRecv reports whether a value is immediately available without
// blocking or observing ctx.
func (r *Receiver[T]) TryRecv() (T, RecvStatus) {
	val, status := r.c.q.Pop()
	switch status {
	case queue.Delivered:
		return val, RecvDelivered
	case queue.Closed:
		var zero T
		return zero, RecvClosed
	default:
		var zero T
		return zero, RecvEmpty
	}
}

// Recv blocks, observing ctx, until a value is available, the channel is
// closed and drained, or ctx is cancelled. ok is false only when the channel
// is closed and drained — spec.md's "optional value, none on closed-and-
// drained". err is non-nil only when ctx ends the wait first.
func (r *Receiver[T]) Recv(ctx context.Context) (v T, ok bool, err error) {
	for {
		val, status := r.TryRecv()
		switch status {
		case RecvDelivered:
			return val, true, nil
		case RecvClosed:
			var zero T
			return zero, false, nil
		default: // RecvEmpty
			if werr := r.c.avail.AcquireContext(ctx); werr != nil {
				var zero T
				return zero, false, werr
			}
		}
	}
}
