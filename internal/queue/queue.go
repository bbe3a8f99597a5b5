package queue

import "sync/atomic"

// PopStatus discriminates the three outcomes of Pop: a value was delivered,
// the queue is momentarily empty but still open, or it is closed and drained.
type PopStatus int

const (
	// Delivered means Pop returned a real value.
	Delivered PopStatus = iota
	// Empty means no value is available right now but the queue is still open.
	Empty
	// Closed means the queue has been stopped (by either end) and fully drained.
	Closed
)

// Queue is a lock-free MPMC FIFO: many producers may Push concurrently, many
// consumers may Pop concurrently, built from a chain of frames. Per-producer
// FIFO order is guaranteed to any single consumer; there is no total order
// across producers. Used both as the runtime's dispatch queue and as the
// transport behind taskloom's MPMC channels.
type Queue[T any] struct {
	head atomic.Pointer[frame[T]] // consumer-side frame pointer
	tail atomic.Pointer[frame[T]] // producer-side frame pointer (may lag head's frame)

	senderStopped   atomic.Bool
	receiverStopped atomic.Bool
}

// New creates an empty continuous queue with one initial frame.
func New[T any]() *Queue[T] {
	f := newFrame[T]()
	q := &Queue[T]{}
	q.head.Store(f)
	q.tail.Store(f)
	return q
}

// Push reserves a slot, writes v into it, and waits for the release
// watermark to reach the reserved index before publishing. It returns
// (v, false) if the queue was closed before the value could be delivered, and
// (zero, true) on success.
func (q *Queue[T]) Push(v T) (T, bool) {
	f := q.tail.Load()

	for {
		if f.senderStopped.Load() || f.receiverStopped.Load() {
			return v, false
		}

		t := f.tail.Load()
		var index uint64
		if t == indexNullopt {
			index = indexNullopt
		} else {
			for {
				t = f.tail.Load()
				if t == indexNullopt {
					index = indexNullopt
					break
				}
				next := t + 1
				if next >= frameLength {
					next = indexNullopt
				}
				if f.tail.CompareAndSwap(t, next) {
					index = t
					break
				}
			}
		}

		if index < frameLength {
			f.slots[index] = v

			// Serialise release across producers within this frame without
			// serialising reservation: wait for our turn, then publish.
			for attempt := 0; f.released.Load() != index; attempt++ {
				spinWait(attempt)
			}
			f.released.Store(index + 1)
			var zero T
			return zero, true
		}

		// This frame is full (tail hit the sentinel): help advance to next.
		next := f.next.Load()
		if next == nil {
			candidate := newFrame[T]()
			if f.next.CompareAndSwap(nil, candidate) {
				next = candidate
			} else {
				next = f.next.Load() // stale CAS loser drops candidate
			}
		}
		q.tail.CompareAndSwap(f, next)
		f = next
	}
}

// Pop removes and returns the next element visible to this consumer. It
// never blocks: Empty means try again later, Closed means no more elements
// will ever arrive.
func (q *Queue[T]) Pop() (T, PopStatus) {
	var zero T
	f := q.head.Load()

	for {
		h := f.head.Load()

		// h == frameLength means this frame is fully consumed; only the
		// published next frame can yield further elements.
		if h >= frameLength {
			nf := f.next.Load()
			if nf == nil {
				if f.senderStopped.Load() || f.receiverStopped.Load() {
					return zero, Closed
				}
				return zero, Empty
			}
			q.head.CompareAndSwap(f, nf)
			f = nf
			continue
		}

		if h >= f.released.Load() {
			if f.senderStopped.Load() || f.receiverStopped.Load() {
				// Sender stopped accepting new reservations on this frame;
				// any in-flight reservation taken before the stop still
				// completes and bumps released, but no further indices will
				// ever be reserved, so nothing more can appear at or past h.
				nf := f.next.Load()
				if nf == nil {
					return zero, Closed
				}
				q.head.CompareAndSwap(f, nf)
				f = nf
				continue
			}
			return zero, Empty
		}

		if !f.head.CompareAndSwap(h, h+1) {
			continue
		}

		val := f.slots[h]
		var zeroT T
		f.slots[h] = zeroT

		if h+1 == frameLength {
			// Help the next Pop skip straight to the published successor.
			if nf := f.next.Load(); nf != nil {
				q.head.CompareAndSwap(f, nf)
			}
		}

		return val, Delivered
	}
}

// StopSender marks the queue closed from the producer side: every frame in
// the chain (walked forward from the consumer-side head frame) is flagged so in-flight
// and future Pop calls can distinguish empty-for-now from closed-for-good.
func (q *Queue[T]) StopSender() {
	f := q.head.Load()
	for f != nil {
		f.senderStopped.Store(true)
		f = f.next.Load()
	}
	q.senderStopped.Store(true)
}

// StopReceiver marks the queue closed from the consumer side, symmetric to
// StopSender.
func (q *Queue[T]) StopReceiver() {
	f := q.head.Load()
	for f != nil {
		f.receiverStopped.Store(true)
		f = f.next.Load()
	}
	q.receiverStopped.Store(true)
}

// SenderStopped reports whether StopSender has been called.
func (q *Queue[T]) SenderStopped() bool { return q.senderStopped.Load() }

// ReceiverStopped reports whether StopReceiver has been called.
func (q *Queue[T]) ReceiverStopped() bool { return q.receiverStopped.Load() }
