// Package timerwheel implements the runtime's timer daemon: one dedicated
// goroutine maintaining a two-level time index (second bucket, ordered by
// expiry within the bucket) so registration, cancellation, and expiry scans
// are all O(log n).
//
// Grounded on spec.md §4.8: "a dedicated thread maintains the two-level
// timer index... sleep until the earliest entry's expiry, then for every
// expired entry invoke worker.activate_task(tid) and remove it." The fire
// callback here takes the place of activate_task, since a goroutine has no
// separate activation step. The clock is injected as a clockz.Clock
// (github.com/zoobzio/clockz), the same pattern zoobzio-pipz's Timeout,
// Backoff, RateLimiter, and WorkerPool connectors all use to make their
// time-driven logic deterministically testable with clockz.NewFakeClock
// instead of sleeping in wall-clock time.
package timerwheel

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/MauriceGit/skiplist"
	"github.com/zoobzio/clockz"
)

// ID identifies a scheduled timer for later cancellation.
type ID uint64

// Daemon is the timer thread: a single goroutine that owns the two-level
// index and fires expired entries.
type Daemon struct {
	clock clockz.Clock

	mu    sync.Mutex
	outer skiplist.SkipList
	byID  map[ID]bucketedEntry

	nextID  atomic.Uint64
	nextSeq atomic.Uint64

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

type bucketedEntry struct {
	second int64
	entry  *timerEntry
}

// NewDaemon starts the timer thread using clock for all time measurement.
// Pass clockz.RealClock in production and a clockz.NewFakeClock() in tests
// to drive expiry deterministically.
func NewDaemon(clock clockz.Clock) *Daemon {
	d := &Daemon{
		clock: clock,
		outer: skiplist.New(),
		byID:  make(map[ID]bucketedEntry),
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

// Now returns the daemon's clock's current time, so callers scheduling
// relative to "now" use the same notion of time the daemon itself does
// (important under a fake clock in tests).
func (d *Daemon) Now() time.Time {
	return d.clock.Now()
}

// Stop halts the timer thread. Pending entries are abandoned; their fire
// callbacks never run.
func (d *Daemon) Stop() {
	close(d.stop)
	<-d.done
}

// Schedule arranges for fire to be invoked at or after at, and returns an ID
// that Cancel can use to withdraw it before it fires.
func (d *Daemon) Schedule(at time.Time, fire func()) ID {
	id := ID(d.nextID.Add(1))
	second := at.UnixNano() / int64(time.Second)
	nanosInSecond := at.UnixNano() - second*int64(time.Second)

	e := &timerEntry{
		id:            id,
		nanosInSecond: nanosInSecond,
		seq:           d.nextSeq.Add(1),
		fire:          fire,
	}

	d.mu.Lock()
	bucket := d.bucketLocked(second, true)
	bucket.inner.Insert(e)
	d.byID[id] = bucketedEntry{second: second, entry: e}
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return id
}

// Sleep schedules a timer for now+duration and returns immediately with a
// channel that closes on expiry, plus the timer's ID for Cancel. It never
// blocks; its shape mirrors clockz.Clock.After so callers can select between
// the timer and a cancellation context.
func (d *Daemon) Sleep(duration time.Duration) (<-chan struct{}, ID) {
	ch := make(chan struct{})
	id := d.Schedule(d.clock.Now().Add(duration), func() { close(ch) })
	return ch, id
}

// Cancel withdraws a timer before it fires, reporting whether it was still
// pending (false means it already fired or was already cancelled).
func (d *Daemon) Cancel(id ID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	be, ok := d.byID[id]
	if !ok {
		return false
	}
	delete(d.byID, id)

	bucket := d.bucketLocked(be.second, false)
	if bucket == nil {
		return false
	}
	bucket.inner.Delete(be.entry)
	if bucket.inner.IsEmpty() {
		d.outer.Delete(bucket)
	}
	return true
}

// bucketLocked finds (or, if create is true, creates) the bucket for a given
// second. Caller must hold d.mu.
func (d *Daemon) bucketLocked(second int64, create bool) *secondBucket {
	probe := &secondBucket{second: second}
	if node, ok := d.outer.Find(probe); ok {
		return node.GetValue().(*secondBucket)
	}
	if !create {
		return nil
	}
	b := newSecondBucket(second)
	d.outer.Insert(b)
	return b
}

func (d *Daemon) run() {
	defer close(d.done)

	for {
		timer, ok := d.nextWakeup()

		select {
		case <-d.stop:
			return
		case <-d.wake:
			continue
		case <-timer:
			if ok {
				d.fireExpired()
			}
		}
	}
}

// nextWakeup returns a channel that fires at the earliest pending entry's
// expiry, or a nil channel (which blocks forever in a select) if the index
// is empty — matching spec.md §4.8's "if the index is empty, sleep until
// poked by an arrival".
func (d *Daemon) nextWakeup() (<-chan time.Time, bool) {
	d.mu.Lock()
	bucketNode := d.outer.GetSmallestNode()
	if bucketNode == nil {
		d.mu.Unlock()
		return nil, false
	}
	bucket := bucketNode.GetValue().(*secondBucket)
	entryNode := bucket.inner.GetSmallestNode()
	if entryNode == nil {
		d.mu.Unlock()
		return nil, false
	}
	e := entryNode.GetValue().(*timerEntry)
	d.mu.Unlock()

	expiry := time.Unix(0, bucket.second*int64(time.Second)+e.nanosInSecond)
	delay := expiry.Sub(d.clock.Now())
	if delay < 0 {
		delay = 0
	}
	return d.clock.After(delay), true
}

func (d *Daemon) fireExpired() {
	now := d.clock.Now()
	var toFire []func()

	d.mu.Lock()
	for {
		bucketNode := d.outer.GetSmallestNode()
		if bucketNode == nil {
			break
		}
		bucket := bucketNode.GetValue().(*secondBucket)

		entryNode := bucket.inner.GetSmallestNode()
		if entryNode == nil {
			d.outer.Delete(bucket)
			continue
		}
		e := entryNode.GetValue().(*timerEntry)
		expiry := time.Unix(0, bucket.second*int64(time.Second)+e.nanosInSecond)
		if expiry.After(now) {
			break
		}

		bucket.inner.Delete(e)
		delete(d.byID, e.id)
		if bucket.inner.IsEmpty() {
			d.outer.Delete(bucket)
		}
		toFire = append(toFire, e.fire)
	}
	d.mu.Unlock()

	for _, fire := range toFire {
		fire()
	}
}
