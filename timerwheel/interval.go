package timerwheel

import "time"

// Interval repeatedly reschedules itself against the same daemon, delivering
// a tick on the returned channel every period until Stop is called. It is
// the timer-backed analogue of spec.md §4.8's sleep_for/interval.tick.
type Interval struct {
	daemon *Daemon
	period time.Duration
	ticks  chan struct{}
	stop   chan struct{}
}

// NewInterval starts ticking immediately, delivering the first tick after
// one period has elapsed.
func NewInterval(d *Daemon, period time.Duration) *Interval {
	iv := &Interval{
		daemon: d,
		period: period,
		ticks:  make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
	iv.scheduleNext()
	return iv
}

// C returns the channel ticks are delivered on. Ticks are coalesced: if the
// consumer falls behind, at most one pending tick is buffered.
func (iv *Interval) C() <-chan struct{} {
	return iv.ticks
}

// Stop cancels future ticks. A tick already in flight may still be
// delivered.
func (iv *Interval) Stop() {
	close(iv.stop)
}

func (iv *Interval) scheduleNext() {
	iv.daemon.Schedule(iv.daemon.clock.Now().Add(iv.period), func() {
		select {
		case <-iv.stop:
			return
		default:
		}
		select {
		case iv.ticks <- struct{}{}:
		default:
		}
		select {
		case <-iv.stop:
		default:
			iv.scheduleNext()
		}
	})
}
