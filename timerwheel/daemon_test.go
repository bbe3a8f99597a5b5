package timerwheel

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zoobzio/clockz"
)

func TestDaemon_FiresAtDeadline(t *testing.T) {
	clock := clockz.NewFakeClock()
	d := NewDaemon(clock)
	defer d.Stop()

	fired := make(chan struct{})
	d.Schedule(clock.Now().Add(100*time.Millisecond), func() { close(fired) })

	clock.BlockUntilReady()
	clock.Advance(100 * time.Millisecond)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}

func TestDaemon_CancelPreventsFiring(t *testing.T) {
	clock := clockz.NewFakeClock()
	d := NewDaemon(clock)
	defer d.Stop()

	fired := make(chan struct{})
	id := d.Schedule(clock.Now().Add(100*time.Millisecond), func() { close(fired) })

	require.True(t, d.Cancel(id))
	require.False(t, d.Cancel(id), "cancelling twice should report already gone")

	clock.BlockUntilReady()
	clock.Advance(200 * time.Millisecond)

	select {
	case <-fired:
		t.Fatal("cancelled timer fired anyway")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDaemon_OrdersMultipleEntriesByExpiry(t *testing.T) {
	clock := clockz.NewFakeClock()
	d := NewDaemon(clock)
	defer d.Stop()

	var mu sync.Mutex
	var order []int
	done := make(chan struct{}, 3)
	record := func(i int) {
		mu.Lock()
		order = append(order, i)
		mu.Unlock()
		done <- struct{}{}
	}

	d.Schedule(clock.Now().Add(300*time.Millisecond), func() { record(3) })
	d.Schedule(clock.Now().Add(100*time.Millisecond), func() { record(1) })
	d.Schedule(clock.Now().Add(200*time.Millisecond), func() { record(2) })

	clock.BlockUntilReady()
	for i := 0; i < 3; i++ {
		clock.Advance(100 * time.Millisecond)
		clock.BlockUntilReady()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("not all timers fired")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 2, 3}, order)
}

func TestDaemon_Sleep(t *testing.T) {
	clock := clockz.NewFakeClock()
	d := NewDaemon(clock)
	defer d.Stop()

	ch, _ := d.Sleep(50 * time.Millisecond)

	clock.BlockUntilReady()
	clock.Advance(50 * time.Millisecond)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("sleep never completed")
	}
}
