package syncx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNotify_SignalWakesOneWaiter(t *testing.T) {
	n := NewNotify()

	woken := make(chan struct{})
	go func() {
		_ = n.Wait(context.Background())
		close(woken)
	}()

	time.Sleep(20 * time.Millisecond)
	n.Signal()

	select {
	case <-woken:
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken")
	}
}

func TestNotify_SignalWithNoWaiterIsLost(t *testing.T) {
	n := NewNotify()
	n.Signal() // no-op, nobody waiting

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := n.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNotify_BroadcastWakesAll(t *testing.T) {
	n := NewNotify()

	const numWaiters = 5
	done := make(chan struct{}, numWaiters)
	for i := 0; i < numWaiters; i++ {
		go func() {
			_ = n.Wait(context.Background())
			done <- struct{}{}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	n.Broadcast()

	for i := 0; i < numWaiters; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("not all waiters woke from broadcast")
		}
	}
}
