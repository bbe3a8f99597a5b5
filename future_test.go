package taskloom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskloom/taskloom/cancelctx"
)

func TestFuture_ReadyFalseUntilDelivered(t *testing.T) {
	task := newTask(1, true, false, cancelctx.Background())
	f := newFuture[int](task)

	require.False(t, f.Ready())
	task.deliver(3)
	require.True(t, f.Ready())
}

func TestFuture_AwaitFastPathOnAlreadyDone(t *testing.T) {
	task := newTask(1, true, false, cancelctx.Background())
	task.deliver(99)
	f := newFuture[int](task)

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 99, v)
}

func TestFuture_AwaitZeroValueOnNilResult(t *testing.T) {
	task := newTask(1, true, false, cancelctx.Background())
	task.deliver(nil)
	f := newFuture[*int](task)

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestFuture_AwaitBlocksThenUnblocksOnDeliver(t *testing.T) {
	task := newTask(1, true, false, cancelctx.Background())
	f := newFuture[string](task)

	result := make(chan string, 1)
	go func() {
		v, err := f.Await(context.Background())
		require.NoError(t, err)
		result <- v
	}()

	task.deliver("done")
	require.Equal(t, "done", <-result)
}
