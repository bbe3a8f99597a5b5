package taskloom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskloom/taskloom/cancelctx"
)

func TestTask_DeliverThenOutcome(t *testing.T) {
	task := newTask(1, true, false, cancelctx.Background())
	task.deliver(5)

	require.True(t, task.done())
	v, err := task.outcome()
	require.NoError(t, err)
	require.Equal(t, 5, v)
}

func TestTask_DeliverTwicePanics(t *testing.T) {
	task := newTask(1, true, false, cancelctx.Background())
	task.deliver(1)
	require.Panics(t, func() { task.deliver(2) })
}

func TestTask_FailTagsTaskID(t *testing.T) {
	task := newTask(9, true, false, cancelctx.Background())
	sentinel := errors.New("broke")
	task.fail(sentinel)

	_, err := task.outcome()
	require.ErrorIs(t, err, sentinel)

	id, ok := ExtractTaskID(err)
	require.True(t, ok)
	require.Equal(t, TaskID(9), id)
}

func TestTask_CancelFiresCancelSource(t *testing.T) {
	task := newTask(1, true, false, cancelctx.Background())
	require.False(t, task.IsCancelled())

	task.Cancel()
	require.True(t, task.IsCancelled())
	require.True(t, task.cancelSource.Cancelled())
}

func TestTask_SetCallerBuildsChain(t *testing.T) {
	grandparent := newTask(1, true, false, cancelctx.Background())
	parent := newTask(2, true, false, cancelctx.Background())
	child := newTask(3, true, false, cancelctx.Background())

	parent.setCaller(grandparent)
	child.setCaller(parent)

	require.Equal(t, []TaskID{1, 2}, child.CallerChain())
}

func TestTask_BlockingWaitReturnsAfterDeliver(t *testing.T) {
	task := newTask(1, true, false, cancelctx.Background())
	done := make(chan struct{})
	go func() {
		task.blockingWait()
		close(done)
	}()

	task.deliver("ok")
	<-done // must not hang
}
