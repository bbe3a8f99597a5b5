package taskloom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskloom/taskloom/metrics"
)

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := New(WithWorkers(4), WithWorkerClassification(func(cpu int) bool { return cpu%2 == 0 }))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = rt.Shutdown(ctx)
	})
	return rt
}

func TestNew_RejectsZeroWorkers(t *testing.T) {
	_, err := New(WithWorkers(0))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSpawn_ReturnsResult(t *testing.T) {
	rt := newTestRuntime(t)

	f := Spawn[int](rt, context.Background(), func(ctx context.Context) (int, error) {
		return 42, nil
	})

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestSpawn_PropagatesError(t *testing.T) {
	rt := newTestRuntime(t)
	sentinel := errors.New("boom")

	f := Spawn[int](rt, context.Background(), func(ctx context.Context) (int, error) {
		return 0, sentinel
	})

	_, err := f.Await(context.Background())
	require.ErrorIs(t, err, sentinel)

	id, ok := ExtractTaskID(err)
	require.True(t, ok)
	require.Equal(t, f.Task().ID(), id)
}

func TestSpawn_RecoversPanic(t *testing.T) {
	rt := newTestRuntime(t)

	f := Spawn[int](rt, context.Background(), func(ctx context.Context) (int, error) {
		panic("exploded")
	})

	_, err := f.Await(context.Background())
	require.ErrorIs(t, err, ErrTaskPanicked)
}

func TestSpawn_NestedAwaitRecordsCallerChain(t *testing.T) {
	rt := newTestRuntime(t)

	outer := Spawn[int](rt, context.Background(), func(ctx context.Context) (int, error) {
		inner := Spawn[int](rt, ctx, func(ctx context.Context) (int, error) {
			return 7, nil
		})
		v, err := inner.Await(ctx)
		if err != nil {
			return 0, err
		}
		return v * 2, nil
	})

	v, err := outer.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 14, v)
}

func TestFuture_AwaitHonoursContextCancellation(t *testing.T) {
	rt := newTestRuntime(t)

	started := make(chan struct{})
	release := make(chan struct{})
	f := Spawn[int](rt, context.Background(), func(ctx context.Context) (int, error) {
		close(started)
		<-release
		return 1, nil
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestFuture_ConcurrentAwaitRejectsSecondCaller(t *testing.T) {
	rt := newTestRuntime(t)

	release := make(chan struct{})
	f := Spawn[int](rt, context.Background(), func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})

	firstStarted := make(chan struct{})
	go func() {
		close(firstStarted)
		_, _ = f.Await(context.Background())
	}()
	<-firstStarted
	require.Eventually(t, func() bool { return f.task.awaitStarted.Load() }, time.Second, time.Millisecond)

	_, err := f.Await(context.Background())
	require.ErrorIs(t, err, ErrAlreadyAwaiting)

	close(release)
}

func TestRuntime_ShutdownRejectsNewSpawns(t *testing.T) {
	rt, err := New(WithWorkers(2))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rt.Shutdown(ctx))

	f := Spawn[int](rt, context.Background(), func(ctx context.Context) (int, error) {
		return 1, nil
	})
	_, err = f.Await(context.Background())
	require.ErrorIs(t, err, ErrRuntimeClosed)
}

func TestRuntime_BasicProviderRecordsTaskCounts(t *testing.T) {
	bp := metrics.NewBasicProvider()
	rt, err := New(WithWorkers(2), WithMetrics(bp))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = rt.Shutdown(ctx)
	})

	ok := Spawn[int](rt, context.Background(), func(ctx context.Context) (int, error) { return 1, nil })
	_, err = ok.Await(context.Background())
	require.NoError(t, err)

	sentinel := errors.New("bad")
	bad := Spawn[int](rt, context.Background(), func(ctx context.Context) (int, error) { return 0, sentinel })
	_, err = bad.Await(context.Background())
	require.ErrorIs(t, err, sentinel)

	spawned := bp.Counter(metrics.TasksSpawned).(*metrics.BasicCounter).Snapshot()
	completed := bp.Counter(metrics.TasksCompleted).(*metrics.BasicCounter).Snapshot()
	failed := bp.Counter(metrics.TasksFailed).(*metrics.BasicCounter).Snapshot()

	require.Equal(t, int64(2), spawned)
	require.Equal(t, int64(1), completed)
	require.Equal(t, int64(1), failed)
}

func TestGather_CollectsAllResultsInOrder(t *testing.T) {
	rt := newTestRuntime(t)

	futures := make([]*Future[int], 5)
	for i := range futures {
		i := i
		futures[i] = Spawn[int](rt, context.Background(), func(ctx context.Context) (int, error) {
			return i * i, nil
		})
	}

	results, err := Gather(context.Background(), futures...)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 4, 9, 16}, results)
}

func TestGather_ReturnsFirstError(t *testing.T) {
	rt := newTestRuntime(t)
	sentinel := errors.New("bad")

	ok := Spawn[int](rt, context.Background(), func(ctx context.Context) (int, error) { return 1, nil })
	bad := Spawn[int](rt, context.Background(), func(ctx context.Context) (int, error) { return 0, sentinel })

	_, err := Gather(context.Background(), ok, bad)
	require.ErrorIs(t, err, sentinel)
}
