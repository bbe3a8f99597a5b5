package taskloom

import (
	"context"
)

// Future is the caller-facing handle returned by Spawn: awaiting it yields
// the task's return value or rethrows its error, per spec.md §4.3's "spawn
// future" protocol. It owns the underlying Task via a plain Go pointer — no
// manual refcounting is needed since the GC reclaims the Task once every
// holder (this Future, the task's worker while scheduled, any caller task
// that suspended awaiting it) drops its reference.
type Future[R any] struct {
	task *Task
}

func newFuture[R any](t *Task) *Future[R] {
	return &Future[R]{task: t}
}

// Task exposes the underlying task record, e.g. for cancellation or caller-
// chain inspection.
func (f *Future[R]) Task() *Task { return f.task }

// Ready reports whether the task has returned or thrown, without blocking.
func (f *Future[R]) Ready() bool { return f.task.done() }

// Await blocks until the task completes, observing ctx for early
// cancellation. On normal completion it returns the task's result; on an
// unhandled task error it returns the zero value and that error (tagged with
// TaskID/CallerChain via TaskMetaError); if ctx is done first, it returns
// ctx.Err() without marking the task itself cancelled.
//
// Awaiting with a ctx that carries a caller task (the common case: a task
// awaiting a child it spawned) records the caller/callee link used for
// CallerChain diagnostics and moves the caller to its worker's suspended
// table for the wait, back to active afterwards. Every awaiter, a task or an
// arbitrary non-runtime goroutine, waits on the task's lazily allocated
// completion channel (blockingWait, spec.md §4.3's last bullet).
func (f *Future[R]) Await(ctx context.Context) (R, error) {
	var zero R

	if f.task.done() {
		return f.outcome()
	}

	if !f.task.awaitStarted.CompareAndSwap(false, true) {
		var zero R
		return zero, ErrAlreadyAwaiting
	}

	caller := TaskFromContext(ctx)
	var ownerWorker *Worker
	if caller != nil {
		f.task.setCaller(caller)
		ownerWorker = caller.worker.Load()
		if ownerWorker != nil {
			ownerWorker.Suspend(caller)
		}
	}

	done := make(chan struct{})
	go func() {
		f.task.blockingWait()
		close(done)
	}()

	select {
	case <-done:
		if ownerWorker != nil {
			ownerWorker.Activate(caller)
		}
		return f.outcome()
	case <-ctx.Done():
		if ownerWorker != nil {
			ownerWorker.Activate(caller)
		}
		return zero, ctx.Err()
	}
}

func (f *Future[R]) outcome() (R, error) {
	var zero R
	v, err := f.task.outcome()
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	return v.(R), nil
}
