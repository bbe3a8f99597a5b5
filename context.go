package taskloom

import "context"

// SPEC_FULL.md §7 Open Question resolution 3: Go has no per-OS-thread
// storage tied to a goroutine the way spec.md's "thread-local current
// worker" assumes. The current *Worker and *Task are threaded through
// context.Context values instead — every task body already receives a ctx,
// making this the idiomatic carrier rather than a fabricated thread-local.

type workerCtxKey struct{}
type taskCtxKey struct{}

func withWorker(ctx context.Context, w *Worker) context.Context {
	return context.WithValue(ctx, workerCtxKey{}, w)
}

func withTask(ctx context.Context, t *Task) context.Context {
	return context.WithValue(ctx, taskCtxKey{}, t)
}

// WorkerFromContext returns the Worker currently executing the task that owns
// ctx, or nil if ctx did not originate from a task body (e.g. it is a
// caller's top-level context passed into Spawn).
func WorkerFromContext(ctx context.Context) *Worker {
	w, _ := ctx.Value(workerCtxKey{}).(*Worker)
	return w
}

// TaskFromContext returns the Task currently executing, or nil outside of a
// task body.
func TaskFromContext(ctx context.Context) *Task {
	t, _ := ctx.Value(taskCtxKey{}).(*Task)
	return t
}
