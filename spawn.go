package taskloom

import (
	"context"
)

// Spawn dispatches fn as an independently-scheduled task on rt and returns a
// Future for its result, per spec.md §4.1/§4.2's "spawn: create a task,
// enqueue it on a dispatch queue, return a handle immediately". If ctx
// carries a currently-executing Task (i.e. Spawn is called from inside
// another task's body), the new task's cancellation source descends from the
// caller's and its caller chain is extended for diagnostics, but the new
// task is NOT suspended on its caller — spawn semantics run independently.
func Spawn[R any](rt *Runtime, ctx context.Context, fn func(context.Context) (R, error)) *Future[R] {
	return spawn[R](rt, ctx, fn, false)
}

// SpawnCore behaves like Spawn but prefers the compute dispatch queue, per
// spec.md §4.6's "core" queue-selection variant — use for CPU-bound work
// that should avoid contending with I/O-bound tasks.
func SpawnCore[R any](rt *Runtime, ctx context.Context, fn func(context.Context) (R, error)) *Future[R] {
	return spawn[R](rt, ctx, fn, true)
}

func spawn[R any](rt *Runtime, ctx context.Context, fn func(context.Context) (R, error), core bool) *Future[R] {
	id := rt.allocTaskID()

	parent := rt.root
	var caller *Task
	if c := TaskFromContext(ctx); c != nil {
		caller = c
		parent = c.cancelSource
	}

	t := newTask(id, true, core, parent)
	t.body = func(bodyCtx context.Context) (any, error) {
		return fn(bodyCtx)
	}
	if caller != nil {
		t.setCaller(caller)
	}

	if err := rt.spawnTask(t); err != nil {
		t.fail(err)
	}

	return newFuture[R](t)
}

// Go is a convenience alias for Spawn, matching the naming callers migrating
// from goroutine-based code expect.
func Go[R any](rt *Runtime, ctx context.Context, fn func(context.Context) (R, error)) *Future[R] {
	return Spawn[R](rt, ctx, fn)
}
