package taskloom

import "context"

// TaskLocal is per-task storage for a value of type T: each task sees its
// own independent slot, isolated from its caller's and from any task it
// spawns, the same way a goroutine-local would work if Go had one. Grounded
// on context.Context's own private-key pattern (the unexported key types in
// context.go already use this trick for Worker/Task); a TaskLocal is just
// that pattern genericized and keyed per task instead of per context value.
//
// A TaskLocal has no parent-to-child inheritance: a spawned task's slot
// starts at T's zero value regardless of what its caller stored, matching
// spec.md §8 scenario 6 ("a child whose task-local starts at 200" — a value
// distinct from its parent's, not inherited from it).
type TaskLocal[T any] struct {
	key *byte // unique per TaskLocal instance, used as the map key
}

// NewTaskLocal allocates a fresh task-local slot, usable from any task.
func NewTaskLocal[T any]() *TaskLocal[T] {
	return &TaskLocal[T]{key: new(byte)}
}

// Get returns the value ctx's task has stored, or T's zero value if it never
// called Set. Returns the zero value outside of a task body (ctx carries no
// Task).
func (tl *TaskLocal[T]) Get(ctx context.Context) T {
	var zero T
	t := TaskFromContext(ctx)
	if t == nil {
		return zero
	}
	t.localMu.Lock()
	defer t.localMu.Unlock()
	v, ok := t.local[tl.key]
	if !ok {
		return zero
	}
	return v.(T)
}

// GetTask returns the value t has stored, bypassing the context lookup —
// used by an awaiter that already holds the child *Task (e.g. via
// Future.Task) and wants to read its local storage after it completes.
func (tl *TaskLocal[T]) GetTask(t *Task) T {
	var zero T
	if t == nil {
		return zero
	}
	t.localMu.Lock()
	defer t.localMu.Unlock()
	v, ok := t.local[tl.key]
	if !ok {
		return zero
	}
	return v.(T)
}

// Set stores v in ctx's task's slot. A no-op outside of a task body.
func (tl *TaskLocal[T]) Set(ctx context.Context, v T) {
	t := TaskFromContext(ctx)
	if t == nil {
		return
	}
	t.localMu.Lock()
	defer t.localMu.Unlock()
	if t.local == nil {
		t.local = make(map[any]any)
	}
	t.local[tl.key] = v
}
