package taskloom

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"

	"github.com/taskloom/taskloom/cancelctx"
)

// TaskID is a process-unique, monotonically increasing identifier issued by
// a Runtime's allocTaskID. Never reused.
type TaskID uint64

// Task is the per-task bookkeeping record: shared by the spawning caller
// (via its Future), the task's worker while scheduled, and any caller task
// suspended awaiting it. Mirrors spec.md §3's task record field-for-field,
// translated from a manually-refcounted coroutine frame to a GC-owned struct
// reachable from whichever of those three holders still references it.
type Task struct {
	id TaskID

	// diagID is a diagnostic correlation id, not the identity of the task —
	// TaskID alone identifies a task. Grounded on frankenasync's asynctask.ID
	// (xid-based); it is assigned at creation and nothing else in the package
	// reads it.
	diagID xid.ID

	spawn bool // true: independently dispatched; false: inline continuation
	core  bool // true: prefers the compute dispatch queue over I/O

	body func(ctx context.Context) (any, error)

	returned     atomic.Bool
	eThrown      atomic.Bool
	eRethrown    atomic.Bool
	cancelled    atomic.Bool
	scheduled    atomic.Bool
	awaitStarted atomic.Bool

	mu        sync.Mutex
	result    any
	exception error

	caller atomic.Pointer[Task]

	worker atomic.Pointer[Worker]

	// waitSem is allocated lazily by whichever of blockingWait and signalDone
	// runs first, and closed on completion; every Future.Await waits on it
	// through blockingWait.
	waitOnce sync.Once
	waitSem  chan struct{}

	cancelSource *cancelctx.Context
	cancelFn     func(error)

	callerChainMu sync.Mutex
	callerChain   []TaskID

	localMu sync.Mutex
	local   map[any]any
}

func newTask(id TaskID, spawn, core bool, parent *cancelctx.Context) *Task {
	t := &Task{id: id, diagID: xid.New(), spawn: spawn, core: core}
	child, cancel := cancelctx.WithCancel(parent)
	t.cancelSource = child
	t.cancelFn = cancel
	return t
}

// ID returns the task's runtime-issued identifier.
func (t *Task) ID() TaskID { return t.id }

// IsCancelled reports whether the task's cancellation source has fired.
func (t *Task) IsCancelled() bool {
	return t.cancelSource.Cancelled()
}

// Cancel fires the task's own cancellation source. It does not stop the
// task's goroutine; cancellation is cooperative, per spec.md §5 — the task
// must observe IsCancelled or have its wait interrupted.
func (t *Task) Cancel() {
	t.cancelled.Store(true)
	t.cancelFn(ErrTaskCancelled)
}

func (t *Task) setCaller(caller *Task) {
	t.caller.Store(caller)
	if caller == nil {
		return
	}
	caller.callerChainMu.Lock()
	chain := append(append([]TaskID(nil), caller.callerChain...), caller.id)
	caller.callerChainMu.Unlock()

	t.callerChainMu.Lock()
	t.callerChain = chain
	t.callerChainMu.Unlock()
}

// CallerChain returns the stack of task ids representing the await chain
// leading to this task, for diagnostic unwinding (spec.md §3's caller_chain).
func (t *Task) CallerChain() []TaskID {
	t.callerChainMu.Lock()
	defer t.callerChainMu.Unlock()
	return append([]TaskID(nil), t.callerChain...)
}

// deliver stores a successful result. Per spec.md's invariant, called at
// most once; a second call is a runtime-invariant violation and panics.
func (t *Task) deliver(v any) {
	if !t.returned.CompareAndSwap(false, true) {
		panic("taskloom: task result delivered more than once")
	}
	t.mu.Lock()
	t.result = v
	t.mu.Unlock()
	t.signalDone()
}

// fail stores an unhandled error. Called at most once.
func (t *Task) fail(err error) {
	if !t.eThrown.CompareAndSwap(false, true) {
		panic("taskloom: task exception delivered more than once")
	}
	t.mu.Lock()
	t.exception = newTaskTaggedError(err, t.id, t.CallerChain())
	t.mu.Unlock()
	t.signalDone()
}

// done reports whether the task has returned or thrown.
func (t *Task) done() bool {
	return t.returned.Load() || t.eThrown.Load()
}

func (t *Task) outcome() (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.exception != nil && t.eThrown.Load() {
		t.eRethrown.Store(true)
	}
	return t.result, t.exception
}

// signalDone closes waitSem. Safe to call only once: deliver and fail are
// mutually exclusive and each CAS-guarded to run at most once, so this never
// races with itself.
func (t *Task) signalDone() {
	t.waitOnce.Do(func() { t.waitSem = make(chan struct{}) })
	close(t.waitSem)
}

// blockingWait parks the calling goroutine (not a runtime worker) until the
// task completes. Grounded on spec.md §4.3's "blocking .await() from a
// non-runtime thread": allocate the semaphore lazily and block on it.
func (t *Task) blockingWait() {
	t.waitOnce.Do(func() { t.waitSem = make(chan struct{}) })
	if t.done() {
		return
	}
	<-t.waitSem
}
