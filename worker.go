package taskloom

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/taskloom/taskloom/internal/affinity"
	"github.com/taskloom/taskloom/internal/queue"
	"github.com/taskloom/taskloom/metrics"
	"github.com/taskloom/taskloom/syncx"
)

// WorkerKind classifies a Worker by the dispatch queue it drains, per
// spec.md §4.4: "classification of workers into compute vs I/O uses the
// presence of SMT siblings".
type WorkerKind int

const (
	// Compute workers drain the compute dispatch queue; they are pinned to
	// the first CPU of each physical core.
	Compute WorkerKind = iota
	// IO workers drain the I/O dispatch queue; they are pinned to a core's
	// remaining SMT siblings, or to the first compute CPU when no core has
	// siblings.
	IO
)

func (k WorkerKind) String() string {
	if k == Compute {
		return "compute"
	}
	return "io"
}

// Worker is a goroutine that pulls tasks off one of the Runtime's two
// dispatch queues and tracks them in active/suspended tables, matching
// spec.md §4.4's bookkeeping contract. Unlike asco's pinned-thread
// cooperative scheduler, a taskloom Worker does not itself run task bodies
// to completion one at a time: each dispatched task gets its own goroutine
// (Go's scheduler already gives every task fair, preemptible execution — see
// SPEC_FULL.md §7 Open Question 4), and the Worker's tables exist for
// diagnostics, load accounting, and cross-worker task movement rather than
// for literal single-threaded interleaving.
type Worker struct {
	id   int
	kind WorkerKind
	cpu  int

	rt    *Runtime
	queue *queue.Queue[*Task]
	pin   affinity.Pinner

	idle *syncx.Semaphore

	mu        sync.Mutex
	active    map[TaskID]*Task
	order     []TaskID
	suspended map[TaskID]*Task

	wg sync.WaitGroup
}

func newWorker(id int, kind WorkerKind, cpu int, rt *Runtime, q *queue.Queue[*Task], pin affinity.Pinner) *Worker {
	return &Worker{
		id:        id,
		kind:      kind,
		cpu:       cpu,
		rt:        rt,
		queue:     q,
		pin:       pin,
		idle:      syncx.NewSemaphoreN(0, 1<<30),
		active:    make(map[TaskID]*Task),
		suspended: make(map[TaskID]*Task),
	}
}

// ID returns the worker's process-local index.
func (w *Worker) ID() int { return w.id }

// Kind reports whether this worker drains the compute or I/O dispatch queue.
func (w *Worker) Kind() WorkerKind { return w.kind }

// run is the worker's dispatch loop: drain the queue until closed, launching
// each delivered task on its own goroutine; park on the idle semaphore when
// the queue is momentarily empty rather than busy-polling.
func (w *Worker) run() {
	if w.pin != nil {
		runtime.LockOSThread()
		if err := w.pin.Pin(w.cpu); err != nil {
			w.rt.logger.Warn("worker affinity pin failed", "worker", w.id, "cpu", w.cpu, "error", err)
		}
	}

	for {
		t, status := w.queue.Pop()
		switch status {
		case queue.Delivered:
			w.dispatch(t)
		case queue.Closed:
			w.wg.Wait()
			return
		case queue.Empty:
			w.idle.Acquire()
		}
	}
}

// wake releases one idle-wait permit, used by the Runtime after pushing a
// task so an idle worker does not wait for its next poll.
func (w *Worker) wake() { w.idle.Release(1) }

func (w *Worker) dispatch(t *Task) {
	t.worker.Store(w)
	t.scheduled.Store(true)

	w.mu.Lock()
	w.active[t.id] = t
	w.order = append(w.order, t.id)
	w.mu.Unlock()

	w.wg.Add(1)
	go w.execute(t)
}

func (w *Worker) execute(t *Task) {
	defer w.wg.Done()
	defer w.complete(t)

	ctx, cancel := taskContext(context.Background(), t, w)
	defer cancel()

	ctx, span := w.rt.tracer.StartSpan(ctx, taskExecuteSpan)
	span.SetTag(tagTaskID, strconv.FormatUint(uint64(t.id), 10))
	span.SetTag(tagWorker, strconv.Itoa(w.id))
	span.SetTag(tagKind, w.kind.String())
	defer span.Finish()

	result, err := w.runBody(ctx, t)
	if err != nil {
		t.fail(err)
		span.SetTag(tagOutcome, "failed")
		span.SetTag(tagError, err.Error())
		w.rt.metrics.Counter(metrics.TasksFailed).Add(1)
		return
	}
	t.deliver(result)
	span.SetTag(tagOutcome, "completed")
	w.rt.metrics.Counter(metrics.TasksCompleted).Add(1)
}

func (w *Worker) runBody(ctx context.Context, t *Task) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
		}
	}()
	return t.body(ctx)
}

func (w *Worker) complete(t *Task) {
	w.mu.Lock()
	delete(w.active, t.id)
	w.removeFromOrderLocked(t.id)
	delete(w.suspended, t.id)
	w.mu.Unlock()

	t.scheduled.Store(false)
	w.rt.unregisterTask(t)
	w.rt.decLoad(w.kind)
}

func (w *Worker) removeFromOrderLocked(id TaskID) {
	for i, x := range w.order {
		if x == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			return
		}
	}
}

// Suspend moves t from this worker's active table to its suspended table.
// Called by Future.Await when a task owned by this worker suspends awaiting
// a child future, per spec.md §4.3's "move the caller into the worker's
// suspended map".
func (w *Worker) Suspend(t *Task) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.active[t.id]; !ok {
		return
	}
	delete(w.active, t.id)
	w.removeFromOrderLocked(t.id)
	w.suspended[t.id] = t
}

// Activate moves t back from suspended to active, appending it to the back
// of the active order (spec.md §5: "a resumed task is appended to the back").
func (w *Worker) Activate(t *Task) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.suspended[t.id]; !ok {
		return
	}
	delete(w.suspended, t.id)
	w.active[t.id] = t
	w.order = append(w.order, t.id)
}

// MoveOutSuspendedTask removes a suspended task from this worker so another
// worker can adopt it with MoveInSuspendedTask (spec.md §4.4).
func (w *Worker) MoveOutSuspendedTask(id TaskID) *Task {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.suspended[id]
	if !ok {
		return nil
	}
	delete(w.suspended, id)
	return t
}

// MoveInSuspendedTask adopts a task moved out of another worker, placing it
// directly in this worker's suspended table.
func (w *Worker) MoveInSuspendedTask(t *Task) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.suspended[t.id] = t
	t.worker.Store(w)
}

// ActiveCount reports the number of tasks currently running on this worker.
func (w *Worker) ActiveCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.active)
}

// SuspendedCount reports the number of tasks parked awaiting something while
// owned by this worker.
func (w *Worker) SuspendedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.suspended)
}

// taskContext derives a context.Context from base that is cancelled when t's
// cancellation source fires, and carries w/t for WorkerFromContext/
// TaskFromContext.
func taskContext(base context.Context, t *Task, w *Worker) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(base)
	ctx = withWorker(withTask(ctx, t), w)

	go func() {
		_ = t.cancelSource.Wait(ctx)
		cancel()
	}()

	return ctx, cancel
}
