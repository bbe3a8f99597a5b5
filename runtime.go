package taskloom

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/tracez"

	"github.com/taskloom/taskloom/cancelctx"
	"github.com/taskloom/taskloom/internal/affinity"
	"github.com/taskloom/taskloom/internal/queue"
	"github.com/taskloom/taskloom/metrics"
	"github.com/taskloom/taskloom/timerwheel"
)

// Runtime is the process-wide scheduler: it owns the worker slice, the two
// dispatch queues (compute, I/O), the timer daemon, the task registry, and
// the task-id generator, per spec.md §4.5. Construction acquires and pins
// workers; Shutdown closes the dispatch queues and waits for every worker to
// drain.
type Runtime struct {
	computeQueue *queue.Queue[*Task]
	ioQueue      *queue.Queue[*Task]

	computeWorkers []*Worker
	ioWorkers      []*Worker

	computeWorkerCount int
	ioWorkerCount      int

	computeLoad atomic.Int64
	ioLoad      atomic.Int64

	timer *timerwheel.Daemon
	reg   *registry

	nextTaskID atomic.Uint64

	metrics metrics.Provider
	logger  *slog.Logger
	clock   clockz.Clock
	tracer  *tracez.Tracer

	root       *cancelctx.Context
	rootCancel func(error)

	closed    atomic.Bool
	closeOnce sync.Once
	runWG     sync.WaitGroup
}

// New constructs and starts a Runtime: it detects CPU topology (or uses a
// caller-supplied classifier), assigns workers to the compute/I/O lanes,
// pins each worker (best-effort, Linux only), and starts the timer daemon.
func New(opts ...Option) (*Runtime, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	root, rootCancel := cancelctx.WithCancel(nil)
	rt := &Runtime{
		computeQueue: queue.New[*Task](),
		ioQueue:      queue.New[*Task](),
		reg:          newRegistry(),
		metrics:      cfg.metrics,
		logger:       cfg.logger,
		clock:        cfg.clock,
		tracer:       newTracer(),
		root:         root,
		rootCancel:   rootCancel,
	}
	rt.timer = timerwheel.NewDaemon(cfg.clock)

	cpus := computeWorkerCPUs(cfg.workers, cfg.classify)

	pin := affinity.NewPinner()
	id := 0
	for _, cpu := range cpus.compute {
		w := newWorker(id, Compute, cpu, rt, rt.computeQueue, pin)
		rt.computeWorkers = append(rt.computeWorkers, w)
		id++
	}
	for _, cpu := range cpus.io {
		w := newWorker(id, IO, cpu, rt, rt.ioQueue, pin)
		rt.ioWorkers = append(rt.ioWorkers, w)
		id++
	}
	rt.computeWorkerCount = len(rt.computeWorkers)
	rt.ioWorkerCount = len(rt.ioWorkers)

	for _, w := range rt.computeWorkers {
		rt.runWG.Add(1)
		go func(w *Worker) { defer rt.runWG.Done(); w.run() }(w)
	}
	for _, w := range rt.ioWorkers {
		rt.runWG.Add(1)
		go func(w *Worker) { defer rt.runWG.Done(); w.run() }(w)
	}

	return rt, nil
}

type workerCPUs struct {
	compute []int
	io      []int
}

// computeWorkerCPUs splits n workers alternately between the compute and I/O
// lanes and picks each worker's CPU from the SMT-sibling topology (or
// classify, if supplied), per spec.md §4.4. At
// least one worker is always assigned to each lane so dispatch never starves
// a side with zero workers.
func computeWorkerCPUs(n int, classify func(cpu int) bool) workerCPUs {
	topo, err := affinity.DetectTopology()
	if err != nil || topo.NumCPU() == 0 {
		topo = affinity.Topology{Groups: [][]int{{0}}}
	}

	var compute, io []int
	if classify != nil {
		for cpu := 0; cpu < topo.NumCPU(); cpu++ {
			if classify(cpu) {
				compute = append(compute, cpu)
			} else {
				io = append(io, cpu)
			}
		}
	} else {
		compute = topo.ComputeCPUs()
		io = topo.IOCPUs()
	}

	if len(compute) == 0 {
		compute = []int{0}
	}
	if len(io) == 0 {
		io = []int{compute[0]}
	}

	out := workerCPUs{}
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			out.compute = append(out.compute, compute[i%len(compute)])
		} else {
			out.io = append(out.io, io[i%len(io)])
		}
	}
	if len(out.compute) == 0 {
		out.compute = []int{compute[0]}
	}
	if len(out.io) == 0 {
		out.io = []int{io[0]}
	}
	return out
}

// allocTaskID issues the next process-unique TaskID. Never reused.
func (rt *Runtime) allocTaskID() TaskID {
	return TaskID(rt.nextTaskID.Add(1))
}

// spawnTask registers t and dispatches it onto the I/O-preferring (or, if
// core is true, compute-preferring) queue, waking an idle worker of that
// lane, per spec.md §4.5/§4.6.
func (rt *Runtime) spawnTask(t *Task) error {
	if rt.closed.Load() {
		return ErrRuntimeClosed
	}

	rt.reg.register(t)
	rt.metrics.Counter(metrics.TasksSpawned).Add(1)

	kind := rt.selectQueue(t.core)
	switch kind {
	case Compute:
		rt.computeLoad.Add(1)
		rt.computeQueue.Push(t)
		rt.metrics.UpDownCounter(metrics.QueueDepthCompute).Add(1)
		rt.awakeComputeWorkerOnce()
	case IO:
		rt.ioLoad.Add(1)
		rt.ioQueue.Push(t)
		rt.metrics.UpDownCounter(metrics.QueueDepthIO).Add(1)
		rt.awakeIOWorkerOnce()
	}
	return nil
}

func (rt *Runtime) unregisterTask(t *Task) {
	rt.reg.unregister(t)
}

func (rt *Runtime) decLoad(kind WorkerKind) {
	switch kind {
	case Compute:
		rt.computeLoad.Add(-1)
		rt.metrics.UpDownCounter(metrics.QueueDepthCompute).Add(-1)
	case IO:
		rt.ioLoad.Add(-1)
		rt.metrics.UpDownCounter(metrics.QueueDepthIO).Add(-1)
	}
}

func (rt *Runtime) awakeComputeWorkerOnce() {
	for _, w := range rt.computeWorkers {
		w.wake()
		return
	}
}

func (rt *Runtime) awakeIOWorkerOnce() {
	for _, w := range rt.ioWorkers {
		w.wake()
		return
	}
}

// AwakeAll wakes every worker on both lanes, used when the caller knows
// multiple tasks became runnable at once (e.g. a Barrier release).
func (rt *Runtime) AwakeAll() {
	for _, w := range rt.computeWorkers {
		w.wake()
	}
	for _, w := range rt.ioWorkers {
		w.wake()
	}
}

// Workers returns every worker in the runtime, compute lane first.
func (rt *Runtime) Workers() []*Worker {
	out := make([]*Worker, 0, len(rt.computeWorkers)+len(rt.ioWorkers))
	out = append(out, rt.computeWorkers...)
	out = append(out, rt.ioWorkers...)
	return out
}

// Timer exposes the runtime's timer daemon, e.g. for cancelctx.WithTimeout.
func (rt *Runtime) Timer() *timerwheel.Daemon { return rt.timer }

// Metrics returns the runtime's metrics.Provider.
func (rt *Runtime) Metrics() metrics.Provider { return rt.metrics }

// Tracer returns the runtime's tracez.Tracer, recording one span per task
// execution (taskExecuteSpan); callers can pull completed spans off it for
// export the same way zoobzio-pipz's connectors expose theirs.
func (rt *Runtime) Tracer() *tracez.Tracer { return rt.tracer }

// RootContext returns the runtime's root cancellation context: the ancestor
// of every task's cancellation source, cancelled once by Shutdown.
func (rt *Runtime) RootContext() *cancelctx.Context { return rt.root }

// Shutdown runs the runtime's close sequence, ordered the way the teacher's
// lifecycleCoordinator orders its own: stop accepting new work, cancel the
// root context (so every still-running task observes cancellation the next
// time it checks), close both dispatch queues, wake every parked worker so
// it notices the close, then wait for all worker goroutines to drain before
// stopping the timer daemon. Safe to call more than once; ctx bounds only
// the final wait, not the teardown itself.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	rt.closeOnce.Do(func() {
		rt.closed.Store(true)
		rt.rootCancel(ErrRuntimeClosed)
		rt.computeQueue.StopSender()
		rt.ioQueue.StopSender()
		rt.AwakeAll()
	})

	done := make(chan struct{})
	go func() { rt.runWG.Wait(); close(done) }()

	select {
	case <-done:
		rt.timer.Stop()
		return nil
	case <-ctx.Done():
		rt.timer.Stop()
		return ctx.Err()
	}
}
