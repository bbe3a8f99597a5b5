// Package taskloom is an asynchronous task runtime: a multi-threaded
// cooperative scheduler that runs tasks with structured concurrency,
// cancellation, timers, lock-free message passing, and a façade for
// asynchronous file I/O.
//
// Constructors
//   - New(opts ...Option): builds and starts a Runtime.
//
// Defaults
// Unless overridden, the following defaults apply to a newly created Runtime:
//   - Workers: runtime.NumCPU()
//   - Logger: a discarding *slog.Logger (library code never logs by default)
//   - Metrics: metrics.NewNoopProvider()
//   - Clock: the real wall clock (github.com/zoobzio/clockz.RealClock)
//
// Tasks and futures
// Spawn launches a function as an independent task and returns a Future[R]
// whose Await delivers the function's result or rethrows its error. Go is a
// thin alias for Spawn matching the "fire and await later" idiom.
//
// Dispatch
// Every spawned task lands on one of two dispatch queues (compute, I/O)
// chosen by a load-ratio heuristic (see dispatch.go); a Worker goroutine per
// queue-affine CPU drains its share and runs tasks, tracking them in active
// and suspended tables for diagnostics and cross-worker migration.
package taskloom
