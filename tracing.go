package taskloom

import "github.com/zoobzio/tracez"

// Span keys and tags for task execution, following zoobzio-pipz's
// connectors (timeout.go, retry.go): one process span per task execution,
// tagged with outcome, grounded the same way their tracer fields are
// constructed and finished around a unit of work.
const (
	taskExecuteSpan = tracez.Key("taskloom.task.execute")

	tagTaskID  = tracez.Tag("task.id")
	tagWorker  = tracez.Tag("task.worker")
	tagKind    = tracez.Tag("task.worker_kind")
	tagOutcome = tracez.Tag("task.outcome")
	tagError   = tracez.Tag("task.error")
)

// newTracer constructs the runtime's tracer; every Runtime builds its tracer
// through it.
func newTracer() *tracez.Tracer { return tracez.New() }
