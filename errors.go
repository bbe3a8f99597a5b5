package taskloom

import "errors"

// Namespace prefixes every sentinel error this package returns, following
// ygrebnov-workers' "<namespace>: <reason>" error-string convention.
const Namespace = "taskloom"

var (
	// ErrRuntimeClosed is returned by Await on the Future of a task spawned
	// once the owning Runtime has begun or completed shutdown.
	ErrRuntimeClosed = errors.New(Namespace + ": runtime is closed")

	// ErrTaskCancelled is the reason Task.Cancel records on the task's
	// cancellation source; an awaiter sees whatever error the task body returns.
	ErrTaskCancelled = errors.New(Namespace + ": task execution cancelled")

	// ErrTaskPanicked wraps a recovered panic from inside a task body.
	ErrTaskPanicked = errors.New(Namespace + ": task execution panicked")

	// ErrChannelClosed is returned by Channel.Send when the channel has been
	// closed from the sender side. Channel.Recv reports a closed and fully
	// drained channel with ok == false and a nil error instead.
	ErrChannelClosed = errors.New(Namespace + ": channel closed")

	// ErrAlreadyAwaiting is returned by Future.Await when a second caller
	// tries to await the same spawn future concurrently; only one caller may
	// own the suspend/resume protocol for a given task.
	ErrAlreadyAwaiting = errors.New(Namespace + ": future is already being awaited")

	// ErrInvalidConfig is returned by New when option validation fails.
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")
)
