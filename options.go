package taskloom

import (
	"io"
	"log/slog"
	"runtime"

	"github.com/zoobzio/clockz"

	"github.com/taskloom/taskloom/metrics"
)

// config holds Runtime configuration assembled by New's functional options,
// following ygrebnov-workers' options.go/config.go split: a private config
// struct mutated by exported Option functions, validated once before the
// object it configures is constructed.
type config struct {
	workers int

	logger  *slog.Logger
	metrics metrics.Provider
	clock   clockz.Clock

	classify func(cpu int) bool // nil selects the default SMT-sibling classifier
}

func defaultConfig() config {
	return config{
		workers: runtime.NumCPU(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: metrics.NewNoopProvider(),
		clock:   clockz.RealClock,
	}
}

func validateConfig(cfg *config) error {
	if cfg.workers <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Option configures a Runtime. Use New(opts...) to construct one.
type Option func(*config)

// WithWorkers sets the total number of worker goroutines the Runtime starts,
// alternating between the compute and I/O dispatch queues; SMT-sibling
// classification only picks the CPU each worker is pinned to.
// Default: runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithLogger sets the *slog.Logger the Runtime and its workers use for
// structured diagnostics. Default: a discarding logger — library code never
// logs unless the caller opts in, matching frankenasync's pattern of only
// wiring a real handler at the process entry point.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the metrics.Provider instruments are recorded through.
// Default: metrics.NewNoopProvider().
func WithMetrics(p metrics.Provider) Option {
	return func(c *config) {
		if p != nil {
			c.metrics = p
		}
	}
}

// WithClock injects the clockz.Clock used by the Runtime's timer daemon.
// Default: clockz.RealClock. Tests substitute clockz.NewFakeClock() for
// deterministic timer-driven scenarios.
func WithClock(clock clockz.Clock) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithWorkerClassification overrides the default SMT-sibling-based
// compute/I/O CPU classifier: fn(cpu) reports whether cpu serves the compute
// lane. The default policy (SPEC_FULL.md §7 Open Question 2) gives the first
// CPU of each physical core to compute and that core's remaining SMT siblings
// to I/O; a core without siblings adds only a compute CPU, and when no I/O CPU
// results the I/O lane reuses the first compute CPU. Test environments that
// cannot read /sys/devices/system/cpu (CI containers, non-Linux) use this to
// supply their own answer.
func WithWorkerClassification(fn func(cpu int) bool) Option {
	return func(c *config) { c.classify = fn }
}
