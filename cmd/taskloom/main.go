// Command taskloom is the process entry point described by spec.md §6: a
// synchronous main that initialises the runtime, spawns the user's async
// main, and synchronously awaits its result. Grounded on frankenasync's
// main.go for the ambient stack (godotenv, slog+tint, signal-driven
// shutdown) — the HTTP/FrankenPHP specifics there don't apply here, only the
// logging/config/shutdown shape.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/taskloom/taskloom"
	"github.com/taskloom/taskloom/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	workers := defaultWorkers()
	if v := os.Getenv("TASKLOOM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			workers = n
		}
	}

	// TASKLOOM_METRICS=basic swaps the default no-op metrics.Provider for an
	// in-memory one and prints a snapshot at shutdown — the demo surface for
	// metrics.BasicProvider, which has no other production call site.
	var basicMetrics *metrics.BasicProvider
	opts := []taskloom.Option{
		taskloom.WithWorkers(workers),
		taskloom.WithLogger(logger),
	}
	if os.Getenv("TASKLOOM_METRICS") == "basic" {
		basicMetrics = metrics.NewBasicProvider()
		opts = append(opts, taskloom.WithMetrics(basicMetrics))
	}

	rt, err := taskloom.New(opts...)
	if err != nil {
		logger.Error("failed to start runtime", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code, err := runAsyncMain(ctx, rt)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := rt.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("runtime shutdown did not complete cleanly", "error", shutdownErr)
	}

	if basicMetrics != nil {
		logBasicMetricsSnapshot(logger, basicMetrics)
	}

	if err != nil {
		printTaskFailure(err)
		return 1
	}
	return code
}

// logBasicMetricsSnapshot reads back the counters metrics.BasicProvider
// accumulated over the run and logs them, the way a caller who opted into
// BasicProvider instead of a real metrics backend would.
func logBasicMetricsSnapshot(logger *slog.Logger, p *metrics.BasicProvider) {
	spawned := p.Counter(metrics.TasksSpawned).(*metrics.BasicCounter).Snapshot()
	completed := p.Counter(metrics.TasksCompleted).(*metrics.BasicCounter).Snapshot()
	failed := p.Counter(metrics.TasksFailed).(*metrics.BasicCounter).Snapshot()
	logger.Info("task metrics",
		"spawned", spawned,
		"completed", completed,
		"failed", failed,
	)
}

// defaultWorkers mirrors frankenasync's CPU-proportional default: one worker
// per CPU reported by runtime.NumCPU, and at least one.
func defaultWorkers() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

// runAsyncMain spawns the user's async entry point and awaits it, matching
// spec.md §6's "spawns the user's async main, and synchronously awaits its
// result". The demo body here stands in for an application-supplied
// function; embedding programs replace it.
func runAsyncMain(ctx context.Context, rt *taskloom.Runtime) (code int, err error) {
	f := taskloom.Spawn[int](rt, ctx, func(ctx context.Context) (int, error) {
		return 0, nil
	})
	return f.Await(ctx)
}

// printTaskFailure renders an uncaught async-main error the way spec.md §6
// describes for fatal panics: "[runtime] panic: <message>" plus a
// multi-line trace. Task panics arrive already wrapped in
// taskloom.ErrTaskPanicked; everything else is printed as a plain
// diagnostic with the await-chain, when available.
func printTaskFailure(err error) {
	if errors.Is(err, taskloom.ErrTaskPanicked) {
		fmt.Fprintf(os.Stderr, "[runtime] panic: %v\n%s\n", err, debug.Stack())
		return
	}
	fmt.Fprintf(os.Stderr, "[runtime] error: %v\n", err)
	if chain, ok := taskloom.ExtractCallerChain(err); ok {
		fmt.Fprintf(os.Stderr, "await chain: %v\n", chain)
	}
}
