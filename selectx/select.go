// Package selectx implements the runtime's select multiplexor: race N
// heterogeneous branches under a shared cancellation, deliver the first
// success, discard the rest.
//
// Grounded on zoobzio-pipz's Race connector (race.go): launch every branch
// under a context derived via context.WithCancel, collect results on a
// buffered channel, and the first nil-error result calls cancel() and
// returns immediately while stragglers find the context already done. Per
// spec.md §4.10 the winner first "acquires a shared binary barrier
// (try-acquire)" before acting on its win — realized here with a syncx.Mutex
// so a genuine race between two branches finishing back-to-back still
// admits exactly one winner.
package selectx

import (
	"context"
	"errors"

	"github.com/taskloom/taskloom/syncx"
)

// Namespace prefixes this package's sentinel errors.
const Namespace = "selectx"

// ErrNoBranches is returned by Of when called with no branches.
var ErrNoBranches = errors.New(Namespace + ": no branches")

// Branch is one arm of a select, run under a context that is cancelled the
// moment any branch (including this one) wins or the caller's ctx ends.
type Branch func(ctx context.Context) (any, error)

// Result is the tagged-union outcome of Of: Index identifies which branch in
// the call won, Value is that branch's payload.
type Result struct {
	Index int
	Value any
}

// Of races every branch concurrently. The first branch to return a nil
// error wins: its result is returned, every other branch's context is
// cancelled, and their eventual results (successful or not) are discarded.
// If every branch fails, Of returns the first error observed. If ctx is
// done before any branch completes, Of returns ctx.Err().
func Of(ctx context.Context, branches ...Branch) (Result, error) {
	if len(branches) == 0 {
		return Result{}, ErrNoBranches
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	barrier := syncx.NewMutex() // try-acquire gate: exactly one branch wins

	type outcome struct {
		idx   int
		value any
		err   error
	}
	results := make(chan outcome, len(branches))

	for i, branch := range branches {
		go func(idx int, b Branch) {
			v, err := b(raceCtx)
			select {
			case results <- outcome{idx: idx, value: v, err: err}:
			case <-raceCtx.Done():
			}
		}(i, branch)
	}

	var firstErr error
	for range branches {
		select {
		case res := <-results:
			if res.err != nil {
				if firstErr == nil {
					firstErr = res.err
				}
				continue
			}
			if !barrier.TryLock() {
				// Another branch already claimed the win in the same
				// instant; this one's result is discarded.
				continue
			}
			cancel()
			return Result{Index: res.idx, Value: res.value}, nil
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	if firstErr != nil {
		return Result{}, firstErr
	}
	return Result{}, ctx.Err()
}
