package taskloom

import "context"

// Gather awaits every future concurrently and returns their results in the
// same order, or the first error encountered (others' results, if any, are
// still returned alongside it so a caller can inspect partial progress).
// Grounded on spec.md §4.8's barrier/gather convenience built atop the
// per-task await primitive rather than a dedicated runtime construct.
func Gather[R any](ctx context.Context, futures ...*Future[R]) ([]R, error) {
	results := make([]R, len(futures))
	errs := make([]error, len(futures))

	done := make(chan int, len(futures))
	for i, f := range futures {
		go func(i int, f *Future[R]) {
			v, err := f.Await(ctx)
			results[i] = v
			errs[i] = err
			done <- i
		}(i, f)
	}

	var firstErr error
	for range futures {
		i := <-done
		if errs[i] != nil && firstErr == nil {
			firstErr = errs[i]
		}
	}
	return results, firstErr
}
