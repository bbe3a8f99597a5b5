// Package pool provides reusable object pools, a bounded one (NewFixed) and an
// unbounded one (NewDynamic). No other package of this module uses them; the
// runtime allocates its task records and continuous-queue frames directly.
//
// Adapted from ygrebnov-workers' worker pool (pool.go/fixed.go/dynamic.go),
// generalized from interface{} to a type parameter so callers get back a
// concretely typed value instead of needing a type assertion on every Get.
package pool

// Pool hands out and reclaims values of type T.
type Pool[T any] interface {
	// Get returns a value from the pool, creating one via the pool's
	// construction function if none is available for reuse.
	Get() T

	// Put returns a value to the pool for future reuse.
	Put(T)
}
