package pool

import "sync"

// dynamic wraps sync.Pool to give it the Pool[T] shape: unlike fixed, it has
// no ceiling on live values and lets the garbage collector reclaim idle ones
// under memory pressure. It suits values such as continuous-queue frames,
// where the right pool depth varies with burst size and isn't worth bounding.
type dynamic[T any] struct {
	p *sync.Pool
}

// NewDynamic is an unbounded pool of values of T, backed by sync.Pool.
func NewDynamic[T any](newFn func() T) Pool[T] {
	return &dynamic[T]{p: &sync.Pool{New: func() any { return newFn() }}}
}

func (d *dynamic[T]) Get() T {
	return d.p.Get().(T)
}

func (d *dynamic[T]) Put(el T) {
	d.p.Put(el)
}
