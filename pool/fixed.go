package pool

// fixed is a bounded pool: it never holds more than capacity live values at
// once, creating new ones via newFn only until that ceiling is reached and
// blocking Get thereafter until a Put frees one up. It suits records such as
// task records, where an unbounded pool would let a burst of spawns outrun
// the workers' ability to drain them.
type fixed[T any] struct {
	available chan T
	all       chan T
	buf       chan T
	newFn     func() T
}

// NewFixed returns a Pool that never creates more than capacity values of T.
// Get blocks once capacity values are all checked out and none have been put
// back.
func NewFixed[T any](capacity uint, newFn func() T) Pool[T] {
	return &fixed[T]{
		available: make(chan T, capacity),
		all:       make(chan T, capacity),
		buf:       make(chan T, 1024),
		newFn:     newFn,
	}
}

func (p *fixed[T]) Get() T {
	select {
	case el := <-p.available:
		return el

	case el := <-p.buf:
		return el

	default:
		var el T

		select {
		case p.all <- el:
			return p.newFn()
		case el = <-p.available:
			return el
		}
	}
}

func (p *fixed[T]) Put(el T) {
	select {
	case p.available <- el:
	default:
	}
}
