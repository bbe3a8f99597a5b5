package syncx

import (
	"context"
	"sync"
)

// Barrier holds width arrivers until all have arrived, then releases them
// together. Per spec.md §4.7: "the Nth arriver releases N-1 permits on a
// counting semaphore" — the Nth arriver itself proceeds without acquiring,
// having already counted as the arrival that completed the generation.
type Barrier struct {
	mu         sync.Mutex
	width      int
	count      int
	generation uint64
	sem        *Semaphore
}

// NewBarrier returns a barrier that releases every width-th generation of
// arrivals together.
func NewBarrier(width int) *Barrier {
	max := int64(width - 1)
	if max < 1 {
		max = 1
	}
	return &Barrier{width: width, sem: NewSemaphoreN(0, max)}
}

// Arrive blocks until width arrivals (across all callers) have accumulated
// in the current generation, then returns the generation number that was
// completed. The width-th caller to arrive in a generation returns
// immediately, having released the other width-1.
func (b *Barrier) Arrive(ctx context.Context) (uint64, error) {
	b.mu.Lock()
	b.count++
	gen := b.generation
	if b.count == b.width {
		b.count = 0
		b.generation++
		b.mu.Unlock()
		if b.width > 1 {
			b.sem.Release(int64(b.width - 1))
		}
		return gen, nil
	}
	b.mu.Unlock()

	if err := b.sem.AcquireContext(ctx); err != nil {
		return gen, err
	}
	return gen, nil
}
