//go:build !linux

package affinity

import "runtime"

// noopPinner is used on platforms without sched_setaffinity; Pin always
// succeeds without doing anything, matching the teacher-grounded "not fatal"
// posture for affinity failures.
type noopPinner struct{}

// NewPinner returns a no-op Pinner outside Linux.
func NewPinner() Pinner { return noopPinner{} }

func (noopPinner) Pin(int) error { return nil }

// DetectTopology returns one single-CPU group per GOMAXPROCS slot, since
// SMT-sibling detection has no portable non-Linux source.
func DetectTopology() (Topology, error) {
	n := runtime.GOMAXPROCS(0)
	groups := make([][]int, n)
	for i := range groups {
		groups[i] = []int{i}
	}
	return Topology{Groups: groups}, nil
}
