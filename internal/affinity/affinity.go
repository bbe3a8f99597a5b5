// Package affinity pins worker goroutines to specific logical CPUs and
// classifies CPUs into compute/IO lanes by SMT sibling grouping.
//
// Grounded on ehrlich-b/go-ublk's queue runner
// (other_examples/31c3f1e2_ehrlich-b-go-ublk__internal-queue-runner.go.go),
// which locks its I/O loop to an OS thread with runtime.LockOSThread and then
// calls golang.org/x/sys/unix.SchedSetaffinity to pin that thread to one CPU,
// logging and continuing on failure rather than treating it as fatal. Pinning
// is Linux-only; other platforms get a no-op Pin so the rest of the runtime
// never needs a build tag of its own.
package affinity

// Pinner pins the calling OS thread to a logical CPU. Callers must already
// hold runtime.LockOSThread for the goroutine making the call, since affinity
// is a per-thread, not per-goroutine, OS property.
type Pinner interface {
	// Pin restricts the calling thread to cpu. Failure is reported but never
	// fatal: a worker that can't pin still runs, just without the affinity
	// benefit.
	Pin(cpu int) error
}

// Topology describes how logical CPUs group into SMT siblings, used to split
// workers between compute and I/O lanes: one sibling per core goes to compute,
// the rest to I/O, so a core's full throughput isn't claimed by a single lane.
type Topology struct {
	// Groups lists logical CPU ids, one slice per physical core.
	Groups [][]int
}

// NumCPU returns the number of logical CPUs the topology spans.
func (t Topology) NumCPU() int {
	n := 0
	for _, g := range t.Groups {
		n += len(g)
	}
	return n
}

// ComputeCPUs returns one representative CPU per physical core, suitable for
// pinning compute-lane workers so each gets a full core's throughput.
func (t Topology) ComputeCPUs() []int {
	out := make([]int, 0, len(t.Groups))
	for _, g := range t.Groups {
		if len(g) > 0 {
			out = append(out, g[0])
		}
	}
	return out
}

// IOCPUs returns the remaining SMT siblings not claimed by ComputeCPUs,
// suitable for I/O-lane workers that block on external collaborators more
// than they burn CPU.
func (t Topology) IOCPUs() []int {
	var out []int
	for _, g := range t.Groups {
		if len(g) > 1 {
			out = append(out, g[1:]...)
		}
	}
	return out
}
