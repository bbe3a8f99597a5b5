package taskloom

// selectQueue sends a new task to the lane with the lower per-worker load
// (in-flight tasks divided by that lane's worker count, compared by
// cross-multiplication). The I/O-preferring variant chooses I/O when
// compute_count * io_load <= io_count * compute_load, otherwise compute; the
// compute-preferring ("core") variant chooses compute when
// io_count * compute_load <= compute_count * io_load, otherwise I/O. Each
// variant therefore keeps its own lane on a tie. Because tasks run to completion on a single worker unless
// explicitly migrated, this coarse heuristic needs no per-task accounting.
func (rt *Runtime) selectQueue(core bool) WorkerKind {
	if rt.ioWorkerCount == 0 {
		return Compute
	}
	if rt.computeWorkerCount == 0 {
		return IO
	}

	ioCount := int64(rt.ioWorkerCount)
	computeCount := int64(rt.computeWorkerCount)
	ioLoad := rt.ioLoad.Load()
	computeLoad := rt.computeLoad.Load()

	if core {
		if ioCount*computeLoad <= computeCount*ioLoad {
			return Compute
		}
		return IO
	}
	if computeCount*ioLoad <= ioCount*computeLoad {
		return IO
	}
	return Compute
}
