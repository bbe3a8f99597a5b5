package taskloom

import "sync"

// registry is the runtime's process-wide task index: three maps guarded by
// one reader/writer lock, per spec.md §3's "by-task-id, by-handle,
// id-by-handle" (Go has no separate coroutine-handle object distinct from
// the task pointer itself, so "by-handle" becomes "by-task-pointer" here —
// SPEC_FULL.md §3). Entries are inserted on task creation and removed when
// the task completes or is explicitly unregistered.
type registry struct {
	mu sync.RWMutex

	byID          map[TaskID]*Task
	byPointer     map[*Task]TaskID
	idByPointer   map[*Task]TaskID // kept distinct from byPointer per spec.md's three-map shape
}

func newRegistry() *registry {
	return &registry{
		byID:        make(map[TaskID]*Task),
		byPointer:   make(map[*Task]TaskID),
		idByPointer: make(map[*Task]TaskID),
	}
}

func (r *registry) register(t *Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[t.id] = t
	r.byPointer[t] = t.id
	r.idByPointer[t] = t.id
}

func (r *registry) unregister(t *Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, t.id)
	delete(r.byPointer, t)
	delete(r.idByPointer, t)
}

func (r *registry) lookup(id TaskID) (*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byID[id]
	return t, ok
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
