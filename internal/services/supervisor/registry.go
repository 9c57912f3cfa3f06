package supervisor

import (
	"fmt"
	"sync"
	"time"
)

// Task is one registry entry: a live worker process and when it started.
type Task struct {
	ID        string
	Process   *Process
	StartedAt time.Time
}

// Registry is the in-memory task table, the single source of truth for
// "is this task currently running from this server instance's point of view".
// Its lifecycle is the service uptime; nothing is persisted. All
// read-modify-write sequences run under one mutex so concurrent launch
// requests for the same id cannot race the prune/check/register sequence.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

// NewRegistry creates an empty task registry
func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[string]*Task),
	}
}

// Register prunes finished entries, then registers the process under the
// given id. Pruning first means a stale exited process never blocks a new
// launch. If a live entry remains for the id, ErrConflict is returned and
// ownership of the process is NOT taken; the caller holds a worker it must
// not have started, so handlers check the registry before launching.
func (r *Registry) Register(id string, proc *Process) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked()

	if _, exists := r.tasks[id]; exists {
		return fmt.Errorf("%w: %s", ErrConflict, id)
	}

	r.tasks[id] = &Task{
		ID:        id,
		Process:   proc,
		StartedAt: time.Now(),
	}
	return nil
}

// Running reports whether a live (not yet exited) entry exists for the id.
// Finished entries are pruned as a side effect, so the answer never reflects
// a stale exited process.
func (r *Registry) Running(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked()

	_, exists := r.tasks[id]
	return exists
}

// Get returns the entry for the id, if present.
func (r *Registry) Get(id string) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	return task, ok
}

// Pop removes and returns the entry for the id.
func (r *Registry) Pop(id string) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if ok {
		delete(r.tasks, id)
	}
	return task, ok
}

// Reap removes and returns the entry for the id only if its worker has
// exited. Poll and delete happen in one critical section: a relaunch that
// replaced the entry between the caller's earlier poll and this call leaves
// the live worker untouched, and the caller falls back to the filesystem.
// This is the reap point; any later poll finds the id absent.
func (r *Registry) Reap(id string) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, false
	}
	if exited, _ := task.Process.Poll(); !exited {
		return nil, false
	}
	delete(r.tasks, id)
	return task, true
}

// PruneFinished removes entries whose worker has exited and returns how many
// were removed.
func (r *Registry) PruneFinished() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pruneLocked()
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// pruneLocked removes exited entries. Caller must hold the mutex.
func (r *Registry) pruneLocked() int {
	pruned := 0
	for id, task := range r.tasks {
		if exited, _ := task.Process.Poll(); exited {
			delete(r.tasks, id)
			pruned++
		}
	}
	return pruned
}
