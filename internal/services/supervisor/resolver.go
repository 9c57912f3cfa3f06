package supervisor

import (
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// State is the derived task state. It is never stored; every status query
// recomputes it from the registry, the process, and the filesystem.
type State string

const (
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateError    State = "error"
	StateNotFound State = "not_found"
)

// Status is the result of one status poll.
type Status struct {
	State          State
	ElapsedSeconds int    // populated while running
	ArtifactURL    string // populated on complete
	Detail         string // populated on error
}

// Resolver derives a task's current state. Because the artifact filename is
// the task id, a completed task remains discoverable from the filesystem even
// after a restart wipes the registry.
type Resolver struct {
	registry  *Registry
	artifacts *ArtifactStore
	logger    arbor.ILogger
}

// NewResolver creates a status resolver over the given registry and artifact
// store.
func NewResolver(registry *Registry, artifacts *ArtifactStore, logger arbor.ILogger) *Resolver {
	return &Resolver{
		registry:  registry,
		artifacts: artifacts,
		logger:    logger,
	}
}

// Status resolves the state of a task id:
//
//  1. Not in the registry: the artifact probe distinguishes a completed task
//     (possibly from a previous server instance) from an unknown or
//     already-reaped-as-error one.
//  2. In the registry, still running: report elapsed time.
//  3. In the registry, exited: reap the entry, then classify. Complete
//     requires BOTH a zero exit status and the artifact on disk; a worker
//     that exits zero without writing its artifact broke its contract and is
//     reported as an error.
//
// The poll that observes the exit is the one that reaps; a concurrent poll
// arriving after the reap falls through to the filesystem path.
func (r *Resolver) Status(id string) Status {
	task, ok := r.registry.Get(id)
	if !ok {
		return r.statusFromArtifact(id)
	}

	exited, _ := task.Process.Poll()
	if !exited {
		return Status{
			State:          StateRunning,
			ElapsedSeconds: int(time.Since(task.StartedAt) / time.Second),
		}
	}

	// Reap re-checks the exit under the registry mutex: if another poll
	// already reaped, or a relaunch replaced the entry with a live worker
	// between the poll above and here, nothing is removed and the
	// filesystem answers instead.
	reaped, ok := r.registry.Reap(id)
	if !ok {
		return r.statusFromArtifact(id)
	}

	// The reaped entry may be a different (also exited) worker than the one
	// polled above; classify from its own exit result.
	_, exitErr := reaped.Process.Poll()

	if exitErr == nil && r.artifacts.Exists(id) {
		r.logger.Info().Str("task_id", id).Msg("Task completed")
		return Status{
			State:       StateComplete,
			ArtifactURL: r.artifacts.URL(id),
		}
	}

	detail := workerFailureDetail(reaped.Process, exitErr)
	r.logger.Warn().Str("task_id", id).Str("detail", detail).Msg("Task failed")
	return Status{
		State:  StateError,
		Detail: detail,
	}
}

// statusFromArtifact is the restart-recovery path: with no registry entry,
// only a successful completion is still observable.
func (r *Resolver) statusFromArtifact(id string) Status {
	if r.artifacts.Exists(id) {
		return Status{
			State:       StateComplete,
			ArtifactURL: r.artifacts.URL(id),
		}
	}
	return Status{State: StateNotFound}
}

// workerFailureDetail assembles the diagnostic text for a failed worker from
// its exit error and captured output streams.
func workerFailureDetail(proc *Process, exitErr error) string {
	var parts []string

	if exitErr != nil {
		parts = append(parts, exitErr.Error())
	} else {
		parts = append(parts, "worker exited successfully but produced no artifact")
	}

	if stderr := strings.TrimSpace(proc.Stderr()); stderr != "" {
		parts = append(parts, "stderr: "+stderr)
	}
	if stdout := strings.TrimSpace(proc.Stdout()); stdout != "" {
		parts = append(parts, "stdout: "+stdout)
	}

	return strings.Join(parts, "; ")
}
