package supervisor

import "errors"

var (
	// ErrInvalidParameters indicates malformed job parameters; nothing was launched.
	ErrInvalidParameters = errors.New("invalid job parameters")

	// ErrConflict indicates a live task with the same id is already registered.
	// The caller should keep polling the existing id instead of relaunching.
	ErrConflict = errors.New("task already running")

	// ErrPrerequisiteMissing indicates required configuration (feed
	// credentials) is absent, so no worker can be launched.
	ErrPrerequisiteMissing = errors.New("required configuration missing")

	// ErrLaunchFailure indicates the worker process could not be spawned.
	ErrLaunchFailure = errors.New("failed to launch worker process")

	// ErrWorkerFailure indicates a worker or pipeline process ran but did
	// not produce a usable result.
	ErrWorkerFailure = errors.New("worker failed")

	// ErrNotFound indicates no artifact matched a locate request.
	ErrNotFound = errors.New("artifact not found")
)
