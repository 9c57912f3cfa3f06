package supervisor

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Process is the handle for a launched worker. It is owned exclusively by the
// registry entry: nothing else may wait on or terminate the child.
//
// Exit status is observed only through the non-blocking Poll; a reaper
// goroutine performs the actual wait so pollers never block on the child.
type Process struct {
	cmd     *exec.Cmd
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	started time.Time

	mu      sync.Mutex
	exited  bool
	exitErr error
}

// Launch starts a worker process without waiting for it. Standard output and
// error are captured into buffers for later diagnostics rather than inherited.
// env entries ("KEY=value") are appended to the parent environment so the
// worker sees the caller's runtime settings. A spawn failure is reported as
// ErrLaunchFailure and leaves no handle behind.
func Launch(name string, args []string, dir string, env []string) (*Process, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	p := &Process{
		cmd:     cmd,
		started: time.Now(),
	}
	cmd.Stdout = &p.stdout
	cmd.Stderr = &p.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLaunchFailure, name, err)
	}

	go p.reap()

	return p, nil
}

// reap waits for the child and records its exit result. exec.Cmd finishes
// copying into the output buffers before Wait returns, so once Poll reports
// the exit the buffers are complete and safe to read.
func (p *Process) reap() {
	err := p.cmd.Wait()

	p.mu.Lock()
	p.exited = true
	p.exitErr = err
	p.mu.Unlock()
}

// Poll reports, without blocking, whether the process has exited and with
// what result. exitErr is nil for a zero exit status.
func (p *Process) Poll() (exited bool, exitErr error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exited, p.exitErr
}

// Kill forcefully terminates the child. The reaper goroutine still records
// the resulting exit, so the process is not left as a zombie.
func (p *Process) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// StartedAt returns the launch time.
func (p *Process) StartedAt() time.Time {
	return p.started
}

// Stdout returns the captured standard output. Only meaningful after Poll
// has reported the exit.
func (p *Process) Stdout() string {
	return p.stdout.String()
}

// Stderr returns the captured standard error. Only meaningful after Poll
// has reported the exit.
func (p *Process) Stderr() string {
	return p.stderr.String()
}
