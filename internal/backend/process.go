// Package backend owns the lifecycle of a locally spawned backend process.
// The owner object replaces any global child-process handle: it is created
// explicitly, injected where needed, and offers clear start, running-check,
// and terminate-with-grace-period operations.
package backend

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"texedit/internal/logger"
)

// Process manages one backend child process.
type Process struct {
	mu sync.Mutex

	name  string
	args  []string
	grace time.Duration

	cmd  *exec.Cmd
	done chan struct{}

	log *log.Logger
}

// NewProcess prepares a process owner for the given command line. The grace
// period bounds how long Stop waits for a clean exit before force-killing.
func NewProcess(cmdline string, grace time.Duration) (*Process, error) {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return nil, fmt.Errorf("backend command line cannot be empty")
	}
	return &Process{
		name:  fields[0],
		args:  fields[1:],
		grace: grace,
		log:   logger.NewStyledLogger("Backend"),
	}, nil
}

// Start launches the backend process. Starting an already-running process
// is an error.
func (p *Process) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return fmt.Errorf("backend process already started")
	}

	cmd := exec.CommandContext(ctx, p.name, p.args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start backend process: %w", err)
	}

	p.cmd = cmd
	p.done = make(chan struct{})
	done := p.done

	go func() {
		_ = cmd.Wait()
		close(done)
	}()

	p.log.Info("Backend process started", "pid", cmd.Process.Pid, "command", p.name)
	return nil
}

// Running reports whether the child process is alive.
func (p *Process) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Stop asks the process to exit, waits for the grace period, and
// force-kills if it does not comply. Stopping a process that never started
// or already exited is a no-op.
func (p *Process) Stop() error {
	p.mu.Lock()
	cmd := p.cmd
	done := p.done
	p.mu.Unlock()

	if cmd == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	default:
	}

	p.log.Info("Stopping backend process", "pid", cmd.Process.Pid, "grace", p.grace.String())
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		// Signalling can fail if the process just exited; fall through
		// to the grace wait either way.
		p.log.Debug("Interrupt signal failed", "error", err)
	}

	select {
	case <-done:
		p.log.Info("Backend process exited cleanly")
		return nil
	case <-time.After(p.grace):
	}

	p.log.Warn("Backend process did not exit in time, killing")
	if err := cmd.Process.Kill(); err != nil {
		return fmt.Errorf("failed to kill backend process: %w", err)
	}
	<-done
	return nil
}
