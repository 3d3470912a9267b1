// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/preview/runner.go
// Summary: Live preview process runner: one detached preview at a time.
// Usage: Start replaces the running preview; Stop ends it on shutdown.
// Notes: Each preview runs in its own process group so helper children die
//   with it. Exit status is reported to the log from a monitor goroutine.

package preview

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultGrace is how long Stop waits after SIGTERM before SIGKILL.
const DefaultGrace = 500 * time.Millisecond

// ErrEmptyCommand is returned for a blank command line.
var ErrEmptyCommand = errors.New("preview: empty command")

// Runner owns the currently running preview process.
type Runner struct {
	shell string
	grace time.Duration
	log   *log.Logger

	mu      sync.Mutex
	current *process
	started int
}

type process struct {
	cmd    *exec.Cmd
	exited chan struct{}
	err    error
}

// NewRunner returns a runner that executes command lines with /bin/sh -c.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{shell: "/bin/sh", grace: DefaultGrace, log: logger.WithPrefix("preview")}
}

// SetGrace changes the SIGTERM to SIGKILL wait used by Stop and Start.
func (r *Runner) SetGrace(d time.Duration) {
	r.mu.Lock()
	r.grace = d
	r.mu.Unlock()
}

// Start stops the running preview, if any, and starts commandLine with env
// appended to the current environment.
func (r *Runner) Start(commandLine string, env ...string) error {
	if commandLine == "" {
		return ErrEmptyCommand
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()

	cmd := exec.Command(r.shell, "-c", commandLine)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("preview: start: %w", err)
	}
	p := &process{cmd: cmd, exited: make(chan struct{})}
	r.current = p
	r.started++
	r.log.Debug("started", "pid", cmd.Process.Pid, "cmd", commandLine)

	go func() {
		p.err = cmd.Wait()
		close(p.exited)
		if p.err != nil {
			r.log.Debug("exited", "pid", cmd.Process.Pid, "err", p.err)
		} else {
			r.log.Debug("exited", "pid", cmd.Process.Pid)
		}
	}()
	return nil
}

// Running reports whether the current preview has not exited yet.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return false
	}
	select {
	case <-r.current.exited:
		return false
	default:
		return true
	}
}

// Started counts the previews started so far.
func (r *Runner) Started() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Wait blocks until the current preview exits and returns its error.
func (r *Runner) Wait() error {
	r.mu.Lock()
	p := r.current
	r.mu.Unlock()
	if p == nil {
		return nil
	}
	<-p.exited
	return p.err
}

// Stop terminates the running preview and waits for it to exit.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Runner) stopLocked() {
	p := r.current
	if p == nil {
		return
	}
	r.current = nil
	pid := p.cmd.Process.Pid
	select {
	case <-p.exited:
		return
	default:
	}
	_ = signalGroup(pid, syscall.SIGTERM)
	select {
	case <-p.exited:
	case <-time.After(r.grace):
		r.log.Warn("grace elapsed, killing", "pid", pid)
		_ = signalGroup(pid, syscall.SIGKILL)
		<-p.exited
	}
}

func signalGroup(pid int, sig syscall.Signal) error {
	return syscall.Kill(-pid, sig)
}
