// Package pty is the operating-system boundary for shell sessions: it spawns a
// child process with a writable input stream and a single merged output stream.
package pty

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/creack/pty"
)

// Process is a running child with its input and merged output streams.
type Process interface {
	Stdin() io.Writer
	Output() io.Reader
	// Wait blocks until the process exits and releases its resources.
	Wait() error
	// Exited reports whether Wait has observed the exit.
	Exited() bool
	// Terminate kills the process (and its group where supported) and closes
	// both streams so a blocked reader returns.
	Terminate() error
	Pid() int
}

// Runner is the interface for spawning an interactive process.
// Implementations can be swapped (pipes, creack/pty, or a stub for tests).
type Runner interface {
	Start(ctx context.Context, cmd *exec.Cmd) (Process, error)
}

// PipeRunner implements Runner with plain pipes: stdout and stderr share one
// pipe, stdin is a second pipe. The child gets its own process group.
type PipeRunner struct{}

// CreackPTY implements Runner using github.com/creack/pty.
// The child sees a terminal, so interactive shells print prompts and echo input.
type CreackPTY struct {
	Rows uint16
	Cols uint16
}

var (
	_ Runner = (*PipeRunner)(nil)
	_ Runner = (*CreackPTY)(nil)
)

// Start implements Runner.
func (PipeRunner) Start(ctx context.Context, cmd *exec.Cmd) (Process, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("output pipe: %w", err)
	}
	cmd.Stdout = w
	cmd.Stderr = w
	setProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		stdin.Close()
		return nil, err
	}
	// The child holds its own copy of the write end.
	w.Close()

	p := &process{cmd: cmd, stdin: stdin, output: r, done: make(chan struct{})}
	p.closers = []io.Closer{stdin, r}
	p.kill = func() error { return killProcessGroup(cmd) }
	p.watch(ctx)
	return p, nil
}

// Start implements Runner. Spawns cmd attached to a new pseudo-terminal.
func (c *CreackPTY) Start(ctx context.Context, cmd *exec.Cmd) (Process, error) {
	ws := &pty.Winsize{Rows: c.Rows, Cols: c.Cols}
	if ws.Rows == 0 || ws.Cols == 0 {
		ws.Rows, ws.Cols = 24, 80
	}
	f, err := pty.StartWithSize(cmd, ws)
	if err != nil {
		return nil, err
	}
	p := &process{cmd: cmd, stdin: f, output: f, done: make(chan struct{})}
	p.closers = []io.Closer{f}
	// pty.Start runs the child with Setsid, so its pid is also its group id.
	p.kill = func() error { return killProcessGroup(cmd) }
	p.watch(ctx)
	return p, nil
}

type process struct {
	cmd     *exec.Cmd
	stdin   io.Writer
	output  io.Reader
	closers []io.Closer
	kill    func() error

	waitOnce  sync.Once
	waitErr   error
	done      chan struct{}
	exited    atomic.Bool
	closeOnce sync.Once
}

func (p *process) Stdin() io.Writer  { return p.stdin }
func (p *process) Output() io.Reader { return p.output }
func (p *process) Exited() bool      { return p.exited.Load() }

func (p *process) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *process) Wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
		p.exited.Store(true)
		close(p.done)
	})
	return p.waitErr
}

func (p *process) Terminate() error {
	var errs []error
	p.closeOnce.Do(func() {
		if !p.exited.Load() {
			if err := p.kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				errs = append(errs, err)
			}
		}
		for _, c := range p.closers {
			if err := c.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

// watch terminates the process when ctx is cancelled before it exits.
func (p *process) watch(ctx context.Context) {
	if ctx == nil || ctx.Done() == nil {
		return
	}
	go func() {
		select {
		case <-ctx.Done():
			p.Terminate()
		case <-p.done:
		}
	}()
}
