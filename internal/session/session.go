// Package session owns the interactive process bound to a shell pane.
//
// A Session spawns a long-lived shell on the first command and writes every
// later command to the same process, so shell state (variables, working
// directory) carries across commands. Output is read by one drain goroutine
// per process and handed to the UI loop as Events through a Sink; the drain
// never touches pane state.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"unicode/utf8"

	"panemux/internal/pane"
	"panemux/internal/pty"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"pkt.systems/pslog"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// EventKind distinguishes drain events.
type EventKind int

const (
	// EventOutput carries a chunk of process output.
	EventOutput EventKind = iota
	// EventExited reports that the process stream ended.
	EventExited
	// EventFailed reports a fault inside the drain worker.
	EventFailed
)

// Event is the only message a drain worker sends to the UI loop.
type Event struct {
	PaneID pane.ID
	Kind   EventKind
	Text   string
}

// Sink accepts drain events. Post blocks until the event is queued or ctx is
// done and reports whether the event was queued.
type Sink interface {
	Post(ctx context.Context, ev Event) bool
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) bool

func (f SinkFunc) Post(ctx context.Context, ev Event) bool { return f(ctx, ev) }

const readChunkSize = 4096

// MaxCommandBytes caps one dispatched command. Commands are written from the
// UI goroutine, so a line larger than the stdin pipe buffer could block it
// while the shell waits on output only the UI can drain.
const MaxCommandBytes = 16 << 10

// ErrCommandTooLong is returned by Dispatch for commands over MaxCommandBytes.
var ErrCommandTooLong = fmt.Errorf("command longer than %d bytes", MaxCommandBytes)

// DefaultShell is used when Options.Shell is empty.
const DefaultShell = "/bin/sh"

// Options configures a Session.
type Options struct {
	Runner pty.Runner
	Sink   Sink
	Shell  string
	Args   []string
	Dir    string
	Env    []string
	Logger pslog.Logger
	Tracer trace.Tracer
}

// Session is the lifecycle wrapper around one interactive process.
type Session struct {
	id     string
	paneID pane.ID
	opts   Options

	mu     sync.Mutex
	state  State
	proc   pty.Process
	gen    int
	cancel context.CancelFunc
	closed bool
}

// New creates a session for a shell pane. No process is started until the
// first Dispatch.
func New(paneID pane.ID, opts Options) *Session {
	if opts.Runner == nil {
		opts.Runner = pty.PipeRunner{}
	}
	if opts.Shell == "" {
		opts.Shell = DefaultShell
	}
	if opts.Sink == nil {
		opts.Sink = SinkFunc(func(context.Context, Event) bool { return true })
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("panemux/session")
	}
	s := &Session{
		id:     uuid.NewString(),
		paneID: paneID,
		opts:   opts,
	}
	if opts.Logger != nil {
		s.opts.Logger = opts.Logger.With("session", s.id, "pane", paneID.String())
	}
	return s
}

func (s *Session) ID() string      { return s.id }
func (s *Session) PaneID() pane.ID { return s.paneID }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pid returns the process id of the running process, or 0.
func (s *Session) Pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc == nil || s.state != StateRunning {
		return 0
	}
	return s.proc.Pid()
}

// Dispatch sends command to the session's process, spawning it first when the
// session is not running. It reports whether a new process was started.
func (s *Session) Dispatch(ctx context.Context, command string) (spawned bool, err error) {
	ctx, span := s.opts.Tracer.Start(ctx, "session.dispatch",
		trace.WithAttributes(attribute.String("panemux.session.id", s.id)))
	defer func() {
		span.SetAttributes(attribute.Bool("panemux.session.spawned", spawned))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if len(command)+1 > MaxCommandBytes {
		return false, ErrCommandTooLong
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, errors.New("session closed")
	}

	if s.state == StateRunning && s.proc != nil {
		if !s.proc.Exited() {
			werr := writeLine(s.proc.Stdin(), command)
			if werr == nil {
				s.logDebug("session command", "command", command)
				return false, nil
			}
			s.logInfo("session write failed, respawning", "err", werr)
		}
		s.stopLocked()
	}

	if err := s.spawnLocked(ctx); err != nil {
		return false, err
	}
	if err := writeLine(s.proc.Stdin(), command); err != nil {
		return true, fmt.Errorf("write command: %w", err)
	}
	s.logDebug("session command", "command", command)
	return true, nil
}

// Close terminates the process and cancels its drain. Output not yet read is
// discarded. Close is idempotent; a closed session cannot be reused.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.stopLocked()
	s.logInfo("session closed")
	return err
}

func (s *Session) spawnLocked(ctx context.Context) error {
	_, span := s.opts.Tracer.Start(ctx, "session.spawn",
		trace.WithAttributes(attribute.String("panemux.shell", s.opts.Shell)))
	defer span.End()

	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.Command(s.opts.Shell, s.opts.Args...)
	cmd.Dir = s.opts.Dir
	if len(s.opts.Env) > 0 {
		cmd.Env = append(cmd.Environ(), s.opts.Env...)
	}
	proc, err := s.opts.Runner.Start(procCtx, cmd)
	if err != nil {
		cancel()
		s.state = StateTerminated
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logInfo("session spawn failed", "shell", s.opts.Shell, "err", err)
		return fmt.Errorf("failed to start shell %s: %w", s.opts.Shell, err)
	}

	s.gen++
	s.proc = proc
	s.cancel = cancel
	s.state = StateRunning
	span.SetAttributes(attribute.Int("panemux.pid", proc.Pid()))
	s.logInfo("session started", "shell", s.opts.Shell, "pid", proc.Pid())

	go s.drain(procCtx, proc, s.gen)
	return nil
}

// stopLocked terminates the current process, if any.
func (s *Session) stopLocked() error {
	if s.proc == nil {
		if s.state == StateRunning {
			s.state = StateTerminated
		}
		return nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	err := s.proc.Terminate()
	s.proc = nil
	s.state = StateTerminated
	return err
}

// drain reads the merged output of proc until EOF and posts it in order.
func (s *Session) drain(ctx context.Context, proc pty.Process, gen int) {
	defer func() {
		if r := recover(); r != nil {
			s.opts.Sink.Post(ctx, Event{
				PaneID: s.paneID,
				Kind:   EventFailed,
				Text:   fmt.Sprintf("session worker panic: %v", r),
			})
			s.exited(proc, gen)
		}
	}()

	br := bufio.NewReaderSize(proc.Output(), readChunkSize)
	buf := make([]byte, readChunkSize)
	var carry []byte
	for {
		n, err := br.Read(buf)
		if n > 0 || (err != nil && len(carry) > 0) {
			var text string
			text, carry = completeRunes(append(carry, buf[:n]...), err != nil)
			if text != "" && !s.opts.Sink.Post(ctx, Event{PaneID: s.paneID, Kind: EventOutput, Text: text}) {
				// Cancelled: the pane is going away, remaining output is dropped.
				s.exited(proc, gen)
				return
			}
		}
		if err != nil {
			waitErr := proc.Wait()
			if ctx.Err() == nil {
				text := "[process exited]"
				if waitErr != nil {
					text = fmt.Sprintf("[process exited: %v]", waitErr)
				}
				s.opts.Sink.Post(ctx, Event{PaneID: s.paneID, Kind: EventExited, Text: text})
			}
			s.exited(proc, gen)
			return
		}
	}
}

// exited releases proc and moves the session to Terminated if proc is still
// the current process.
func (s *Session) exited(proc pty.Process, gen int) {
	proc.Terminate()
	proc.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.proc != proc {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.proc = nil
	s.state = StateTerminated
	s.logInfo("session exited", "pid", proc.Pid())
}

// completeRunes splits b into the longest prefix that does not end inside a
// UTF-8 sequence and the remaining bytes. At EOF everything is returned.
func completeRunes(b []byte, eof bool) (string, []byte) {
	if eof {
		return string(b), nil
	}
	end := len(b)
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				end = i
			}
			break
		}
	}
	rest := append([]byte(nil), b[end:]...)
	return string(b[:end]), rest
}

// writeLine writes command and a newline. Callers keep command under
// MaxCommandBytes so the write fits in the pipe buffer.
func writeLine(w io.Writer, command string) error {
	if _, err := io.WriteString(w, command+"\n"); err != nil {
		return err
	}
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func (s *Session) logInfo(msg string, kv ...any) {
	if s.opts.Logger != nil {
		s.opts.Logger.Info(msg, kv...)
	}
}

func (s *Session) logDebug(msg string, kv ...any) {
	if s.opts.Logger != nil {
		s.opts.Logger.Debug(msg, kv...)
	}
}
