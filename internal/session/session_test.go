package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"panemux/internal/pane"
	"panemux/internal/pty"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(DefaultShell); err != nil {
		t.Skipf("%s not available: %v", DefaultShell, err)
	}
}

// chanSink collects drain events in a buffered channel.
func chanSink(ch chan Event) Sink {
	return SinkFunc(func(ctx context.Context, ev Event) bool {
		select {
		case ch <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// waitOutput accumulates output events until want appears.
func waitOutput(t *testing.T, ch <-chan Event, want string) string {
	t.Helper()
	var got strings.Builder
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == EventOutput {
				got.WriteString(ev.Text)
				if strings.Contains(got.String(), want) {
					return got.String()
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q, got %q", want, got.String())
		}
	}
}

func waitEvent(t *testing.T, ch <-chan Event, kind EventKind) Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event kind %d", kind)
		}
	}
}

func TestSession_StatePersistsAcrossCommands(t *testing.T) {
	requireShell(t)
	events := make(chan Event, 64)
	s := New(pane.ID(1), Options{Sink: chanSink(events)})
	t.Cleanup(func() { s.Close() })
	assert.Equal(t, StateNotStarted, s.State())

	spawned, err := s.Dispatch(context.Background(), "x=5")
	require.NoError(t, err)
	assert.True(t, spawned)
	assert.Equal(t, StateRunning, s.State())
	pid := s.Pid()
	assert.NotZero(t, pid)

	spawned, err = s.Dispatch(context.Background(), `echo "x is $x"`)
	require.NoError(t, err)
	assert.False(t, spawned, "second command reuses the process")
	assert.Equal(t, pid, s.Pid())

	waitOutput(t, events, "x is 5")
}

func TestSession_WorkingDirectoryPersists(t *testing.T) {
	requireShell(t)
	dir := t.TempDir()
	events := make(chan Event, 64)
	s := New(pane.ID(1), Options{Sink: chanSink(events)})
	t.Cleanup(func() { s.Close() })

	_, err := s.Dispatch(context.Background(), "cd "+dir)
	require.NoError(t, err)
	_, err = s.Dispatch(context.Background(), "pwd")
	require.NoError(t, err)

	waitOutput(t, events, filepath.Base(dir))
}

func TestSession_StderrIsMerged(t *testing.T) {
	requireShell(t)
	events := make(chan Event, 64)
	s := New(pane.ID(1), Options{Sink: chanSink(events)})
	t.Cleanup(func() { s.Close() })

	_, err := s.Dispatch(context.Background(), "echo oops 1>&2")
	require.NoError(t, err)
	waitOutput(t, events, "oops")
}

func TestSession_RespawnsAfterExit(t *testing.T) {
	requireShell(t)
	events := make(chan Event, 64)
	s := New(pane.ID(1), Options{Sink: chanSink(events)})
	t.Cleanup(func() { s.Close() })

	_, err := s.Dispatch(context.Background(), "exit 3")
	require.NoError(t, err)

	ev := waitEvent(t, events, EventExited)
	assert.Equal(t, pane.ID(1), ev.PaneID)
	assert.Contains(t, ev.Text, "[process exited")
	assert.Contains(t, ev.Text, "3")
	require.Eventually(t, func() bool { return s.State() == StateTerminated }, 5*time.Second, 10*time.Millisecond)

	spawned, err := s.Dispatch(context.Background(), "echo again")
	require.NoError(t, err)
	assert.True(t, spawned, "a terminated session respawns")
	waitOutput(t, events, "again")
}

func TestSession_SpawnFailure(t *testing.T) {
	s := New(pane.ID(2), Options{Shell: "/nonexistent/panemux-shell"})
	spawned, err := s.Dispatch(context.Background(), "echo hi")
	require.Error(t, err)
	assert.False(t, spawned)
	assert.Contains(t, err.Error(), "failed to start shell")
	assert.Equal(t, StateTerminated, s.State())
}

func TestSession_CloseCancelsDrain(t *testing.T) {
	requireShell(t)
	events := make(chan Event, 1)
	s := New(pane.ID(3), Options{Sink: chanSink(events)})

	_, err := s.Dispatch(context.Background(), "while :; do echo tick; done")
	require.NoError(t, err)
	waitOutput(t, events, "tick")

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
	assert.Equal(t, StateTerminated, s.State())

	// Drop whatever was queued before Close, then nothing else may arrive.
	drainFor(events, 200*time.Millisecond)
	select {
	case ev := <-events:
		if ev.Kind == EventExited {
			t.Errorf("closed session posted an exit event: %+v", ev)
		}
	case <-time.After(100 * time.Millisecond):
	}

	_, err = s.Dispatch(context.Background(), "echo no")
	assert.Error(t, err, "closed session refuses commands")
	assert.NoError(t, s.Close(), "Close is idempotent")
}

func drainFor(ch <-chan Event, d time.Duration) {
	deadline := time.After(d)
	for {
		select {
		case <-ch:
		case <-deadline:
			return
		}
	}
}

// stubProcess is a pty.Process whose output comes from an arbitrary reader.
type stubProcess struct {
	out    io.Reader
	mu     sync.Mutex
	stdin  bytes.Buffer
	done   chan struct{}
	once   sync.Once
	exited atomic.Bool
}

func newStubProcess(out io.Reader) *stubProcess {
	return &stubProcess{out: out, done: make(chan struct{})}
}

func (p *stubProcess) Stdin() io.Writer  { return writerFunc(p.write) }
func (p *stubProcess) Output() io.Reader { return p.out }
func (p *stubProcess) Exited() bool      { return p.exited.Load() }
func (p *stubProcess) Pid() int          { return 4242 }

func (p *stubProcess) Wait() error {
	<-p.done
	p.exited.Store(true)
	return nil
}

func (p *stubProcess) Terminate() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

func (p *stubProcess) write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stdin.Write(b)
}

func (p *stubProcess) written() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stdin.String()
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) { return f(b) }

type stubRunner struct {
	proc  *stubProcess
	err   error
	calls int
}

func (r *stubRunner) Start(ctx context.Context, cmd *exec.Cmd) (pty.Process, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.proc, nil
}

type panicReader struct{}

func (panicReader) Read([]byte) (int, error) { panic("boom") }

func TestSession_DrainPanicBecomesEvent(t *testing.T) {
	events := make(chan Event, 8)
	proc := newStubProcess(panicReader{})
	s := New(pane.ID(7), Options{Runner: &stubRunner{proc: proc}, Sink: chanSink(events)})

	_, err := s.Dispatch(context.Background(), "ls")
	require.NoError(t, err)

	ev := waitEvent(t, events, EventFailed)
	assert.Equal(t, pane.ID(7), ev.PaneID)
	assert.Equal(t, "session worker panic: boom", ev.Text)
	require.Eventually(t, func() bool { return s.State() == StateTerminated }, 5*time.Second, 10*time.Millisecond)
}

func TestSession_WritesCommandWithNewline(t *testing.T) {
	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })
	proc := newStubProcess(r)
	runner := &stubRunner{proc: proc}
	s := New(pane.ID(1), Options{Runner: runner})
	t.Cleanup(func() { s.Close() })

	_, err := s.Dispatch(context.Background(), "first")
	require.NoError(t, err)
	_, err = s.Dispatch(context.Background(), "second")
	require.NoError(t, err)

	assert.Equal(t, "first\nsecond\n", proc.written())
	assert.Equal(t, 1, runner.calls)
}

func TestSession_RejectsOversizedCommand(t *testing.T) {
	r, w := io.Pipe()
	t.Cleanup(func() { w.Close() })
	proc := newStubProcess(r)
	runner := &stubRunner{proc: proc}
	s := New(pane.ID(1), Options{Runner: runner})
	t.Cleanup(func() { s.Close() })

	_, err := s.Dispatch(context.Background(), strings.Repeat("x", MaxCommandBytes))
	require.ErrorIs(t, err, ErrCommandTooLong)
	assert.Equal(t, 0, runner.calls)
	assert.Equal(t, StateNotStarted, s.State())

	limit := strings.Repeat("x", MaxCommandBytes-1)
	spawned, err := s.Dispatch(context.Background(), limit)
	require.NoError(t, err)
	assert.True(t, spawned)
	assert.Equal(t, limit+"\n", proc.written())
}

func TestSession_RunnerErrorIsWrapped(t *testing.T) {
	boom := errors.New("no fork for you")
	s := New(pane.ID(1), Options{Runner: &stubRunner{err: boom}})
	_, err := s.Dispatch(context.Background(), "ls")
	require.ErrorIs(t, err, boom)
}

func TestCompleteRunes(t *testing.T) {
	euro := []byte("€") // 3 bytes
	text, rest := completeRunes(append([]byte("a"), euro[:2]...), false)
	assert.Equal(t, "a", text)
	assert.Equal(t, euro[:2], rest)

	text, rest = completeRunes(append(rest, euro[2:]...), false)
	assert.Equal(t, "€", text)
	assert.Empty(t, rest)

	text, rest = completeRunes(euro[:1], true)
	assert.Equal(t, string(euro[:1]), text)
	assert.Nil(t, rest)
}
