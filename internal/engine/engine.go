// Package engine owns the panes of a panemux screen.
//
// Engine is the single writer of pane, layout, session-binding and responder
// state: every method must be called from one goroutine, normally the UI
// loop. Session drain goroutines reach the engine only through Post, which
// queues an event in a bounded inbox that the loop later applies.
package engine

import (
	"context"
	"fmt"
	"strconv"

	"panemux/internal/layout"
	"panemux/internal/pane"
	"panemux/internal/pty"
	"panemux/internal/responder"
	"panemux/internal/session"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"pkt.systems/pslog"
)

// DefaultQueueSize is the inbox capacity when Options.QueueSize is unset.
const DefaultQueueSize = 256

// StartedMessage is written to a shell pane when its process is spawned.
const StartedMessage = "Started interactive session"

// Options configures an Engine.
type Options struct {
	Logger pslog.Logger
	Tracer trace.Tracer

	// Shell process settings, passed to every session.
	Runner pty.Runner
	Shell  string
	Args   []string
	Dir    string
	Env    []string

	Scheduler responder.Scheduler
	Responder responder.Config

	QueueSize int
}

// Engine holds the panes, their grid and the per-pane workers.
type Engine struct {
	opts   Options
	logger pslog.Logger
	tracer trace.Tracer

	panes      []*pane.Pane
	live       map[pane.ID]bool
	nextID     pane.ID
	grid       layout.Grid
	tracker    *session.Tracker
	responders map[pane.ID]*responder.Responder

	inbox  chan session.Event
	done   chan struct{}
	closed bool
}

var _ session.Sink = (*Engine)(nil)

// New creates an engine with the startup panes: an assistant and a shell.
func New(opts Options) *Engine {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("panemux/engine")
	}
	if opts.Scheduler == nil {
		opts.Scheduler = &responder.ManualScheduler{}
	}
	e := &Engine{
		opts:       opts,
		logger:     opts.Logger,
		tracer:     opts.Tracer,
		live:       make(map[pane.ID]bool),
		nextID:     1,
		responders: make(map[pane.ID]*responder.Responder),
		inbox:      make(chan session.Event, opts.QueueSize),
		done:       make(chan struct{}),
	}
	e.tracker = session.NewTracker(e.liveness)

	e.addPane(pane.KindAssistant, "")
	e.addPane(pane.KindShell, "")
	e.grid.Relayout(e.ids())
	return e
}

// Panes returns the panes in insertion order.
func (e *Engine) Panes() []*pane.Pane {
	out := make([]*pane.Pane, len(e.panes))
	copy(out, e.panes)
	return out
}

// Len returns the number of panes.
func (e *Engine) Len() int { return len(e.panes) }

// Pane returns the live pane with the given id.
func (e *Engine) Pane(id pane.ID) (*pane.Pane, bool) {
	for _, p := range e.panes {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}

// Focused returns the focused pane.
func (e *Engine) Focused() *pane.Pane {
	i := e.grid.FocusedIndex()
	if i < 0 || i >= len(e.panes) {
		return nil
	}
	return e.panes[i]
}

// FocusedIndex returns the insertion-order index of the focused pane.
func (e *Engine) FocusedIndex() int { return e.grid.FocusedIndex() }

// Columns returns the pane grid.
func (e *Engine) Columns() [][]pane.ID { return e.grid.Columns() }

// Tracker exposes the session tracker for status reporting.
func (e *Engine) Tracker() *session.Tracker { return e.tracker }

// SetResponderConfig applies new reply pacing to every assistant pane.
func (e *Engine) SetResponderConfig(cfg responder.Config) {
	e.opts.Responder = cfg
	for _, r := range e.responders {
		r.SetConfig(cfg)
	}
}

// AddPane appends a pane of the given kind. Focus does not move.
func (e *Engine) AddPane(kind pane.Kind) *pane.Pane {
	title := kind.DefaultTitle() + " " + strconv.Itoa(int(e.nextID))
	p := e.addPane(kind, title)
	e.grid.Relayout(e.ids())
	e.logDebug("pane added", "pane", p.ID().String(), "kind", kind.String())
	return p
}

func (e *Engine) addPane(kind pane.Kind, title string) *pane.Pane {
	p := pane.New(e.nextID, kind, title)
	e.nextID++
	e.panes = append(e.panes, p)
	e.live[p.ID()] = true
	if kind == pane.KindAssistant {
		e.responders[p.ID()] = responder.New(p, e.opts.Scheduler, responder.Options{
			Config: e.opts.Responder,
			Logger: e.opts.Logger,
			Tracer: e.tracer,
		})
	}
	return p
}

// RemovePane destroys the pane at index. It refuses to remove the last pane
// or an out-of-range index. The pane's responder is cancelled and its session
// closed before the pane leaves the grid, so no later callback or drained
// output can reach it.
func (e *Engine) RemovePane(ctx context.Context, index int) bool {
	if len(e.panes) <= 1 || index < 0 || index >= len(e.panes) {
		return false
	}
	p := e.panes[index]
	_, span := e.tracer.Start(ctx, "engine.remove_pane",
		trace.WithAttributes(attribute.String("panemux.pane", p.ID().String())))
	defer span.End()

	if r, ok := e.responders[p.ID()]; ok {
		r.Cancel()
		delete(e.responders, p.ID())
	}
	delete(e.live, p.ID())
	e.panes = append(e.panes[:index], e.panes[index+1:]...)
	if n, err := e.tracker.Prune(); err != nil {
		e.logInfo("session close failed", "pane", p.ID().String(), "err", err)
	} else if n > 0 {
		e.logDebug("sessions pruned", "count", n)
	}
	e.grid.Relayout(e.ids())
	e.logDebug("pane removed", "pane", p.ID().String(), "kind", p.Kind().String())
	return true
}

// RemoveFocused removes the focused pane.
func (e *Engine) RemoveFocused(ctx context.Context) bool {
	return e.RemovePane(ctx, e.grid.FocusedIndex())
}

// MoveFocus moves focus one step in dir.
func (e *Engine) MoveFocus(dir layout.Direction) { e.grid.Move(dir) }

// ToggleZoom shows the focused pane alone, or the whole grid again. Adding
// or removing a pane clears the zoom.
func (e *Engine) ToggleZoom() bool { return e.grid.ToggleZoom() }

// Zoomed reports whether only the focused pane is shown.
func (e *Engine) Zoomed() bool { return e.grid.Zoomed() }

// FocusIndex focuses the pane at index. Returns false if it does not exist.
func (e *Engine) FocusIndex(index int) bool { return e.grid.SetFocusIndex(index) }

// Execute submits the focused pane's input and dispatches the command to the
// pane's session or responder. It returns false when nothing was dispatched:
// the line was buffered as a continuation or the pane is busy.
func (e *Engine) Execute(ctx context.Context) bool {
	p := e.Focused()
	if p == nil {
		return false
	}
	command, ok := p.Submit()
	if !ok {
		return false
	}
	switch p.Kind() {
	case pane.KindAssistant:
		r, ok := e.responders[p.ID()]
		if !ok {
			return false
		}
		return r.Dispatch(ctx, command)
	default:
		e.dispatchShell(ctx, p, command)
		return true
	}
}

func (e *Engine) dispatchShell(ctx context.Context, p *pane.Pane, command string) {
	p.AppendLine(p.Prompt() + command)

	s, ok := e.tracker.Get(p.ID())
	if !ok {
		s = session.New(p.ID(), session.Options{
			Runner: e.opts.Runner,
			Sink:   e,
			Shell:  e.opts.Shell,
			Args:   e.opts.Args,
			Dir:    e.opts.Dir,
			Env:    e.opts.Env,
			Logger: e.opts.Logger,
			Tracer: e.tracer,
		})
		e.tracker.Register(s)
	}
	spawned, err := s.Dispatch(ctx, command)
	if err != nil {
		p.AppendLine("error: " + err.Error())
		e.logInfo("shell dispatch failed", "pane", p.ID().String(), "err", err)
		return
	}
	if spawned {
		p.AppendLine(StartedMessage)
	}
}

// Post implements session.Sink. It blocks until the event is queued, ctx is
// done or the engine is closed.
func (e *Engine) Post(ctx context.Context, ev session.Event) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.inbox <- ev:
		return true
	case <-ctx.Done():
		return false
	case <-e.done:
		return false
	}
}

// Inbox returns the receive side of the event queue.
func (e *Engine) Inbox() <-chan session.Event { return e.inbox }

// Done is closed when the engine is closed.
func (e *Engine) Done() <-chan struct{} { return e.done }

// Apply writes drained events into their panes. Events for panes that are no
// longer live are dropped. It returns the number of events applied.
func (e *Engine) Apply(events []session.Event) int {
	applied := 0
	for _, ev := range events {
		if !e.live[ev.PaneID] {
			continue
		}
		p, ok := e.Pane(ev.PaneID)
		if !ok {
			continue
		}
		switch ev.Kind {
		case session.EventOutput:
			p.Write(ev.Text)
		case session.EventExited:
			p.AppendLine(ev.Text)
		case session.EventFailed:
			p.AppendLine("error: " + ev.Text)
			e.logInfo("session worker failed", "pane", ev.PaneID.String(), "err", ev.Text)
		default:
			continue
		}
		applied++
	}
	return applied
}

// DrainPending applies every event already queued, without blocking.
func (e *Engine) DrainPending() int {
	var batch []session.Event
	for {
		select {
		case ev := <-e.inbox:
			batch = append(batch, ev)
		default:
			return e.Apply(batch)
		}
	}
}

// Close cancels every responder and closes every session. The inbox stays
// open so late drain posts fail on Done rather than panic.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	for id, r := range e.responders {
		r.Cancel()
		delete(e.responders, id)
	}
	close(e.done)
	if err := e.tracker.CloseAll(); err != nil {
		return fmt.Errorf("close sessions: %w", err)
	}
	return nil
}

func (e *Engine) ids() []pane.ID {
	out := make([]pane.ID, len(e.panes))
	for i, p := range e.panes {
		out[i] = p.ID()
	}
	return out
}

// liveness reports live panes to the session tracker.
func (e *Engine) liveness() map[pane.ID]bool {
	out := make(map[pane.ID]bool, len(e.live))
	for id := range e.live {
		out[id] = true
	}
	return out
}

func (e *Engine) logInfo(msg string, kv ...any) {
	if e.logger != nil {
		e.logger.Info(msg, kv...)
	}
}

func (e *Engine) logDebug(msg string, kv ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, kv...)
	}
}
