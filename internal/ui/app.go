package ui

import (
	"context"

	"panemux/internal/engine"
	"panemux/internal/pane"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"pkt.systems/pslog"
)

// statusHeight is the number of rows below the grid.
const statusHeight = 1

// Options configures a Model.
type Options struct {
	Logger     pslog.Logger
	BatchLimit int
}

// Model is the root tea.Model. It owns no pane state of its own: everything
// is read from and written to the engine.
type Model struct {
	ctx        context.Context
	engine     *engine.Engine
	dispatcher *engine.Dispatcher
	sched      *TeaScheduler
	logger     pslog.Logger
	batchLimit int

	views  map[pane.ID]*PaneView
	help   help.Model
	width  int
	height int
	bounds []Bounds
}

var _ tea.Model = (*Model)(nil)

// NewModel creates the root model. sched must be the scheduler the engine's
// responders were built with.
func NewModel(ctx context.Context, e *engine.Engine, d *engine.Dispatcher, sched *TeaScheduler, opts Options) *Model {
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = DefaultBatchLimit
	}
	return &Model{
		ctx:        ctx,
		engine:     e,
		dispatcher: d,
		sched:      sched,
		logger:     opts.Logger,
		batchLimit: opts.BatchLimit,
		views:      make(map[pane.ID]*PaneView),
		help:       newHelp(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.listen()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.relayout()
		return m, nil

	case tea.KeyMsg:
		ev := keyEvent(msg)
		res := m.dispatcher.HandleKey(m.ctx, ev)
		if res.Action == engine.ActionQuit {
			return m, tea.Quit
		}
		if !res.Consumed {
			if v := m.focusedView(); v != nil {
				v.HandleKey(ev)
			}
		}
		switch res.Action {
		case engine.ActionAddPane, engine.ActionRemovePane, engine.ActionZoom:
			m.relayout()
		}
		m.logDebug("key", "key", ev.Key, "action", res.Action.String())
		return m, m.sched.Flush()

	case tea.MouseMsg:
		if i := pointerIndex(msg, m.bounds); i >= 0 {
			m.dispatcher.HandlePointer(engine.PointerEvent{Index: i})
			return m, nil
		}
		if k, ok := wheelKey(msg); ok {
			if i := hitTest(m.bounds, msg.X, msg.Y); i >= 0 && i < m.engine.Len() {
				if v := m.view(m.engine.Panes()[i]); v != nil {
					v.HandleKey(engine.KeyEvent{Key: k})
				}
			}
		}
		return m, nil

	case OutputBatchMsg:
		m.engine.Apply(msg.Events)
		return m, m.listen()

	case timerMsg:
		m.sched.Fire(msg.id)
		return m, m.sched.Flush()

	case ConfigReloadMsg:
		if msg.Keys != nil {
			m.dispatcher.SetKeyMap(*msg.Keys)
		}
		if msg.Responder != nil {
			m.engine.SetResponderConfig(*msg.Responder)
		}
		m.logInfo("config reloaded")
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	m.relayout()

	focused := m.engine.FocusedIndex()
	panes := m.engine.Panes()
	var cols []string
	var cells []string
	lastX := -1
	for _, b := range m.bounds {
		if b.X != lastX && len(cells) > 0 {
			cols = append(cols, lipgloss.JoinVertical(lipgloss.Left, cells...))
			cells = nil
		}
		lastX = b.X
		cells = append(cells, m.view(panes[b.Index]).Render(b.Width, b.Height, b.Index == focused))
	}
	if len(cells) > 0 {
		cols = append(cols, lipgloss.JoinVertical(lipgloss.Left, cells...))
	}
	grid := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	running, _ := m.engine.Tracker().CountByState()
	status := renderStatus(m.help, m.dispatcher.KeyMap(), m.width, len(panes), running, m.engine.Zoomed())
	return grid + "\n" + status
}

// relayout recomputes cell bounds and drops views of removed panes.
func (m *Model) relayout() {
	height := max(m.height-statusHeight, 0)
	if p := m.engine.Focused(); p != nil && m.engine.Zoomed() {
		m.bounds = zoomBounds(m.engine.FocusedIndex(), p.ID(), m.width, height)
	} else {
		m.bounds = gridBounds(m.engine.Columns(), m.width, height)
	}
	live := make(map[pane.ID]bool, m.engine.Len())
	for _, p := range m.engine.Panes() {
		live[p.ID()] = true
	}
	for id := range m.views {
		if !live[id] {
			delete(m.views, id)
		}
	}
}

func (m *Model) view(p *pane.Pane) *PaneView {
	v, ok := m.views[p.ID()]
	if !ok {
		v = NewPaneView(p)
		m.views[p.ID()] = v
	}
	return v
}

func (m *Model) focusedView() *PaneView {
	p := m.engine.Focused()
	if p == nil {
		return nil
	}
	return m.view(p)
}

func (m *Model) listen() tea.Cmd {
	return listenInbox(m.engine.Inbox(), m.engine.Done(), m.batchLimit)
}

// Bounds returns the cell rectangles from the last layout.
func (m *Model) Bounds() []Bounds { return m.bounds }

func (m *Model) logInfo(msg string, kv ...any) {
	if m.logger != nil {
		m.logger.Info(msg, kv...)
	}
}

func (m *Model) logDebug(msg string, kv ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, kv...)
	}
}
