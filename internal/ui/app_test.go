package ui

import (
	"context"
	"strings"
	"testing"

	"panemux/internal/engine"
	"panemux/internal/pane"
	"panemux/internal/responder"
	"panemux/internal/session"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var namedKeys = map[string]tea.KeyType{
	"enter":     tea.KeyEnter,
	"esc":       tea.KeyEsc,
	"backspace": tea.KeyBackspace,
	"shift+tab": tea.KeyShiftTab,
	"pgup":      tea.KeyPgUp,
	"pgdown":    tea.KeyPgDown,
	"up":        tea.KeyUp,
	"down":      tea.KeyDown,
	"ctrl+c":    tea.KeyCtrlC,
	"ctrl+n":    tea.KeyCtrlN,
	"ctrl+p":    tea.KeyCtrlP,
	"ctrl+t":    tea.KeyCtrlT,
	"ctrl+x":    tea.KeyCtrlX,
	"ctrl+y":    tea.KeyCtrlY,
	"ctrl+z":    tea.KeyCtrlZ,
}

func keyMsg(s string) tea.KeyMsg {
	if s == "space" || s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	if t, ok := namedKeys[s]; ok {
		return tea.KeyMsg{Type: t}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T) (*Model, *engine.Engine) {
	t.Helper()
	sched := NewTeaScheduler()
	e := engine.New(engine.Options{Scheduler: sched})
	t.Cleanup(func() { e.Close() })
	m := NewModel(context.Background(), e, engine.NewDispatcher(e, engine.DefaultKeyMap()), sched, Options{})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m, e
}

func typeInto(m *Model, s string) {
	for _, r := range s {
		if r == ' ' {
			m.Update(keyMsg(" "))
			continue
		}
		m.Update(keyMsg(string(r)))
	}
}

func TestModel_AddAndRemovePanes(t *testing.T) {
	m, e := newTestModel(t)
	if len(m.Bounds()) != 2 {
		t.Fatalf("startup bounds = %d, want 2", len(m.Bounds()))
	}

	m.Update(keyMsg("ctrl+t"))
	if e.Len() != 3 || len(e.Columns()) != 2 || len(e.Columns()[1]) != 1 {
		t.Fatalf("after add: %d panes in %v", e.Len(), e.Columns())
	}
	if len(m.Bounds()) != 3 {
		t.Errorf("bounds not refreshed after add: %d", len(m.Bounds()))
	}

	m.Update(keyMsg("ctrl+x"))
	if e.Len() != 2 || len(e.Columns()) != 1 || len(e.Columns()[0]) != 2 {
		t.Fatalf("after remove: %d panes in %v", e.Len(), e.Columns())
	}
	if e.FocusedIndex() != 0 {
		t.Errorf("focus = %d after removing the focused pane, want 0", e.FocusedIndex())
	}
	if len(m.views) > 2 {
		t.Errorf("stale views kept: %d", len(m.views))
	}
}

func TestModel_ZoomFocusedPane(t *testing.T) {
	m, e := newTestModel(t)
	m.Update(keyMsg("ctrl+n"))
	m.Update(keyMsg("ctrl+z"))
	if !e.Zoomed() {
		t.Fatal("ctrl+z did not zoom")
	}
	b := m.Bounds()
	if len(b) != 1 || b[0].Index != 1 || b[0].Width != 80 || b[0].Height != 23 {
		t.Fatalf("zoomed bounds = %+v, want pane 1 over 80x23", b)
	}
	if !strings.Contains(m.View(), "│ zoom") {
		t.Error("status bar does not show the zoom")
	}

	m.Update(keyMsg("ctrl+n"))
	if e.FocusedIndex() != 1 {
		t.Errorf("focus moved to %d while zoomed", e.FocusedIndex())
	}

	m.Update(keyMsg("ctrl+t"))
	if e.Zoomed() {
		t.Error("adding a pane kept the zoom")
	}
	if len(m.Bounds()) != 3 {
		t.Errorf("bounds after add = %d, want 3", len(m.Bounds()))
	}
}

func TestModel_QuitKey(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(keyMsg("ctrl+c"))
	if cmd == nil {
		t.Fatal("ctrl+c returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("ctrl+c command returned %T, want tea.QuitMsg", cmd())
	}
}

func TestModel_MouseFocusesPane(t *testing.T) {
	m, e := newTestModel(t)
	// 80x24 with one status row: one column, panes split at row 11.
	m.Update(tea.MouseMsg{X: 10, Y: 15, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if e.FocusedIndex() != 1 {
		t.Errorf("click on lower pane: focus %d, want 1", e.FocusedIndex())
	}
	m.Update(tea.MouseMsg{X: 10, Y: 2, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	if e.FocusedIndex() != 1 {
		t.Errorf("release moved focus to %d", e.FocusedIndex())
	}
	m.Update(tea.MouseMsg{X: 10, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if e.FocusedIndex() != 0 {
		t.Errorf("click on upper pane: focus %d, want 0", e.FocusedIndex())
	}
}

func TestModel_TypingShowsInput(t *testing.T) {
	m, e := newTestModel(t)
	typeInto(m, "ls -l")
	if got := e.Focused().InputText(); got != "ls -l" {
		t.Fatalf("input = %q, want %q", got, "ls -l")
	}
	if view := m.View(); !strings.Contains(view, "assistant> ls -l") {
		t.Errorf("view does not show the input line:\n%s", view)
	}
	m.Update(keyMsg("backspace"))
	if got := e.Focused().InputText(); got != "ls -" {
		t.Errorf("after backspace input = %q", got)
	}
}

func TestModel_ResponderRunsOnTimerMessages(t *testing.T) {
	m, e := newTestModel(t)
	typeInto(m, "hi")
	_, cmd := m.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("enter on the assistant scheduled nothing")
	}
	p := e.Focused()
	if !p.Loading() {
		t.Fatal("assistant not loading after enter")
	}

	m.Update(timerMsg{id: 1})
	out := p.Output()
	if got := out[len(out)-1]; got != "Generating answer ." {
		t.Errorf("status after first tick = %q", got)
	}
	// A stale id does nothing.
	m.Update(timerMsg{id: 1})
	if got := p.Output()[len(p.Output())-1]; got != "Generating answer ." {
		t.Errorf("stale timer changed status to %q", got)
	}
	m.Update(timerMsg{id: 2})
	if got := p.Output()[len(p.Output())-1]; got != "Generating answer .." {
		t.Errorf("status after second tick = %q", got)
	}
}

func TestModel_OutputBatchIsApplied(t *testing.T) {
	m, e := newTestModel(t)
	shell := e.Panes()[1]
	_, cmd := m.Update(OutputBatchMsg{Events: []session.Event{
		{PaneID: shell.ID(), Kind: session.EventOutput, Text: "hello\nwor"},
		{PaneID: shell.ID(), Kind: session.EventOutput, Text: "ld\n"},
	}})
	if cmd == nil {
		t.Error("no follow-up listen command")
	}
	if got := shell.Output(); len(got) != 2 || got[0] != "hello" || got[1] != "world" {
		t.Errorf("shell output = %q", got)
	}
}

func TestModel_ConfigReload(t *testing.T) {
	m, e := newTestModel(t)
	keys := engine.NewKeyMap(engine.KeyConfig{AddPane: []string{"ctrl+y"}})
	cfg := responder.Config{Ticks: 2}
	m.Update(ConfigReloadMsg{Keys: &keys, Responder: &cfg})

	m.Update(keyMsg("ctrl+t"))
	if e.Len() != 2 {
		t.Errorf("old binding still adds panes")
	}
	m.Update(keyMsg("ctrl+y"))
	if e.Len() != 3 {
		t.Errorf("new binding did not add a pane")
	}
}

func TestModel_ViewFitsWindow(t *testing.T) {
	m, e := newTestModel(t)
	e.AddPane(pane.KindShell)
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})

	view := m.View()
	if h := lipgloss.Height(view); h != 20 {
		t.Errorf("view height = %d, want 20", h)
	}
	if w := lipgloss.Width(view); w > 60 {
		t.Errorf("view width = %d, want <= 60", w)
	}
	if !strings.Contains(view, "3 panes") {
		t.Errorf("status bar missing pane count:\n%s", view)
	}
}

func TestListenInbox_BatchesQueuedEvents(t *testing.T) {
	e := engine.New(engine.Options{Scheduler: NewTeaScheduler()})
	defer e.Close()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		e.Post(ctx, session.Event{PaneID: 2, Text: "x"})
	}

	msg := listenInbox(e.Inbox(), e.Done(), 2)()
	batch, ok := msg.(OutputBatchMsg)
	if !ok || len(batch.Events) != 2 {
		t.Fatalf("first batch = %#v, want 2 events", msg)
	}
	msg = listenInbox(e.Inbox(), e.Done(), 10)()
	if batch, ok := msg.(OutputBatchMsg); !ok || len(batch.Events) != 1 {
		t.Fatalf("second batch = %#v, want 1 event", msg)
	}

	e.Close()
	if msg := listenInbox(e.Inbox(), e.Done(), 10)(); msg != nil {
		t.Errorf("listen after close = %#v, want nil", msg)
	}
}

func TestKeyEvent(t *testing.T) {
	ev := keyEvent(keyMsg("a"))
	if ev.Key != "a" || string(ev.Runes) != "a" {
		t.Errorf("rune key = %+v", ev)
	}
	ev = keyEvent(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}, Alt: true})
	if ev.Key != "alt+x" || len(ev.Runes) != 0 {
		t.Errorf("alt key = %+v", ev)
	}
	ev = keyEvent(keyMsg("shift+tab"))
	if ev.Key != "shift+tab" || ev.Runes != nil {
		t.Errorf("shift+tab = %+v", ev)
	}
	ev = keyEvent(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("pasted"), Paste: true})
	if ev.Key != "paste" || string(ev.Runes) != "pasted" {
		t.Errorf("paste = %+v", ev)
	}
}
