package engine

import (
	"context"

	"panemux/internal/layout"
	"panemux/internal/pane"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// KeyEvent is a keypress in toolkit-neutral form. Key uses the
// "ctrl+x" / "shift+tab" / "enter" notation; Runes carries typed text.
type KeyEvent struct {
	Key   string
	Runes []rune
}

// String implements fmt.Stringer so KeyEvent works with key.Matches.
func (k KeyEvent) String() string { return k.Key }

// PointerEvent is a pointer press resolved to a pane index.
type PointerEvent struct {
	Index int
}

// Action identifies what the dispatcher did with an event.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionFocusNext
	ActionFocusPrev
	ActionExecute
	ActionAddPane
	ActionRemovePane
	ActionFocusPane
	ActionEdit
	ActionZoom
)

var actionNames = map[Action]string{
	ActionNone:       "none",
	ActionQuit:       "quit",
	ActionFocusNext:  "focus-next",
	ActionFocusPrev:  "focus-prev",
	ActionExecute:    "execute",
	ActionAddPane:    "add-pane",
	ActionRemovePane: "remove-pane",
	ActionFocusPane:  "focus-pane",
	ActionEdit:       "edit",
	ActionZoom:       "zoom",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

// Result reports the outcome of one event.
// Consumed is false when the event should go back to the canvas.
// Changed is false when the action was a no-op (e.g. removing the last pane).
type Result struct {
	Action   Action
	Consumed bool
	Changed  bool
}

// KeyConfig lists the keys bound to each action.
type KeyConfig struct {
	FocusNext  []string
	FocusPrev  []string
	Execute    []string
	AddPane    []string
	RemovePane []string
	Zoom       []string
	Quit       []string
}

// DefaultKeyConfig returns the stock bindings.
func DefaultKeyConfig() KeyConfig {
	return KeyConfig{
		FocusNext:  []string{"shift+tab", "ctrl+n"},
		FocusPrev:  []string{"ctrl+p"},
		Execute:    []string{"enter"},
		AddPane:    []string{"ctrl+t"},
		RemovePane: []string{"ctrl+x"},
		Zoom:       []string{"ctrl+z"},
		Quit:       []string{"ctrl+c", "ctrl+q"},
	}
}

// KeyMap holds the action bindings. It implements help.KeyMap.
type KeyMap struct {
	FocusNext  key.Binding
	FocusPrev  key.Binding
	Execute    key.Binding
	AddPane    key.Binding
	RemovePane key.Binding
	Zoom       key.Binding
	Quit       key.Binding
}

var _ help.KeyMap = KeyMap{}

// NewKeyMap builds bindings from cfg. Empty entries fall back to the defaults.
func NewKeyMap(cfg KeyConfig) KeyMap {
	d := DefaultKeyConfig()
	pick := func(keys, def []string) []string {
		if len(keys) == 0 {
			return def
		}
		return keys
	}
	bind := func(keys []string, desc string) key.Binding {
		return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], desc))
	}
	return KeyMap{
		FocusNext:  bind(pick(cfg.FocusNext, d.FocusNext), "next pane"),
		FocusPrev:  bind(pick(cfg.FocusPrev, d.FocusPrev), "prev pane"),
		Execute:    bind(pick(cfg.Execute, d.Execute), "run"),
		AddPane:    bind(pick(cfg.AddPane, d.AddPane), "add pane"),
		RemovePane: bind(pick(cfg.RemovePane, d.RemovePane), "remove pane"),
		Zoom:       bind(pick(cfg.Zoom, d.Zoom), "zoom"),
		Quit:       bind(pick(cfg.Quit, d.Quit), "quit"),
	}
}

// DefaultKeyMap returns NewKeyMap(DefaultKeyConfig()).
func DefaultKeyMap() KeyMap { return NewKeyMap(DefaultKeyConfig()) }

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.FocusNext, k.FocusPrev, k.Execute, k.AddPane, k.RemovePane, k.Zoom, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.FocusNext, k.FocusPrev},
		{k.Execute, k.AddPane, k.RemovePane},
		{k.Zoom, k.Quit},
	}
}

// editKeys maps named keys to editor operations.
var editKeys = map[string]func(*pane.Editor){
	"backspace": (*pane.Editor).Backspace,
	"delete":    (*pane.Editor).Delete,
	"left":      (*pane.Editor).MoveLeft,
	"right":     (*pane.Editor).MoveRight,
	"home":      (*pane.Editor).MoveStart,
	"end":       (*pane.Editor).MoveEnd,
	"ctrl+a":    (*pane.Editor).MoveStart,
	"ctrl+e":    (*pane.Editor).MoveEnd,
	"ctrl+u":    (*pane.Editor).KillLineStart,
	"ctrl+k":    (*pane.Editor).KillLineEnd,
	"ctrl+w":    (*pane.Editor).DeleteWordBackward,
}

// Dispatcher maps input events to engine actions, one action per event.
type Dispatcher struct {
	engine *Engine
	keys   KeyMap
}

// NewDispatcher creates a dispatcher for e.
func NewDispatcher(e *Engine, keys KeyMap) *Dispatcher {
	return &Dispatcher{engine: e, keys: keys}
}

// KeyMap returns the active bindings.
func (d *Dispatcher) KeyMap() KeyMap { return d.keys }

// SetKeyMap replaces the active bindings.
func (d *Dispatcher) SetKeyMap(k KeyMap) { d.keys = k }

// HandleKey applies the first action that matches ev.
func (d *Dispatcher) HandleKey(ctx context.Context, ev KeyEvent) Result {
	e := d.engine
	switch {
	case key.Matches(ev, d.keys.Quit):
		return Result{Action: ActionQuit, Consumed: true, Changed: true}
	case key.Matches(ev, d.keys.FocusNext):
		e.MoveFocus(layout.Next)
		return Result{Action: ActionFocusNext, Consumed: true, Changed: true}
	case key.Matches(ev, d.keys.FocusPrev):
		e.MoveFocus(layout.Previous)
		return Result{Action: ActionFocusPrev, Consumed: true, Changed: true}
	case key.Matches(ev, d.keys.Execute):
		e.Execute(ctx)
		// Submit always changes the editor, even when nothing is dispatched.
		return Result{Action: ActionExecute, Consumed: true, Changed: true}
	case key.Matches(ev, d.keys.AddPane):
		e.AddPane(pane.KindShell)
		return Result{Action: ActionAddPane, Consumed: true, Changed: true}
	case key.Matches(ev, d.keys.RemovePane):
		ok := e.RemoveFocused(ctx)
		return Result{Action: ActionRemovePane, Consumed: true, Changed: ok}
	case key.Matches(ev, d.keys.Zoom):
		ok := e.ToggleZoom()
		return Result{Action: ActionZoom, Consumed: true, Changed: ok}
	}
	if d.edit(ev) {
		return Result{Action: ActionEdit, Consumed: true, Changed: true}
	}
	return Result{Action: ActionNone}
}

// HandlePointer focuses the pane under the pointer.
func (d *Dispatcher) HandlePointer(ev PointerEvent) Result {
	if !d.engine.FocusIndex(ev.Index) {
		return Result{Action: ActionNone}
	}
	return Result{Action: ActionFocusPane, Consumed: true, Changed: true}
}

// edit forwards editor keys to the focused pane.
func (d *Dispatcher) edit(ev KeyEvent) bool {
	p := d.engine.Focused()
	if p == nil {
		return false
	}
	ed := p.Editor()
	if len(ev.Runes) > 0 {
		for _, r := range ev.Runes {
			ed.InsertRune(r)
		}
		return true
	}
	if ev.Key == " " || ev.Key == "space" {
		ed.InsertRune(' ')
		return true
	}
	if fn, ok := editKeys[ev.Key]; ok {
		fn(ed)
		return true
	}
	return false
}
