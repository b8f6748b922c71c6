package ui

import (
	"panemux/internal/engine"

	tea "github.com/charmbracelet/bubbletea"
)

// keyEvent converts a Bubble Tea key message to the engine's form.
// Typed text (including pastes) travels as Runes; alt-modified keys and
// named keys travel by name only.
func keyEvent(msg tea.KeyMsg) engine.KeyEvent {
	ev := engine.KeyEvent{Key: msg.String()}
	switch msg.Type {
	case tea.KeyRunes, tea.KeySpace:
		if !msg.Alt {
			ev.Runes = msg.Runes
		}
	}
	if msg.Paste {
		ev.Key = "paste"
	}
	return ev
}

// pointerIndex maps a left-button press to the pane under it.
// Returns -1 for anything else.
func pointerIndex(msg tea.MouseMsg, bounds []Bounds) int {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return -1
	}
	return hitTest(bounds, msg.X, msg.Y)
}

// wheelKey maps mouse wheel motion to the scroll key a pane view accepts.
func wheelKey(msg tea.MouseMsg) (string, bool) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return "up", true
	case tea.MouseButtonWheelDown:
		return "down", true
	}
	return "", false
}
