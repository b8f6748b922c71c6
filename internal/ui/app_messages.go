package ui

import (
	"panemux/internal/engine"
	"panemux/internal/responder"
	"panemux/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultBatchLimit caps the number of inbox events applied per update.
const DefaultBatchLimit = 64

// OutputBatchMsg carries session events drained from the engine inbox.
type OutputBatchMsg struct {
	Events []session.Event
}

// ConfigReloadMsg is sent when the config file changes on disk.
// Nil fields leave the current setting alone.
type ConfigReloadMsg struct {
	Keys      *engine.KeyMap
	Responder *responder.Config
}

// listenInbox blocks for the next inbox event, then takes whatever else is
// already queued (up to limit) so one update applies the whole batch.
// It returns nil once done is closed.
func listenInbox(inbox <-chan session.Event, done <-chan struct{}, limit int) tea.Cmd {
	return func() tea.Msg {
		var first session.Event
		select {
		case first = <-inbox:
		case <-done:
			return nil
		}
		batch := []session.Event{first}
		for len(batch) < limit {
			select {
			case ev := <-inbox:
				batch = append(batch, ev)
			default:
				return OutputBatchMsg{Events: batch}
			}
		}
		return OutputBatchMsg{Events: batch}
	}
}
