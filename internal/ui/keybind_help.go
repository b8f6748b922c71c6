package ui

import (
	"fmt"

	"panemux/internal/engine"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// newHelp returns a help model styled like the rest of the UI.
func newHelp() help.Model {
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHighlight)).
		Bold(true)
	h.Styles.ShortDesc = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted))
	h.Styles.ShortSeparator = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted))
	return h
}

// renderStatus produces the bottom bar: pane and session counts, then the
// key help trimmed to the remaining width.
func renderStatus(h help.Model, keys engine.KeyMap, width, panes, running int, zoomed bool) string {
	counts := fmt.Sprintf(" %d panes │ %d running ", panes, running)
	if zoomed {
		counts += "│ zoom "
	}
	h.Width = max(width-lipgloss.Width(counts)-1, 0)
	line := Styles.Status.Render(counts) + " " + h.ShortHelpView(keys.ShortHelp())
	return lipgloss.NewStyle().MaxWidth(width).Render(line)
}
