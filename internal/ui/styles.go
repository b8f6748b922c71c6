package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme colors used throughout the UI
const (
	ColorAccent    = "86"  // Cyan/green - titles, focused border
	ColorHighlight = "205" // Magenta - focused prompt
	ColorDanger    = "196" // Red - error lines
	ColorMuted     = "241" // Gray - hints, unfocused border
	ColorText      = "252" // Light gray - normal text
	ColorPrompt    = "39"  // Blue - unfocused prompt
)

// Styles contains the shared style definitions.
var Styles = struct {
	Pane        lipgloss.Style // Unfocused pane box
	PaneFocused lipgloss.Style // Focused pane box

	Title        lipgloss.Style
	TitleFocused lipgloss.Style

	Prompt        lipgloss.Style
	PromptFocused lipgloss.Style
	Cursor        lipgloss.Style

	Error  lipgloss.Style
	Muted  lipgloss.Style
	Status lipgloss.Style
}{
	Pane: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorMuted)),
	PaneFocused: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccent)),
	Title: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	TitleFocused: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccent)),
	Prompt: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorPrompt)),
	PromptFocused: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorHighlight)),
	Cursor: lipgloss.NewStyle().
		Reverse(true),
	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorDanger)),
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	Status: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorText)),
}

// ConfigureColor selects the lipgloss color profile. NO_COLOR (or noColor)
// forces plain ASCII output; otherwise the terminal's profile is detected.
func ConfigureColor(noColor bool) termenv.Profile {
	profile := termenv.EnvColorProfile()
	if noColor || termenv.EnvNoColor() {
		profile = termenv.Ascii
	}
	lipgloss.SetColorProfile(profile)
	return profile
}
