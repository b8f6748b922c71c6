package ui

import (
	"strings"

	"panemux/internal/engine"
	"panemux/internal/pane"
	"panemux/internal/ui/textutil"

	"github.com/charmbracelet/bubbles/viewport"
)

// Box chrome: one border cell on each side.
const (
	borderWidth  = 2
	borderHeight = 2
)

// PaneView draws a pane as a bordered box: title row, scrollable output and
// the prompt with the input editor at the bottom.
type PaneView struct {
	pane     *pane.Pane
	viewport viewport.Model
	// follow keeps the viewport pinned to the newest output until the user
	// scrolls up.
	follow bool
}

var _ View = (*PaneView)(nil)

// NewPaneView creates a view for p.
func NewPaneView(p *pane.Pane) *PaneView {
	return &PaneView{
		pane:     p,
		viewport: viewport.New(0, 0),
		follow:   true,
	}
}

// Pane returns the rendered pane.
func (v *PaneView) Pane() *pane.Pane { return v.pane }

// Render implements View.
func (v *PaneView) Render(width, height int, focused bool) string {
	box := Styles.Pane
	if focused {
		box = Styles.PaneFocused
	}
	innerW := max(width-borderWidth, 1)
	innerH := max(height-borderHeight, 1)

	title := Styles.Title
	if focused {
		title = Styles.TitleFocused
	}
	rows := []string{title.Render(textutil.Truncate(v.pane.Title(), innerW))}

	input := v.inputRows(innerW, focused)
	outH := innerH - len(rows) - len(input)
	if outH < 0 {
		input = textutil.Tail(input, innerH-len(rows))
		outH = 0
	}
	if outH > 0 {
		v.viewport.Width = innerW
		v.viewport.Height = outH
		v.viewport.SetContent(strings.Join(v.outputRows(innerW), "\n"))
		if v.follow {
			v.viewport.GotoBottom()
		}
		rows = append(rows, v.viewport.View())
	}
	rows = append(rows, input...)

	return box.
		Width(innerW).
		Height(innerH).
		MaxHeight(height).
		Render(strings.Join(rows, "\n"))
}

// outputRows wraps the pane output to width, styling error lines.
func (v *PaneView) outputRows(width int) []string {
	var rows []string
	for _, line := range v.pane.Output() {
		wrapped := textutil.Wrap(line, width)
		if strings.HasPrefix(line, "error: ") {
			for i := range wrapped {
				wrapped[i] = Styles.Error.Render(wrapped[i])
			}
		}
		rows = append(rows, wrapped...)
	}
	return rows
}

// inputRows renders the prompt and editor text, with a block cursor when
// focused.
func (v *PaneView) inputRows(width int, focused bool) []string {
	prompt := v.pane.Prompt()
	promptStyle := Styles.Prompt
	if focused {
		promptStyle = Styles.PromptFocused
	}

	text := []rune(v.pane.InputText())
	cursor := min(v.pane.Cursor(), len(text))
	var body string
	if focused {
		under := " "
		after := ""
		if cursor < len(text) && text[cursor] != '\n' {
			under = string(text[cursor])
			after = string(text[cursor+1:])
		} else if cursor < len(text) {
			after = string(text[cursor:])
		}
		body = string(text[:cursor]) + Styles.Cursor.Render(under) + after
	} else {
		body = string(text)
	}

	var rows []string
	for i, line := range strings.Split(body, "\n") {
		if i == 0 {
			line = promptStyle.Render(prompt) + line
		}
		rows = append(rows, textutil.HardWrap(line, width)...)
	}
	return rows
}

// HandleKey implements View. It scrolls the output.
func (v *PaneView) HandleKey(ev engine.KeyEvent) bool {
	switch ev.Key {
	case "pgup":
		v.viewport.PageUp()
	case "pgdown":
		v.viewport.PageDown()
	case "up":
		v.viewport.ScrollUp(1)
	case "down":
		v.viewport.ScrollDown(1)
	default:
		return false
	}
	v.follow = v.viewport.AtBottom()
	return true
}
