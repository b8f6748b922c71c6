// Package textutil provides unicode-aware text utilities for pane rendering.
package textutil

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// TruncateEllipsis is appended when a string is cut to fit.
const TruncateEllipsis = "…"

// VisualWidth returns the number of terminal columns s occupies.
func VisualWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate cuts s to at most maxWidth columns, ending in an ellipsis when
// anything was removed.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if VisualWidth(s) <= maxWidth {
		return s
	}
	avail := maxWidth - VisualWidth(TruncateEllipsis)
	if avail < 0 {
		return TruncateEllipsis
	}

	var b strings.Builder
	w := 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > avail {
			break
		}
		b.WriteRune(r)
		w += rw
	}
	return b.String() + TruncateEllipsis
}

// PadRight pads s with spaces to width columns, truncating when it is wider.
func PadRight(s string, width int) string {
	w := VisualWidth(s)
	if w >= width {
		return Truncate(s, width)
	}
	return s + runewidth.FillRight("", width-w)
}

// Wrap breaks text into display rows of at most width columns. Words wrap at
// spaces; a word longer than width is split. Tabs become four spaces.
func Wrap(text string, width int) []string {
	if width <= 0 {
		return nil
	}
	text = strings.ReplaceAll(text, "\t", "    ")
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			rows = append(rows, "")
			continue
		}
		wrapped := wrap.String(wordwrap.String(line, width), width)
		rows = append(rows, strings.Split(wrapped, "\n")...)
	}
	return rows
}

// HardWrap breaks text at exactly width columns without moving words, keeping
// every space. It is used for editor input where the cursor column matters.
func HardWrap(text string, width int) []string {
	if width <= 0 {
		return nil
	}
	w := wrap.NewWriter(width)
	w.PreserveSpace = true
	_, _ = w.Write([]byte(text))
	return strings.Split(w.String(), "\n")
}

// Tail returns the last n rows.
func Tail(rows []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if len(rows) <= n {
		return rows
	}
	return rows[len(rows)-n:]
}

// CursorColumn returns the display column of the rune offset cursor within
// the last line of text.
func CursorColumn(text string, cursor int) int {
	runes := []rune(text)
	if cursor > len(runes) {
		cursor = len(runes)
	}
	start := 0
	for i := cursor - 1; i >= 0; i-- {
		if runes[i] == '\n' {
			start = i + 1
			break
		}
	}
	return runewidth.StringWidth(string(runes[start:cursor]))
}
