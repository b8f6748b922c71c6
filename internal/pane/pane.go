// Package pane holds the leaf entity of the multiplexer: one addressable
// input/output unit with an append-only output buffer, a line editor,
// multi-line continuation and command history.
//
// A Pane is not safe for concurrent use. It is owned by the UI loop; background
// workers reach it only through engine events.
package pane

import (
	"fmt"
	"strings"
)

// ID is the stable identity of a pane.
type ID int

func (id ID) String() string {
	return fmt.Sprintf("pane-%d", int(id))
}

// Kind distinguishes shell panes from assistant panes.
type Kind int

const (
	KindShell Kind = iota
	KindAssistant
)

func (k Kind) String() string {
	switch k {
	case KindShell:
		return "bash"
	case KindAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// DefaultTitle is the display name given to new panes of this kind.
func (k Kind) DefaultTitle() string {
	switch k {
	case KindShell:
		return "Bash"
	case KindAssistant:
		return "Assistant"
	default:
		return "Pane"
	}
}

// ContinuationMarker at the end of a submitted line keeps the command open.
const ContinuationMarker = `\`

// Pane is one interactive unit of input and output.
type Pane struct {
	id    ID
	kind  Kind
	title string

	output Output
	editor Editor

	pending    string
	continuing bool
	history    []string
	loading    bool
}

// New creates an empty pane. An empty title falls back to the kind's default.
func New(id ID, kind Kind, title string) *Pane {
	if title == "" {
		title = kind.DefaultTitle()
	}
	return &Pane{id: id, kind: kind, title: title}
}

func (p *Pane) ID() ID        { return p.id }
func (p *Pane) Kind() Kind    { return p.kind }
func (p *Pane) Title() string { return p.title }

// Prompt returns the input caption, or "" while a reply is in flight.
func (p *Pane) Prompt() string {
	if p.loading {
		return ""
	}
	return p.kind.String() + "> "
}

// Loading reports whether a simulated reply is in flight.
func (p *Pane) Loading() bool { return p.loading }

// SetLoading marks the pane busy. While loading, Submit ignores input.
func (p *Pane) SetLoading(v bool) { p.loading = v }

// Continuing reports whether a multi-line command is being assembled.
func (p *Pane) Continuing() bool { return p.continuing }

// Pending returns the assembled prefix of a running continuation.
func (p *Pane) Pending() string { return p.pending }

// History returns a copy of the executed commands, oldest first.
func (p *Pane) History() []string {
	out := make([]string, len(p.history))
	copy(out, p.history)
	return out
}

// Editor exposes the input editor for key forwarding.
func (p *Pane) Editor() *Editor { return &p.editor }

// InputText returns the uncommitted input.
func (p *Pane) InputText() string { return p.editor.String() }

// Cursor returns the editor cursor as a rune offset into InputText.
func (p *Pane) Cursor() int { return p.editor.Cursor() }

// SetInput replaces the editor content.
func (p *Pane) SetInput(s string) { p.editor.SetString(s) }

// Output returns a copy of the output segments.
func (p *Pane) Output() []string { return p.output.Lines() }

// OutputText returns the output segments joined by newlines.
func (p *Pane) OutputText() string { return p.output.String() }

// AppendLine appends text as complete output lines.
func (p *Pane) AppendLine(s string) { p.output.AppendLine(s) }

// Write appends streamed output, extending an unterminated trailing line.
func (p *Pane) Write(chunk string) { p.output.Write(chunk) }

// ReplaceLast rewrites the trailing output segment.
func (p *Pane) ReplaceLast(s string) { p.output.ReplaceLast(s) }

// Submit commits the editor line. It returns the assembled command and true
// when the command should be dispatched. A line ending in the continuation
// marker is buffered instead: the marker is stripped, the text joins the
// pending prefix and the editor shows the running command.
func (p *Pane) Submit() (string, bool) {
	if p.loading {
		return "", false
	}
	text := p.editor.String()
	p.editor.Clear()

	var line string
	if p.continuing {
		shown := p.pending + "\n"
		if strings.HasPrefix(text, shown) {
			line = text[len(shown):]
		} else {
			// The running buffer was edited in place; it replaces the prefix.
			line = strings.ReplaceAll(text, "\n", "")
			p.pending = ""
		}
	} else {
		line = text
	}
	line = strings.TrimSpace(line)

	if strings.HasSuffix(line, ContinuationMarker) {
		p.pending += strings.TrimSuffix(line, ContinuationMarker)
		p.continuing = true
		p.editor.SetString(p.pending + "\n")
		return "", false
	}

	command := p.pending + line
	p.pending = ""
	p.continuing = false
	p.history = append(p.history, command)
	return command, true
}
