package pane

import "strings"

// Output is the append-only line buffer of a pane.
// The trailing line is open while streamed output has not ended it with a newline.
type Output struct {
	lines []string
	open  bool
}

// Lines returns a copy of the buffered lines.
func (o *Output) Lines() []string {
	out := make([]string, len(o.lines))
	copy(out, o.lines)
	return out
}

// Len returns the number of lines.
func (o *Output) Len() int {
	return len(o.lines)
}

func (o *Output) String() string {
	return strings.Join(o.lines, "\n")
}

// AppendLine closes any open line and appends s, one line per embedded newline.
func (o *Output) AppendLine(s string) {
	o.open = false
	o.lines = append(o.lines, strings.Split(s, "\n")...)
}

// Write appends a chunk of streamed output. Carriage returns are dropped.
func (o *Output) Write(chunk string) {
	if chunk == "" {
		return
	}
	chunk = strings.ReplaceAll(chunk, "\r", "")
	parts := strings.Split(chunk, "\n")
	for i, part := range parts {
		last := i == len(parts)-1
		if last && part == "" {
			// Chunk ended with a newline: the trailing line is complete.
			o.open = false
			return
		}
		if i == 0 && o.open && len(o.lines) > 0 {
			o.lines[len(o.lines)-1] += part
		} else {
			o.lines = append(o.lines, part)
		}
		o.open = last
	}
}

// ReplaceLast rewrites the trailing line, or appends when the buffer is empty.
func (o *Output) ReplaceLast(s string) {
	if len(o.lines) == 0 {
		o.lines = append(o.lines, s)
		return
	}
	o.lines[len(o.lines)-1] = s
}
