package pane

// Editor is the uncommitted input line of a pane: a rune buffer with a cursor.
// The buffer may hold line breaks while a continuation is being assembled.
type Editor struct {
	buf    []rune
	cursor int
}

// String returns the current editor text.
func (e *Editor) String() string {
	return string(e.buf)
}

// Len returns the number of runes in the buffer.
func (e *Editor) Len() int {
	return len(e.buf)
}

// Cursor returns the cursor position as a rune offset.
func (e *Editor) Cursor() int {
	return e.cursor
}

// Clear empties the buffer.
func (e *Editor) Clear() {
	e.buf = nil
	e.cursor = 0
}

// SetString replaces the buffer and moves the cursor to the end.
func (e *Editor) SetString(value string) {
	if value == "" {
		e.Clear()
		return
	}
	e.buf = []rune(value)
	e.cursor = len(e.buf)
}

// InsertRune inserts r at the cursor.
func (e *Editor) InsertRune(r rune) {
	e.clampCursor()
	e.buf = append(e.buf[:e.cursor], append([]rune{r}, e.buf[e.cursor:]...)...)
	e.cursor++
}

// Backspace deletes the rune before the cursor.
func (e *Editor) Backspace() {
	if e.cursor <= 0 {
		return
	}
	e.buf = append(e.buf[:e.cursor-1], e.buf[e.cursor:]...)
	e.cursor--
}

// Delete deletes the rune under the cursor.
func (e *Editor) Delete() {
	if e.cursor < 0 || e.cursor >= len(e.buf) {
		return
	}
	e.buf = append(e.buf[:e.cursor], e.buf[e.cursor+1:]...)
}

func (e *Editor) MoveLeft() {
	if e.cursor > 0 {
		e.cursor--
	}
}

func (e *Editor) MoveRight() {
	if e.cursor < len(e.buf) {
		e.cursor++
	}
}

// MoveStart moves to the start of the current line.
func (e *Editor) MoveStart() {
	e.cursor = e.lineStart()
}

// MoveEnd moves to the end of the current line.
func (e *Editor) MoveEnd() {
	e.cursor = e.lineEnd()
}

// DeleteWordBackward removes the word before the cursor, including trailing blanks.
func (e *Editor) DeleteWordBackward() {
	if e.cursor <= 0 {
		return
	}
	start := e.cursor
	for start > 0 && isSpace(e.buf[start-1]) {
		start--
	}
	for start > 0 && !isSpace(e.buf[start-1]) && e.buf[start-1] != '\n' {
		start--
	}
	e.buf = append(e.buf[:start], e.buf[e.cursor:]...)
	e.cursor = start
}

// KillLineStart removes everything between the start of the line and the cursor.
func (e *Editor) KillLineStart() {
	start := e.lineStart()
	if start >= e.cursor {
		return
	}
	e.buf = append(e.buf[:start], e.buf[e.cursor:]...)
	e.cursor = start
}

// KillLineEnd removes everything between the cursor and the end of the line.
func (e *Editor) KillLineEnd() {
	end := e.lineEnd()
	if end <= e.cursor {
		return
	}
	e.buf = append(e.buf[:e.cursor], e.buf[end:]...)
}

func (e *Editor) clampCursor() {
	if e.cursor < 0 {
		e.cursor = 0
	}
	if e.cursor > len(e.buf) {
		e.cursor = len(e.buf)
	}
}

func (e *Editor) lineStart() int {
	for i := e.cursor - 1; i >= 0; i-- {
		if e.buf[i] == '\n' {
			return i + 1
		}
	}
	return 0
}

func (e *Editor) lineEnd() int {
	for i := e.cursor; i < len(e.buf); i++ {
		if e.buf[i] == '\n' {
			return i
		}
	}
	return len(e.buf)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t'
}
