// Package layout arranges panes in a grid of columns and tracks focus.
//
// Panes are grouped two per column in insertion order, so n panes occupy
// ceil(n/2) columns and only the last column can hold a single pane.
// Focus is a (column, row) cell that always resolves to a live pane once the
// grid is non-empty. A zoomed grid shows only the focused pane; any relayout
// clears the zoom and Move is refused while it is on.
package layout

import "panemux/internal/pane"

// RowsPerColumn is the number of panes stacked in one column.
const RowsPerColumn = 2

// Direction is a focus movement.
type Direction int

const (
	Next Direction = iota
	Previous
)

// Cell addresses one slot of the grid.
type Cell struct {
	Col int
	Row int
}

// Grid holds the column layout and the focused cell.
type Grid struct {
	cols   [][]pane.ID
	focus  Cell
	zoomed bool

	// OnChange is called with the previous and new focused pane after a
	// focus change. It is not called when focus stays on the same pane.
	OnChange func(from, to pane.ID)
}

// Relayout rebuilds the columns from ids. The focused pane keeps focus when
// it is still present; otherwise focus resets to the first cell.
func (g *Grid) Relayout(ids []pane.ID) {
	prev, hadFocus := g.FocusedID()

	g.zoomed = false
	g.cols = g.cols[:0]
	for i := 0; i < len(ids); i += RowsPerColumn {
		end := min(i+RowsPerColumn, len(ids))
		col := make([]pane.ID, end-i)
		copy(col, ids[i:end])
		g.cols = append(g.cols, col)
	}

	g.focus = Cell{}
	if hadFocus {
		if cell, ok := g.find(prev); ok {
			g.focus = cell
		}
	}
	g.notify(prev, hadFocus)
}

// Len returns the number of panes in the grid.
func (g *Grid) Len() int {
	n := 0
	for _, col := range g.cols {
		n += len(col)
	}
	return n
}

// Columns returns a copy of the grid columns.
func (g *Grid) Columns() [][]pane.ID {
	out := make([][]pane.ID, len(g.cols))
	for i, col := range g.cols {
		out[i] = append([]pane.ID(nil), col...)
	}
	return out
}

// Focus returns the focused cell.
func (g *Grid) Focus() Cell { return g.focus }

// FocusedIndex returns the insertion-order index of the focused pane, or -1
// when the grid is empty.
func (g *Grid) FocusedIndex() int {
	if len(g.cols) == 0 {
		return -1
	}
	return g.focus.Col*RowsPerColumn + g.focus.Row
}

// FocusedID returns the focused pane.
func (g *Grid) FocusedID() (pane.ID, bool) {
	if len(g.cols) == 0 {
		return 0, false
	}
	return g.cols[g.focus.Col][g.focus.Row], true
}

// ToggleZoom switches between the full grid and the focused pane alone.
// It returns false on an empty grid.
func (g *Grid) ToggleZoom() bool {
	if len(g.cols) == 0 {
		return false
	}
	g.zoomed = !g.zoomed
	return true
}

// Zoomed reports whether only the focused pane is shown.
func (g *Grid) Zoomed() bool { return g.zoomed }

// Move shifts focus one row. Past the end of a column it wraps to the first
// row of the next column, and before the start to the last row of the
// previous one. Both ends of the grid wrap around. It does nothing while
// the grid is zoomed.
func (g *Grid) Move(dir Direction) {
	if len(g.cols) == 0 || g.zoomed {
		return
	}
	prev, _ := g.FocusedID()
	c := g.focus
	switch dir {
	case Next:
		c.Row++
		if c.Row >= len(g.cols[c.Col]) {
			c.Col = (c.Col + 1) % len(g.cols)
			c.Row = 0
		}
	case Previous:
		c.Row--
		if c.Row < 0 {
			c.Col = (c.Col - 1 + len(g.cols)) % len(g.cols)
			c.Row = len(g.cols[c.Col]) - 1
		}
	}
	g.focus = c
	g.notify(prev, true)
}

// SetFocusIndex focuses the pane at insertion-order index i.
// Returns false if i is out of range.
func (g *Grid) SetFocusIndex(i int) bool {
	if i < 0 || i >= g.Len() {
		return false
	}
	prev, had := g.FocusedID()
	g.focus = Cell{Col: i / RowsPerColumn, Row: i % RowsPerColumn}
	g.notify(prev, had)
	return true
}

// SetFocusID focuses the given pane. Returns false if it is not in the grid.
func (g *Grid) SetFocusID(id pane.ID) bool {
	cell, ok := g.find(id)
	if !ok {
		return false
	}
	prev, had := g.FocusedID()
	g.focus = cell
	g.notify(prev, had)
	return true
}

func (g *Grid) find(id pane.ID) (Cell, bool) {
	for c, col := range g.cols {
		for r, pid := range col {
			if pid == id {
				return Cell{Col: c, Row: r}, true
			}
		}
	}
	return Cell{}, false
}

func (g *Grid) notify(from pane.ID, had bool) {
	if g.OnChange == nil {
		return
	}
	to, ok := g.FocusedID()
	if ok && (!had || to != from) {
		g.OnChange(from, to)
	}
}
