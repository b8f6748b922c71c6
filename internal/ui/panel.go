package ui

import "panemux/internal/pane"

// Bounds is the screen rectangle of one grid cell.
type Bounds struct {
	Index  int // insertion-order pane index
	ID     pane.ID
	X, Y   int
	Width  int
	Height int
}

// Contains reports whether the cell (x, y) lies inside b.
func (b Bounds) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// gridBounds splits a width x height area between the columns. Columns share
// the width evenly with the remainder going to the last one; panes in a
// column share its height the same way.
func gridBounds(cols [][]pane.ID, width, height int) []Bounds {
	if len(cols) == 0 || width <= 0 || height <= 0 {
		return nil
	}
	var out []Bounds
	colW := width / len(cols)
	index := 0
	for c, col := range cols {
		x := c * colW
		w := colW
		if c == len(cols)-1 {
			w = width - x
		}
		rowH := height / len(col)
		for r, id := range col {
			y := r * rowH
			h := rowH
			if r == len(col)-1 {
				h = height - y
			}
			out = append(out, Bounds{Index: index, ID: id, X: x, Y: y, Width: w, Height: h})
			index++
		}
	}
	return out
}

// zoomBounds gives the whole area to one pane.
func zoomBounds(index int, id pane.ID, width, height int) []Bounds {
	if width <= 0 || height <= 0 {
		return nil
	}
	return []Bounds{{Index: index, ID: id, Width: width, Height: height}}
}

// hitTest returns the pane index under (x, y), or -1.
func hitTest(bounds []Bounds, x, y int) int {
	for _, b := range bounds {
		if b.Contains(x, y) {
			return b.Index
		}
	}
	return -1
}
