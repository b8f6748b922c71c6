package ui

import "panemux/internal/engine"

// View is the capability a grid cell needs: draw into a box of the given
// outer size, and optionally take a key the dispatcher did not consume.
type View interface {
	Render(width, height int, focused bool) string
	// HandleKey reports whether the key was used.
	HandleKey(ev engine.KeyEvent) bool
}
