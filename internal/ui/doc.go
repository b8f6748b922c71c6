// Package ui adapts the pane engine to Bubble Tea.
//
// Core pieces:
//   - Model: the tea.Model; turns key, mouse, timer and inbox messages into engine calls
//   - View: the capability a grid cell needs (render into a box, take a key)
//   - PaneView: the View for one pane, backed by a bubbles viewport
//   - TeaScheduler: responder timers delivered as tea.Tick messages
//
// The engine is only ever touched from Update, so it needs no locking.
package ui
