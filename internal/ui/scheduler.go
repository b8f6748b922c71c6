package ui

import (
	"time"

	"panemux/internal/responder"

	tea "github.com/charmbracelet/bubbletea"
)

// timerMsg fires a scheduled callback by id.
type timerMsg struct {
	id uint64
}

// TeaScheduler implements responder.Scheduler on the Bubble Tea loop.
// After only records the callback; Flush turns new callbacks into tick
// commands, and the model calls Fire when a tick arrives. A cancelled id is
// skipped when its tick fires. Use it from Update only.
type TeaScheduler struct {
	nextID  uint64
	pending map[uint64]func()
	queued  []scheduled
}

type scheduled struct {
	id uint64
	d  time.Duration
}

var _ responder.Scheduler = (*TeaScheduler)(nil)

// NewTeaScheduler creates an empty scheduler.
func NewTeaScheduler() *TeaScheduler {
	return &TeaScheduler{pending: make(map[uint64]func())}
}

// After implements responder.Scheduler.
func (s *TeaScheduler) After(d time.Duration, fn func()) func() {
	s.nextID++
	id := s.nextID
	s.pending[id] = fn
	s.queued = append(s.queued, scheduled{id: id, d: d})
	return func() { delete(s.pending, id) }
}

// Pending returns the number of callbacks that are still due.
func (s *TeaScheduler) Pending() int { return len(s.pending) }

// Flush returns a command that delivers every callback scheduled since the
// last Flush, or nil.
func (s *TeaScheduler) Flush() tea.Cmd {
	if len(s.queued) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(s.queued))
	for _, q := range s.queued {
		id := q.id
		if q.d <= 0 {
			cmds = append(cmds, func() tea.Msg { return timerMsg{id: id} })
			continue
		}
		cmds = append(cmds, tea.Tick(q.d, func(time.Time) tea.Msg { return timerMsg{id: id} }))
	}
	s.queued = s.queued[:0]
	return tea.Batch(cmds...)
}

// Fire runs the callback for id if it is still pending.
func (s *TeaScheduler) Fire(id uint64) bool {
	fn, ok := s.pending[id]
	if !ok {
		return false
	}
	delete(s.pending, id)
	fn()
	return true
}
