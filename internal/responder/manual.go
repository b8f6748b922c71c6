package responder

import (
	"sort"
	"time"
)

// ManualScheduler is a Scheduler driven by an explicit clock. Callbacks only
// run from Advance or RunNext, on the caller's goroutine.
type ManualScheduler struct {
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	at        time.Duration
	seq       int
	fn        func()
	cancelled bool
}

var _ Scheduler = (*ManualScheduler)(nil)

// After implements Scheduler.
func (m *ManualScheduler) After(d time.Duration, fn func()) func() {
	m.seq++
	t := &manualTimer{at: m.now + d, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return func() { t.cancelled = true }
}

// Now returns the elapsed manual time.
func (m *ManualScheduler) Now() time.Duration { return m.now }

// Pending returns the number of callbacks that have neither run nor been
// cancelled.
func (m *ManualScheduler) Pending() int {
	n := 0
	for _, t := range m.timers {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// RunNext advances the clock to the earliest pending callback and runs it.
// It returns false when nothing is pending.
func (m *ManualScheduler) RunNext() bool {
	m.compact()
	if len(m.timers) == 0 {
		return false
	}
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at != m.timers[j].at {
			return m.timers[i].at < m.timers[j].at
		}
		return m.timers[i].seq < m.timers[j].seq
	})
	t := m.timers[0]
	m.timers = m.timers[1:]
	if t.at > m.now {
		m.now = t.at
	}
	t.fn()
	return true
}

// Advance moves the clock forward by d, running every callback due on the way.
func (m *ManualScheduler) Advance(d time.Duration) {
	end := m.now + d
	for {
		m.compact()
		next := -1
		for i, t := range m.timers {
			if t.at > end {
				continue
			}
			if next < 0 || t.at < m.timers[next].at || (t.at == m.timers[next].at && t.seq < m.timers[next].seq) {
				next = i
			}
		}
		if next < 0 {
			break
		}
		t := m.timers[next]
		m.timers = append(m.timers[:next], m.timers[next+1:]...)
		if t.at > m.now {
			m.now = t.at
		}
		t.fn()
	}
	m.now = end
}

func (m *ManualScheduler) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	m.timers = live
}
