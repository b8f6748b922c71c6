package session

import (
	"errors"
	"sort"
	"sync"
	"time"

	"panemux/internal/pane"
)

// TrackedSession holds one session and the time it was registered.
type TrackedSession struct {
	PaneID    pane.ID
	Session   *Session
	CreatedAt time.Time
}

// LivenessChecker returns the set of pane ids that are still live.
// The engine supplies its pane set; tests can inject a stub.
type LivenessChecker func() map[pane.ID]bool

// Tracker maps shell panes to their sessions.
// Safe for concurrent use.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[pane.ID]TrackedSession
	liveness LivenessChecker
}

// NewTracker creates a Tracker with the given liveness checker.
// If liveness is nil, Prune becomes a no-op.
func NewTracker(liveness LivenessChecker) *Tracker {
	return &Tracker{
		sessions: make(map[pane.ID]TrackedSession),
		liveness: liveness,
	}
}

// Register adds s for its pane, replacing (and closing) any previous session.
func (t *Tracker) Register(s *Session) {
	t.mu.Lock()
	prev, ok := t.sessions[s.PaneID()]
	t.sessions[s.PaneID()] = TrackedSession{
		PaneID:    s.PaneID(),
		Session:   s,
		CreatedAt: time.Now(),
	}
	t.mu.Unlock()
	if ok && prev.Session != s {
		prev.Session.Close()
	}
}

// Get returns the session for a pane.
func (t *Tracker) Get(id pane.ID) (*Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ts, ok := t.sessions[id]
	return ts.Session, ok
}

// Unregister removes the session of a pane without closing it.
// Returns the removed session, if any.
func (t *Tracker) Unregister(id pane.ID) (*Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ts, ok := t.sessions[id]
	if !ok {
		return nil, false
	}
	delete(t.sessions, id)
	return ts.Session, true
}

// All returns the tracked sessions ordered by pane id.
func (t *Tracker) All() []TrackedSession {
	t.mu.RLock()
	out := make([]TrackedSession, 0, len(t.sessions))
	for _, ts := range t.sessions {
		out = append(out, ts)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].PaneID < out[j].PaneID })
	return out
}

// Count returns the number of tracked sessions.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// CountByState returns (running, terminated) session counts.
// Sessions that never started count as neither.
func (t *Tracker) CountByState() (running, terminated int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, ts := range t.sessions {
		switch ts.Session.State() {
		case StateRunning:
			running++
		case StateTerminated:
			terminated++
		}
	}
	return
}

// Prune closes and removes sessions whose pane is no longer live.
// Returns the number of sessions pruned.
func (t *Tracker) Prune() (int, error) {
	if t.liveness == nil {
		return 0, nil
	}
	live := t.liveness()

	t.mu.Lock()
	var dead []*Session
	for id, ts := range t.sessions {
		if !live[id] {
			dead = append(dead, ts.Session)
			delete(t.sessions, id)
		}
	}
	t.mu.Unlock()

	var errs []error
	for _, s := range dead {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return len(dead), errors.Join(errs...)
}

// CloseAll closes and removes every session.
func (t *Tracker) CloseAll() error {
	t.mu.Lock()
	all := t.sessions
	t.sessions = make(map[pane.ID]TrackedSession)
	t.mu.Unlock()

	var errs []error
	for _, ts := range all {
		if err := ts.Session.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
