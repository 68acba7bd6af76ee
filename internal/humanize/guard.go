package humanize

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// sessionGuard enforces one in-flight run per session and tracks its state.
// It is a per-session flag, not a lock across sessions or processes.
type sessionGuard struct {
	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	sem   *semaphore.Weighted
	state State
}

func newSessionGuard() *sessionGuard {
	return &sessionGuard{sessions: make(map[string]*session)}
}

// acquire claims the session or fails with ErrInFlight without waiting.
func (g *sessionGuard) acquire(id string) (*session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.sessions[id]
	if !ok {
		s = &session{sem: semaphore.NewWeighted(1)}
		g.sessions[id] = s
	}
	if !s.sem.TryAcquire(1) {
		return nil, ErrInFlight
	}
	s.state = Idle
	return s, nil
}

// release frees the session. Safe to call from a defer on every exit path.
func (g *sessionGuard) release(id string, s *session) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s.sem.Release(1)
	if g.sessions[id] == s {
		delete(g.sessions, id)
	}
}

// advance moves the session to the next state, refusing illegal transitions.
func (g *sessionGuard) advance(s *session, to State) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !CanTransition(s.state, to) {
		return fmt.Errorf("humanize: illegal state transition %s -> %s", s.state, to)
	}
	s.state = to
	return nil
}

// state returns the current state of a session, Idle when nothing is running.
func (g *sessionGuard) state(id string) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	if s, ok := g.sessions[id]; ok {
		return s.state
	}
	return Idle
}

func (g *sessionGuard) inFlight(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.sessions[id]
	return ok
}

// modeOverrides holds the per-session live/simulated choice made at runtime.
type modeOverrides struct {
	mu    sync.Mutex
	bySID map[string]modeOverride
}

type modeOverride struct {
	live bool
	set  time.Time
}

func newModeOverrides() *modeOverrides {
	return &modeOverrides{bySID: make(map[string]modeOverride)}
}

func (m *modeOverrides) set(key string, live bool, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bySID[key] = modeOverride{live: live, set: now}
}

func (m *modeOverrides) get(key string) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.bySID[key]
	return o.live, ok
}

func (m *modeOverrides) sweep(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, o := range m.bySID {
		if o.set.Before(cutoff) {
			delete(m.bySID, k)
			n++
		}
	}
	return n
}
