package tracking

import (
	"context"
	"errors"
	"sync"

	"presensi/internal/geo"
)

var (
	ErrAlreadyTracking = errors.New("live tracking already active for this user")
	ErrNoSession       = errors.New("no active tracking session")
)

// PersistFunc writes one accepted sample for a subject (append-only log plus
// whatever fan-out the caller composes in: websocket feed, event bus).
type PersistFunc func(ctx context.Context, subjectID string, fix geo.PositionFix) error

// Manager holds at most one live-tracking session per subject for the HTTP
// ingest path, where the device stream arrives as individual POSTed samples
// rather than a local watcher.
type Manager struct {
	persist PersistFunc
	opts    Options

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(persist PersistFunc, opts Options) *Manager {
	return &Manager{
		persist:  persist,
		opts:     opts.withDefaults(),
		sessions: make(map[string]*Session),
	}
}

// StartSession opens a session for the subject. One active session per
// subject: duplicate starts are rejected rather than silently forking
// independent throttle state.
func (m *Manager) StartSession(subjectID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[subjectID]; ok {
		return "", ErrAlreadyTracking
	}
	s := newSession(func(ctx context.Context, fix geo.PositionFix) error {
		return m.persist(ctx, subjectID, fix)
	}, m.opts)
	s.stop = func() { s.finish(nil) }
	m.sessions[subjectID] = s
	return s.ID, nil
}

// Offer routes one raw sample through the subject's session throttle.
// Returns whether the sample was accepted and forwarded.
func (m *Manager) Offer(ctx context.Context, subjectID string, fix geo.PositionFix) (bool, error) {
	m.mu.Lock()
	s, ok := m.sessions[subjectID]
	m.mu.Unlock()
	if !ok {
		return false, ErrNoSession
	}
	return s.Offer(ctx, fix), nil
}

// StopSession terminates and removes the subject's session, if any.
func (m *Manager) StopSession(subjectID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[subjectID]
	if ok {
		delete(m.sessions, subjectID)
	}
	m.mu.Unlock()
	if ok {
		s.Stop()
	}
	return ok
}

// Active reports whether the subject currently has a session.
func (m *Manager) Active(subjectID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[subjectID]
	return ok
}
