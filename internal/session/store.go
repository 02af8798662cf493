// Package session holds the in-memory session store. Sessions live for
// a sliding TTL and are serialized per id: at most one turn is in
// flight for a session at any time.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"formpilot/internal/domain"
	"formpilot/internal/engine"
)

// Session pairs a conversation id with its engine state.
type Session struct {
	ID    string
	State *engine.State

	lastAccess time.Time
	turnMu     sync.Mutex
}

// Store is an in-memory session registry with sliding TTL expiry.
// Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	logger   *slog.Logger
}

// NewStore creates a store whose sessions expire after ttl of
// inactivity.
func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		logger:   logger,
	}
}

// Create registers a new session around the given initial state and
// returns it with a fresh id.
func (s *Store) Create(state *engine.State) *Session {
	sess := &Session{
		ID:         uuid.NewString(),
		State:      state,
		lastAccess: time.Now(),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Info("session created", "session_id", sess.ID)
	return sess
}

// Get returns the session with the given id, refreshing its TTL.
// Expired sessions are treated as absent.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.NewNotFoundError("session", id)
	}
	if time.Since(sess.lastAccess) > s.ttl {
		delete(s.sessions, id)
		s.logger.Info("session expired on access", "session_id", id)
		return nil, domain.NewNotFoundError("session", id)
	}
	sess.lastAccess = time.Now()
	return sess, nil
}

// Delete removes a session. Missing ids are a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// BeginTurn acquires the session's turn lock without blocking. A
// second concurrent turn for the same session fails with
// ErrTurnInFlight; the engine's invariants assume strict per-session
// serialization.
func (sess *Session) BeginTurn() error {
	if !sess.turnMu.TryLock() {
		return domain.ErrTurnInFlight
	}
	return nil
}

// EndTurn releases the turn lock.
func (sess *Session) EndTurn() {
	sess.turnMu.Unlock()
}

// CleanupExpired drops sessions idle beyond the TTL and returns how
// many were removed.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	now := time.Now()
	for id, sess := range s.sessions {
		if now.Sub(sess.lastAccess) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("expired sessions cleaned up", "count", removed)
	}
	return removed
}

// StartJanitor runs CleanupExpired on the given interval until stop is
// closed.
func (s *Store) StartJanitor(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.CleanupExpired()
			case <-stop:
				return
			}
		}
	}()
}
