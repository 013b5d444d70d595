// Package webui provides the dashboard and audit API for the freight
// delivery audit backend. This file contains the in-memory session store
// molecule used by the authentication layer.
package webui

import (
	"context"
	"errors"
	"sync"
	"time"

	"freightaudit/core"
)

// ErrSessionNotFound is returned when a session ID is not in the store.
var ErrSessionNotFound = errors.New("webui: session not found")

// ErrSessionExpired is returned when a session exists but has expired.
var ErrSessionExpired = errors.New("webui: session expired")

// SessionStore holds authenticated sessions in memory.
//
// Molecule composition:
//   - core.Session: the session atom (ID, creation, expiry)
//   - core.GenerateSessionID: cryptographically random identifiers
//
// Sessions do not survive a restart; operators log in again. Expired
// sessions are removed lazily on Get and in bulk by Cleanup.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]core.Session
	ttl      time.Duration
}

// NewSessionStore creates a SessionStore whose sessions live for ttl.
// A non-positive ttl falls back to core.DefaultSessionDuration.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = core.DefaultSessionDuration
	}
	return &SessionStore{
		sessions: make(map[string]core.Session),
		ttl:      ttl,
	}
}

// Create generates a new session and stores it.
func (s *SessionStore) Create() (core.Session, error) {
	id, err := core.GenerateSessionID()
	if err != nil {
		return core.Session{}, err
	}

	session := core.NewSessionWithDuration(id, s.ttl)

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	return session, nil
}

// Get returns the session for the given ID.
// Returns ErrSessionNotFound if it does not exist, ErrSessionExpired if it
// exists but is past its expiry (the expired entry is removed).
func (s *SessionStore) Get(sessionID string) (core.Session, error) {
	s.mu.RLock()
	session, exists := s.sessions[sessionID]
	s.mu.RUnlock()

	if !exists {
		return core.Session{}, ErrSessionNotFound
	}

	if session.IsExpired() {
		s.mu.Lock()
		delete(s.sessions, sessionID)
		s.mu.Unlock()
		return core.Session{}, ErrSessionExpired
	}

	return session, nil
}

// Delete removes a session from the store. Unknown IDs are a no-op.
func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// Cleanup removes all expired sessions and returns how many were removed.
func (s *SessionStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, id)
			removed++
		}
	}

	return removed
}

// StartCleanupTicker runs Cleanup every interval until ctx is cancelled.
func (s *SessionStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Count returns the number of stored sessions, expired ones included.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
