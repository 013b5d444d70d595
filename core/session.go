package core

import (
	"time"
)

// DefaultSessionDuration is how long a dashboard session stays valid (24 hours).
const DefaultSessionDuration = 24 * time.Hour

// Session represents an authenticated dashboard session.
// Sessions are held in memory by the web UI's session store; they do not
// survive a restart, which is acceptable for a single-password dashboard.
type Session struct {
	// ID is the opaque session identifier stored in the client cookie
	ID string

	// CreatedAt is when the session was established
	CreatedAt time.Time

	// ExpiresAt is when the session stops being valid
	ExpiresAt time.Time
}

// NewSession creates a Session with the given ID and the default duration.
func NewSession(id string) Session {
	return NewSessionWithDuration(id, DefaultSessionDuration)
}

// NewSessionWithDuration creates a Session with the given ID and lifetime.
func NewSessionWithDuration(id string, duration time.Duration) Session {
	now := time.Now()
	return Session{
		ID:        id,
		CreatedAt: now,
		ExpiresAt: now.Add(duration),
	}
}

// IsExpired returns true if the session is past its expiry time.
func (s Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// TimeRemaining returns how long until the session expires.
// Returns zero for an already expired session.
func (s Session) TimeRemaining() time.Duration {
	remaining := time.Until(s.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}
