package core

import (
	"time"
)

// DefaultRateLimitWindow is the default time window for login rate limiting.
const DefaultRateLimitWindow = 15 * time.Minute

// DefaultMaxAttempts is the default number of failed logins before blocking.
const DefaultMaxAttempts = 5

// AttemptRecord tracks failed authentication attempts for one identifier
// (typically a client IP address).
type AttemptRecord struct {
	// Count is the number of attempts within the current window
	Count int

	// ResetAt is when the attempt count should reset
	ResetAt time.Time
}

// NewAttemptRecord creates a record with count=1 and the default window.
func NewAttemptRecord() AttemptRecord {
	return NewAttemptRecordWithWindow(DefaultRateLimitWindow)
}

// NewAttemptRecordWithWindow creates a record with count=1 and a custom window.
func NewAttemptRecordWithWindow(window time.Duration) AttemptRecord {
	return AttemptRecord{
		Count:   1,
		ResetAt: time.Now().Add(window),
	}
}

// ShouldReset returns true once the current time is past ResetAt.
func (a AttemptRecord) ShouldReset() bool {
	return time.Now().After(a.ResetAt)
}

// IsBlocked returns true if the attempt count has reached the given limit.
func (a AttemptRecord) IsBlocked(maxAttempts int) bool {
	return a.Count >= maxAttempts
}

// TimeUntilReset returns the duration until the record resets.
// Returns zero if already past the reset time.
func (a AttemptRecord) TimeUntilReset() time.Duration {
	remaining := time.Until(a.ResetAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Increment returns a new record with the count incremented. If the window
// already expired, a fresh record with count=1 is returned instead.
func (a AttemptRecord) Increment() AttemptRecord {
	if a.ShouldReset() {
		return NewAttemptRecord()
	}
	return AttemptRecord{
		Count:   a.Count + 1,
		ResetAt: a.ResetAt,
	}
}
