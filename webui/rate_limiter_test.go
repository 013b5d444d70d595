package webui

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsNewIP(t *testing.T) {
	limiter := NewRateLimiter(5, 1, 5)

	allowed, remaining := limiter.Allow("10.0.0.1")
	if !allowed {
		t.Error("Allow() = false for unseen IP")
	}
	if remaining != 0 {
		t.Errorf("remaining = %v for unseen IP, want 0", remaining)
	}
}

func TestRateLimiterBlocksAfterMaxAttempts(t *testing.T) {
	limiter := NewRateLimiter(3, 1, 5)
	ip := "10.0.0.2"

	for i := 0; i < 3; i++ {
		limiter.RecordAttempt(ip)
	}

	allowed, remaining := limiter.Allow(ip)
	if allowed {
		t.Error("Allow() = true after max attempts")
	}
	if remaining <= 0 {
		t.Errorf("remaining = %v when blocked, want > 0", remaining)
	}

	// Other IPs are unaffected.
	if allowed, _ := limiter.Allow("10.0.0.99"); !allowed {
		t.Error("Allow() = false for a different IP")
	}
}

func TestRateLimiterResetClearsBlock(t *testing.T) {
	limiter := NewRateLimiter(2, 1, 5)
	ip := "10.0.0.3"

	limiter.RecordAttempt(ip)
	limiter.RecordAttempt(ip)
	if allowed, _ := limiter.Allow(ip); allowed {
		t.Fatal("Allow() = true after max attempts")
	}

	limiter.Reset(ip)
	if allowed, _ := limiter.Allow(ip); !allowed {
		t.Error("Allow() = false after Reset")
	}
	if got := limiter.GetAttemptCount(ip); got != 0 {
		t.Errorf("GetAttemptCount() = %d after Reset, want 0", got)
	}
}

func TestRateLimiterAttemptCount(t *testing.T) {
	limiter := NewRateLimiter(5, 1, 5)
	ip := "10.0.0.4"

	if got := limiter.GetAttemptCount(ip); got != 0 {
		t.Errorf("GetAttemptCount() = %d for unseen IP, want 0", got)
	}

	limiter.RecordAttempt(ip)
	limiter.RecordAttempt(ip)
	if got := limiter.GetAttemptCount(ip); got != 2 {
		t.Errorf("GetAttemptCount() = %d, want 2", got)
	}
}

func TestRateLimiterCleanupRemovesExpired(t *testing.T) {
	// A zero-minute window expires immediately.
	limiter := NewRateLimiter(5, 0, 5)

	limiter.RecordAttempt("10.0.0.5")
	time.Sleep(5 * time.Millisecond)

	if removed := limiter.Cleanup(); removed != 1 {
		t.Errorf("Cleanup() = %d, want 1", removed)
	}
	if limiter.Count() != 0 {
		t.Errorf("Count() = %d after Cleanup, want 0", limiter.Count())
	}
}
