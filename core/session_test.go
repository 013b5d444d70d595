package core

import (
	"testing"
	"time"
)

func TestNewSessionWithDuration(t *testing.T) {
	session := NewSessionWithDuration("abc123", time.Hour)

	if session.ID != "abc123" {
		t.Errorf("ID = %q, want %q", session.ID, "abc123")
	}
	if session.IsExpired() {
		t.Error("IsExpired() = true for a fresh session")
	}

	remaining := session.TimeRemaining()
	if remaining <= 0 || remaining > time.Hour {
		t.Errorf("TimeRemaining() = %v, want within (0, 1h]", remaining)
	}
}

func TestSessionExpiry(t *testing.T) {
	session := NewSessionWithDuration("expired", -time.Minute)

	if !session.IsExpired() {
		t.Error("IsExpired() = false for a session expiring in the past")
	}
	if got := session.TimeRemaining(); got != 0 {
		t.Errorf("TimeRemaining() = %v for expired session, want 0", got)
	}
}

func TestGenerateSessionID(t *testing.T) {
	first, err := GenerateSessionID()
	if err != nil {
		t.Fatalf("GenerateSessionID() error: %v", err)
	}
	if first == "" {
		t.Fatal("GenerateSessionID() returned empty string")
	}

	// 32 bytes base64-encoded without padding is 43 characters.
	if len(first) != 43 {
		t.Errorf("len(id) = %d, want 43", len(first))
	}

	second, err := GenerateSessionID()
	if err != nil {
		t.Fatalf("GenerateSessionID() error: %v", err)
	}
	if first == second {
		t.Error("two generated session IDs are identical")
	}
}
