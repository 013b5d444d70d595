package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Errorf("hash = %q, want bcrypt format", hash)
	}

	if err := VerifyPassword("correct horse battery staple", hash); err != nil {
		t.Errorf("VerifyPassword() with correct password: %v", err)
	}
}

func TestVerifyPasswordMismatch(t *testing.T) {
	hash, err := HashPassword("right")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}

	if err := VerifyPassword("wrong", hash); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("VerifyPassword() error = %v, want %v", err, ErrPasswordMismatch)
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword(""); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("HashPassword(\"\") error = %v, want %v", err, ErrEmptyPassword)
	}
}

func TestVerifyPasswordInvalidInputs(t *testing.T) {
	if err := VerifyPassword("", "some-hash"); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("empty password error = %v, want %v", err, ErrEmptyPassword)
	}
	if err := VerifyPassword("password", ""); !errors.Is(err, ErrInvalidHash) {
		t.Errorf("empty hash error = %v, want %v", err, ErrInvalidHash)
	}
	if err := VerifyPassword("password", "not-a-bcrypt-hash"); !errors.Is(err, ErrInvalidHash) {
		t.Errorf("garbage hash error = %v, want %v", err, ErrInvalidHash)
	}
}
