// Package auth provides session-cookie authentication for the dashboard.
// This file contains the bcrypt password hashing molecule.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for password hashing. 12 keeps a single
// verification around 250ms on current hardware, slow enough to blunt
// offline attacks on a leaked hash.
const BcryptCost = 12

// ErrEmptyPassword is returned when hashing or verifying an empty password.
var ErrEmptyPassword = errors.New("auth: password cannot be empty")

// ErrPasswordMismatch is returned when a password does not match its hash.
var ErrPasswordMismatch = errors.New("auth: password does not match")

// ErrInvalidHash is returned when the stored hash is not a valid bcrypt hash.
var ErrInvalidHash = errors.New("auth: invalid password hash")

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyPassword compares a plaintext password against a bcrypt hash.
// Returns nil on match, ErrPasswordMismatch when the password is wrong, and
// ErrInvalidHash when the stored hash is malformed.
func VerifyPassword(password, hash string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if hash == "" {
		return ErrInvalidHash
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return ErrInvalidHash
}
