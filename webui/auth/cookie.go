// Package auth provides session-cookie authentication for the dashboard.
// This file contains the secure cookie builder molecule.
package auth

import (
	"errors"
	"net/http"
	"time"
)

const (
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session_id"

	// DefaultCookieMaxAge matches the default session lifetime (24 hours).
	DefaultCookieMaxAge = 24 * 60 * 60 // seconds

	// DefaultCookiePath is the path the cookie is valid for.
	DefaultCookiePath = "/"
)

// ErrNoCookie is returned when the session cookie is absent from a request.
var ErrNoCookie = errors.New("auth: cookie not found")

// ErrEmptySessionID is returned when building a cookie with an empty ID.
var ErrEmptySessionID = errors.New("auth: session ID cannot be empty")

// CookieConfig holds session cookie settings with secure defaults.
type CookieConfig struct {
	// Name is the cookie name (default: "session_id")
	Name string

	// MaxAge is the cookie lifetime in seconds
	MaxAge int

	// Secure restricts the cookie to HTTPS. False by default so that a
	// plain-HTTP localhost deployment still works; set true behind TLS.
	Secure bool

	// HTTPOnly keeps the cookie out of reach of page scripts
	HTTPOnly bool

	// SameSite controls cross-site request behavior
	SameSite http.SameSite
}

// DefaultCookieConfig returns the secure defaults: HTTPOnly, SameSite
// Strict, 24 hour lifetime.
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Name:     SessionCookieName,
		MaxAge:   DefaultCookieMaxAge,
		Secure:   false,
		HTTPOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// NewSessionCookie builds a session cookie carrying the given session ID.
func NewSessionCookie(sessionID string, cfg CookieConfig) (*http.Cookie, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	name := cfg.Name
	if name == "" {
		name = SessionCookieName
	}

	return &http.Cookie{
		Name:     name,
		Value:    sessionID,
		Path:     DefaultCookiePath,
		MaxAge:   cfg.MaxAge,
		HttpOnly: cfg.HTTPOnly,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	}, nil
}

// ParseSessionCookie extracts the session ID from the request's session
// cookie. Returns ErrNoCookie when the cookie is absent.
func ParseSessionCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNoCookie
		}
		return "", err
	}

	return cookie.Value, nil
}

// ClearSessionCookie returns a cookie that instructs the browser to delete
// the session cookie. Used on logout.
func ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     DefaultCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// DurationToSeconds converts a duration to cookie MaxAge seconds.
// Keeps cookie expiry aligned with the session store TTL.
func DurationToSeconds(d time.Duration) int {
	return int(d.Seconds())
}
