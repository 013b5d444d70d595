// Package auth provides session-cookie authentication for the dashboard.
// This file contains the middleware organism composing the password,
// session, rate limiting and cookie molecules.
package auth

import (
	"net/http"
	"strconv"
	"time"

	"freightaudit/core"
	"freightaudit/logging"
	"freightaudit/webui"

	"go.uber.org/zap"
)

// Default middleware configuration.
const (
	// DefaultRateLimitAttempts is failed logins before an IP is blocked.
	DefaultRateLimitAttempts = 5

	// DefaultRateLimitWindowMinutes is the counting window.
	DefaultRateLimitWindowMinutes = 1

	// DefaultRateLimitBlockMinutes is the block duration after max attempts.
	DefaultRateLimitBlockMinutes = 5

	// DefaultSessionTTL is the session lifetime.
	DefaultSessionTTL = 24 * time.Hour
)

// Middleware is the authentication organism guarding the dashboard.
//
// Organism composition:
//   - bcrypt password hash (password.go) for credential verification
//   - webui.SessionStore for session management
//   - webui.RateLimiter for brute force protection
//   - cookie molecules (cookie.go) for session transport
//
// The dashboard has a single shared password; there are no user accounts.
type Middleware struct {
	passwordHash string
	sessions     *webui.SessionStore
	rateLimiter  *webui.RateLimiter
	logger       *logging.Logger
	cookieConfig CookieConfig
}

// Config holds Middleware options.
type Config struct {
	// SessionTTL is how long sessions remain valid (default: 24 hours)
	SessionTTL time.Duration

	// RateLimitAttempts is failed attempts before blocking (default: 5)
	RateLimitAttempts int

	// RateLimitWindowMinutes is the counting window (default: 1)
	RateLimitWindowMinutes int

	// RateLimitBlockMinutes is the block duration (default: 5)
	RateLimitBlockMinutes int

	// SecureCookies sets the Secure flag on cookies (true behind TLS)
	SecureCookies bool
}

// DefaultConfig returns a Config with the package defaults.
func DefaultConfig() Config {
	return Config{
		SessionTTL:             DefaultSessionTTL,
		RateLimitAttempts:      DefaultRateLimitAttempts,
		RateLimitWindowMinutes: DefaultRateLimitWindowMinutes,
		RateLimitBlockMinutes:  DefaultRateLimitBlockMinutes,
		SecureCookies:          false,
	}
}

// NewMiddleware creates a Middleware for the given plaintext password using
// the default configuration. The password is hashed immediately and the
// plaintext is not retained.
func NewMiddleware(password string, logger *logging.Logger) (*Middleware, error) {
	return NewMiddlewareWithConfig(password, logger, DefaultConfig())
}

// NewMiddlewareWithConfig creates a Middleware with custom limits.
func NewMiddlewareWithConfig(password string, logger *logging.Logger, cfg Config) (*Middleware, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	cookieConfig := DefaultCookieConfig()
	cookieConfig.Secure = cfg.SecureCookies
	cookieConfig.MaxAge = DurationToSeconds(cfg.SessionTTL)

	return &Middleware{
		passwordHash: hash,
		sessions:     webui.NewSessionStore(cfg.SessionTTL),
		rateLimiter: webui.NewRateLimiter(
			cfg.RateLimitAttempts,
			cfg.RateLimitWindowMinutes,
			cfg.RateLimitBlockMinutes,
		),
		logger:       logger.Named("auth"),
		cookieConfig: cookieConfig,
	}, nil
}

// Middleware wraps next with session validation. Requests without a valid
// session receive 401 Unauthorized.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := ParseSessionCookie(r)
		if err != nil {
			m.logger.Debug("no session cookie",
				zap.String("path", r.URL.Path),
				zap.String("ip", clientIP(r)))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if _, err := m.sessions.Get(sessionID); err != nil {
			m.logger.Debug("invalid session",
				zap.String("path", r.URL.Path),
				zap.String("ip", clientIP(r)),
				zap.Error(err))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// MiddlewareFunc is the HandlerFunc form of Middleware.
func (m *Middleware) MiddlewareFunc(next http.HandlerFunc) http.HandlerFunc {
	return m.Middleware(next).ServeHTTP
}

// CheckRateLimit reports whether an IP may attempt authentication. When the
// IP is blocked it writes a 429 response with Retry-After and returns false.
func (m *Middleware) CheckRateLimit(w http.ResponseWriter, ip string) bool {
	allowed, remaining := m.rateLimiter.Allow(ip)
	if !allowed {
		m.logger.Warn("login rate limit exceeded",
			zap.String("ip", ip),
			zap.Duration("remaining", remaining))
		w.Header().Set("Retry-After", formatRetryAfter(remaining))
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return false
	}
	return true
}

// RecordFailedAttempt records a failed login for rate limiting.
func (m *Middleware) RecordFailedAttempt(ip string) {
	m.rateLimiter.RecordAttempt(ip)
	m.logger.Info("failed login attempt",
		zap.String("ip", ip),
		zap.Int("attempts", m.rateLimiter.GetAttemptCount(ip)))
}

// ResetRateLimit clears the attempt counter after a successful login.
func (m *Middleware) ResetRateLimit(ip string) {
	m.rateLimiter.Reset(ip)
}

// VerifyPassword checks a plaintext password against the stored hash.
func (m *Middleware) VerifyPassword(password string) error {
	return VerifyPassword(password, m.passwordHash)
}

// CreateSession creates an authenticated session and the cookie to set on
// the response.
func (m *Middleware) CreateSession() (core.Session, *http.Cookie, error) {
	session, err := m.sessions.Create()
	if err != nil {
		m.logger.Error("failed to create session", zap.Error(err))
		return core.Session{}, nil, err
	}

	cookie, err := NewSessionCookie(session.ID, m.cookieConfig)
	if err != nil {
		return core.Session{}, nil, err
	}

	m.logger.Info("session created",
		zap.String("session_id", truncateSessionID(session.ID)),
		zap.Time("expires_at", session.ExpiresAt))

	return session, cookie, nil
}

// DestroySession removes a session and returns the clearing cookie.
func (m *Middleware) DestroySession(sessionID string) *http.Cookie {
	m.sessions.Delete(sessionID)
	return ClearSessionCookie()
}

// GetSession looks up a session by ID.
func (m *Middleware) GetSession(sessionID string) (core.Session, error) {
	return m.sessions.Get(sessionID)
}

// SessionStore exposes the underlying store so main can wire its cleanup
// ticker.
func (m *Middleware) SessionStore() *webui.SessionStore {
	return m.sessions
}

// RateLimiter exposes the underlying limiter for its cleanup ticker.
func (m *Middleware) RateLimiter() *webui.RateLimiter {
	return m.rateLimiter
}

// clientIP extracts the client IP, honoring proxy headers and stripping the
// port from RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	addr := r.RemoteAddr
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}

// formatRetryAfter renders a duration as whole seconds, minimum 1.
func formatRetryAfter(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}

// truncateSessionID returns a loggable session ID prefix.
func truncateSessionID(sessionID string) string {
	if len(sessionID) <= 8 {
		return sessionID
	}
	return sessionID[:8] + "..."
}
