// Package auth provides session-cookie authentication for the dashboard.
// This file contains the logout handler.
package auth

import (
	"net/http"

	"go.uber.org/zap"
)

// LogoutHandler returns the handler for the /logout endpoint. It destroys
// the session (if any), clears the cookie, and redirects to the login page.
// The handler is idempotent: logging out twice is not an error.
func (m *Middleware) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		if sessionID, err := ParseSessionCookie(r); err == nil {
			m.DestroySession(sessionID)
			m.logger.Info("session destroyed",
				zap.String("session_id", truncateSessionID(sessionID)),
				zap.String("ip", clientIP(r)))
		}

		http.SetCookie(w, ClearSessionCookie())

		redirectCode := http.StatusFound
		if r.Method == http.MethodPost {
			redirectCode = http.StatusSeeOther
		}
		http.Redirect(w, r, LoginPath, redirectCode)
	}
}
