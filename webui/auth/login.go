// Package auth provides session-cookie authentication for the dashboard.
// This file contains the login handler.
package auth

import (
	"net/http"
	"net/url"
	"time"

	"freightaudit/webui"

	"go.uber.org/zap"
)

const (
	// FailedLoginDelay is added after every failed attempt to slow brute
	// force attacks and flatten timing differences.
	FailedLoginDelay = 1 * time.Second

	// SuccessRedirect is where a successful login lands.
	SuccessRedirect = "/"

	// LoginPath is the login page path.
	LoginPath = "/login"
)

// LoginHandler returns the handler for the /login endpoint.
//
// GET renders the login form (redirecting straight to the dashboard when a
// valid session already exists). POST verifies the password:
//  1. rate limit check for the client IP
//  2. password verification against the bcrypt hash
//  3. on success: create session, set cookie, redirect
//  4. on failure: record the attempt, delay, redirect back with an error
func (m *Middleware) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			m.handleLoginGET(w, r)
		case http.MethodPost:
			m.handleLoginPOST(w, r)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (m *Middleware) handleLoginGET(w http.ResponseWriter, r *http.Request) {
	if sessionID, err := ParseSessionCookie(r); err == nil {
		if _, err := m.GetSession(sessionID); err == nil {
			http.Redirect(w, r, SuccessRedirect, http.StatusFound)
			return
		}
	}

	webui.HandleLoginPage(w, r)
}

func (m *Middleware) handleLoginPOST(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	if !m.CheckRateLimit(w, ip) {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	password := r.FormValue("password")
	if password == "" {
		time.Sleep(FailedLoginDelay)
		redirectWithError(w, r, "Password is required")
		return
	}

	if err := m.VerifyPassword(password); err != nil {
		m.RecordFailedAttempt(ip)
		time.Sleep(FailedLoginDelay)
		redirectWithError(w, r, "Invalid password")
		return
	}

	_, cookie, err := m.CreateSession()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	m.ResetRateLimit(ip)
	http.SetCookie(w, cookie)

	m.logger.Info("login successful", zap.String("ip", ip))

	// 303 so a refresh does not resubmit the form.
	http.Redirect(w, r, SuccessRedirect, http.StatusSeeOther)
}

// redirectWithError sends the client back to the login form with an error
// message in the query string.
func redirectWithError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, LoginPath+"?error="+url.QueryEscape(msg), http.StatusSeeOther)
}
