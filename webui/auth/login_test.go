package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"freightaudit/logging"
)

func postLogin(t *testing.T, handler http.HandlerFunc, password string) *httptest.ResponseRecorder {
	t.Helper()

	form := url.Values{}
	if password != "" {
		form.Set("password", password)
	}

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestLoginSuccessSetsSessionCookie(t *testing.T) {
	m := newTestMiddleware(t)
	handler := m.LoginHandler()

	rec := postLogin(t, handler, testPassword)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != SuccessRedirect {
		t.Errorf("Location = %q, want %q", loc, SuccessRedirect)
	}

	cookies := rec.Result().Cookies()
	var sessionCookie *http.Cookie
	for _, c := range cookies {
		if c.Name == SessionCookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("no session cookie set on successful login")
	}
	if _, err := m.GetSession(sessionCookie.Value); err != nil {
		t.Errorf("session from cookie is invalid: %v", err)
	}
}

func TestLoginWrongPasswordRedirectsWithError(t *testing.T) {
	m := newTestMiddleware(t)
	handler := m.LoginHandler()

	rec := postLogin(t, handler, "wrong-password")

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, LoginPath) || !strings.Contains(loc, "error=") {
		t.Errorf("Location = %q, want login path with error", loc)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("cookie set on failed login")
	}
}

func TestLoginRateLimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitAttempts = 2
	m, err := NewMiddlewareWithConfig(testPassword, logging.NewTestLogger(), cfg)
	if err != nil {
		t.Fatalf("NewMiddlewareWithConfig() error: %v", err)
	}
	handler := m.LoginHandler()

	postLogin(t, handler, "wrong")
	postLogin(t, handler, "wrong")

	rec := postLogin(t, handler, testPassword)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d after block, want 429", rec.Code)
	}
}

func TestLoginGETRendersForm(t *testing.T) {
	m := newTestMiddleware(t)
	handler := m.LoginHandler()

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `name="password"`) {
		t.Error("login page missing password field")
	}
}

func TestLoginGETRedirectsWhenAlreadyAuthenticated(t *testing.T) {
	m := newTestMiddleware(t)
	handler := m.LoginHandler()

	_, cookie, err := m.CreateSession()
	if err != nil {
		t.Fatalf("CreateSession() error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusFound {
		t.Errorf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != SuccessRedirect {
		t.Errorf("Location = %q, want %q", loc, SuccessRedirect)
	}
}

func TestLoginRejectsOtherMethods(t *testing.T) {
	m := newTestMiddleware(t)
	handler := m.LoginHandler()

	req := httptest.NewRequest(http.MethodDelete, "/login", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
