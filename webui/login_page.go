// Package webui provides the dashboard and audit API for the freight
// delivery audit backend. This file renders the login page.
package webui

import (
	"fmt"
	"html"
	"net/http"
)

const loginPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Freight Audit - Login</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; background: #1e2430; color: #e6e9ef;
       display: flex; align-items: center; justify-content: center; min-height: 100vh; margin: 0; }
.card { background: #2a3242; border-radius: 8px; padding: 2rem 2.5rem; width: 320px; }
h1 { font-size: 1.2rem; margin: 0 0 1.5rem; }
input[type=password] { width: 100%%; padding: 0.6rem; border: 1px solid #3d485c; border-radius: 4px;
       background: #1e2430; color: #e6e9ef; box-sizing: border-box; }
button { width: 100%%; margin-top: 1rem; padding: 0.6rem; border: 0; border-radius: 4px;
       background: #4a7dbd; color: #fff; font-size: 1rem; cursor: pointer; }
.error { color: #e57373; font-size: 0.85rem; margin-bottom: 1rem; }
</style>
</head>
<body>
<div class="card">
<h1>Freight Audit Dashboard</h1>
%s<form method="post" action="/login">
<input type="password" name="password" placeholder="Password" autofocus required>
<button type="submit">Sign in</button>
</form>
</div>
</body>
</html>
`

// HandleLoginPage renders the login form. An "error" query parameter, as set
// by a failed login redirect, is displayed above the form.
func HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	errorBlock := ""
	if msg := r.URL.Query().Get("error"); msg != "" {
		errorBlock = fmt.Sprintf("<div class=\"error\">%s</div>\n", html.EscapeString(msg))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, loginPageHTML, errorBlock)
}
