// Package middleware wires the session into every request and provides the
// access guards composed at route registration time.
package middleware

import (
	"context"
	"net/http"
	"net/url"

	"bookstore/sessions"
)

type contextKey int

const sessionKey contextKey = iota

// WithSession resolves (or creates) the request's session from its cookie
// and stashes it in the request context for handlers and guards.
func WithSession(store *sessions.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := store.Ensure(w, r)
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom returns the request's session, or nil when WithSession did not
// run (which is a wiring bug, not a runtime condition).
func SessionFrom(ctx context.Context) *sessions.Session {
	sess, _ := ctx.Value(sessionKey).(*sessions.Session)
	return sess
}

// LoginRequired redirects unauthenticated requests to the login page,
// preserving the original path so login can return the user there.
func LoginRequired(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFrom(r.Context())
		if sess == nil || !sess.Authenticated() {
			if sess != nil {
				sess.AddFlash("warning", "Please log in to access this page.")
			}
			http.Redirect(w, r, "/auth/login?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// AdminRequired allows only authenticated admins through; everyone else is
// sent home with a warning.
func AdminRequired(next http.HandlerFunc) http.HandlerFunc {
	return LoginRequired(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFrom(r.Context())
		if !sess.IsAdmin {
			sess.AddFlash("danger", "You do not have permission to access this page.")
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next(w, r)
	})
}
