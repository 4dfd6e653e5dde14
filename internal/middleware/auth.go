package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/scribble/internal/auth"
)

// IdentityResolver maps a session token to the identity it belongs to.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (auth.Identity, error)
}

// LoadIdentity resolves the session cookie, if any, and stores the result on
// the request context. Requests without a valid session continue as anonymous.
func LoadIdentity(resolver IdentityResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id auth.Identity
			if cookie, err := r.Cookie(auth.SessionCookie); err == nil && cookie.Value != "" {
				resolved, err := resolver.Resolve(r.Context(), cookie.Value)
				if err != nil {
					logger.Error("resolve session", "error", err)
					http.Error(w, "Internal error", http.StatusInternalServerError)
					return
				}
				id = resolved
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAuth sends anonymous requests to the login page. It expects
// LoadIdentity to have run first.
// HTMX-aware: returns HX-Redirect header instead of 303 redirect for HTMX requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.FromContext(r.Context()).Anonymous() {
			redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
