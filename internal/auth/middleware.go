package auth

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"
)

// SessionReader is the subset of session.Manager the middleware needs.
type SessionReader interface {
	IsAdmin(r *http.Request) bool
}

// Attach injects the principal derived from the session into every request.
func Attach(s SessionReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := Principal{Admin: s.IsAdmin(r)}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAdmin redirects anonymous visitors to loginPath with a `next`
// parameter pointing back at the requested page.
func RequireAdmin(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if FromContext(r.Context()).Admin {
				next.ServeHTTP(w, r)
				return
			}
			target := loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusSeeOther)
		})
	}
}

// CheckPassword compares in constant time.
func CheckPassword(given, want string) bool {
	return want != "" && subtle.ConstantTimeCompare([]byte(given), []byte(want)) == 1
}

// SafeNext returns next when it is a local path under prefix, otherwise
// fallback.  Guards the login redirect against open redirects.
func SafeNext(next, prefix, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") ||
		strings.Contains(next, "\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return fallback
	}
	if u.Path != prefix && !strings.HasPrefix(u.Path, prefix+"/") {
		return fallback
	}
	return next
}
