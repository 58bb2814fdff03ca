package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/loganlanou/course-admin/internal/backend"
)

// Decision is the guard's verdict for one navigation.
type Decision int

const (
	Allowed Decision = iota
	Redirected
)

func (d Decision) String() string {
	if d == Redirected {
		return "redirected"
	}
	return "allowed"
}

// Strategy decides whether a request carries a logged-in browser session.
type Strategy interface {
	Authenticated(r *http.Request) bool
}

// DefaultSessionCookies are the backend session cookie names recognised by
// CookiePresence when none are configured.
var DefaultSessionCookies = []string{"laravel_session", "course_admin_session"}

// CookiePresence allows a request when any recognised session cookie is
// present. The value is never inspected. This is a liveness check, not a
// security boundary: every backend call still authorizes on its own, and a
// stale or forged cookie surfaces as a 401 from the first data fetch.
type CookiePresence struct {
	Names []string
}

func (s CookiePresence) Authenticated(r *http.Request) bool {
	names := s.Names
	if len(names) == 0 {
		names = DefaultSessionCookies
	}
	for _, name := range names {
		if ck, err := r.Cookie(name); err == nil && ck.Value != "" {
			return true
		}
	}
	return false
}

// Checker verifies login state with the backend.
type Checker interface {
	CheckAuth(ctx context.Context, jar *backend.Jar) (*backend.User, error)
}

// BackendVerify asks the backend on every protected navigation. It costs one
// round trip per page; an unreachable backend counts as logged out.
type BackendVerify struct {
	Checker Checker
	// Skip names cookies that are not forwarded with the check.
	Skip []string
}

func (s BackendVerify) Authenticated(r *http.Request) bool {
	_, err := s.Checker.CheckAuth(r.Context(), backend.NewJar(backend.Without(r.Cookies(), s.Skip...), nil))
	return err == nil
}

// Guard protects path prefixes, sending anonymous visitors to the login page
// with the requested path in the redirect query parameter.
type Guard struct {
	Protected []string
	Public    []string
	LoginPath string
	Strategy  Strategy
}

// Decide returns the verdict and, when redirected, the login location.
func (g *Guard) Decide(r *http.Request) (Decision, string) {
	path := r.URL.Path

	if g.isPublic(path) || !g.isProtected(path) {
		return Allowed, ""
	}

	if g.Strategy != nil && g.Strategy.Authenticated(r) {
		return Allowed, ""
	}

	return Redirected, g.loginLocation(r)
}

func (g *Guard) loginLocation(r *http.Request) string {
	login := g.LoginPath
	if login == "" {
		login = "/"
	}

	original := r.URL.Path
	if r.URL.RawQuery != "" {
		original += "?" + r.URL.RawQuery
	}

	return login + "?" + url.Values{"redirect": {original}}.Encode()
}

func (g *Guard) isPublic(path string) bool {
	for _, p := range g.Public {
		if path == p {
			return true
		}
		// "/public/" style entries cover a subtree; "/" alone is exact.
		if p != "/" && strings.HasSuffix(p, "/") && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (g *Guard) isProtected(path string) bool {
	for _, prefix := range g.Protected {
		prefix = strings.TrimSuffix(prefix, "/")
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
