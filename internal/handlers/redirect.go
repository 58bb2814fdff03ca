package handlers

import (
	"strings"
)

const defaultAfterLogin = "/dashboard"

var disallowedRedirect = map[string]struct{}{
	"/":       {},
	"/login":  {},
	"/logout": {},
}

// sanitizeRedirect accepts only local paths, so the login form's redirect
// parameter cannot send a user off-site.
func sanitizeRedirect(path string) (string, bool) {
	if path == "" {
		return "", false
	}

	if strings.ContainsAny(path, "\r\n\\") {
		return "", false
	}

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "//") {
		return "", false
	}

	if !strings.HasPrefix(path, "/") {
		return "", false
	}

	base := path
	if idx := strings.IndexAny(path, "?#"); idx != -1 {
		base = path[:idx]
	}

	if _, blocked := disallowedRedirect[base]; blocked {
		return "", false
	}

	if strings.HasPrefix(base, "/api/") {
		return "", false
	}

	return path, true
}

func afterLogin(requested string) string {
	if target, ok := sanitizeRedirect(requested); ok {
		return target
	}
	return defaultAfterLogin
}
