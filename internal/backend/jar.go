package backend

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"
)

const (
	// CSRFCookieName is the readable cookie the backend issues the anti-forgery token in.
	CSRFCookieName = "XSRF-TOKEN"
	// CSRFHeader carries the token back on state-changing requests.
	CSRFHeader = "X-XSRF-TOKEN"
)

// Notifier receives relay events for one browsing session.
type Notifier interface {
	SessionExpired(ctx context.Context)
}

// Jar holds the cookies relayed between the browser and the backend for a
// single inbound request. It starts from the browser's cookies and records
// every Set-Cookie the backend answers with so the handler can pass them on.
type Jar struct {
	mu       sync.Mutex
	cookies  map[string]string
	received []*http.Cookie
	notifier Notifier

	// held while checking for and fetching the CSRF token
	csrfMu sync.Mutex
}

// NewJar seeds a jar with the browser's cookies. notifier may be nil.
func NewJar(cookies []*http.Cookie, notifier Notifier) *Jar {
	j := &Jar{
		cookies:  make(map[string]string, len(cookies)),
		notifier: notifier,
	}
	for _, ck := range cookies {
		if ck == nil || ck.Name == "" {
			continue
		}
		j.cookies[ck.Name] = ck.Value
	}
	return j
}

// Without returns cookies minus the named ones. The dashboard uses it to keep
// its own cookies from reaching the backend.
func Without(cookies []*http.Cookie, names ...string) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		if ck == nil || slices.Contains(names, ck.Name) {
			continue
		}
		out = append(out, ck)
	}
	return out
}

// Get returns the current value of a cookie.
func (j *Jar) Get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	v, ok := j.cookies[name]
	return v, ok
}

// CSRFToken returns the URL-decoded token, or "" when the cookie is absent.
func (j *Jar) CSRFToken() string {
	raw, ok := j.Get(CSRFCookieName)
	if !ok || raw == "" {
		return ""
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Received returns the cookies the backend set during this request, with the
// backend's Domain stripped so the browser scopes them to this host. When the
// same cookie was set more than once only the last value is kept.
func (j *Jar) Received() []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]*http.Cookie, 0, len(j.received))
	seen := make(map[string]int, len(j.received))
	for _, ck := range j.received {
		relayed := *ck
		relayed.Domain = ""
		relayed.Raw = ""
		relayed.Unparsed = nil
		if relayed.Path == "" {
			relayed.Path = "/"
		}

		key := relayed.Name + "\x00" + relayed.Path
		if i, ok := seen[key]; ok {
			out[i] = &relayed
			continue
		}
		seen[key] = len(out)
		out = append(out, &relayed)
	}
	return out
}

func (j *Jar) header() string {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.cookies) == 0 {
		return ""
	}
	names := make([]string, 0, len(j.cookies))
	for name := range j.cookies {
		names = append(names, name)
	}
	slices.Sort(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		// String is empty for names a cookie header cannot carry
		if part := (&http.Cookie{Name: name, Value: j.cookies[name]}).String(); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "; ")
}

func (j *Jar) store(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	for _, ck := range cookies {
		expired := ck.MaxAge < 0 || (!ck.Expires.IsZero() && ck.Expires.Before(now))
		if expired {
			delete(j.cookies, ck.Name)
		} else {
			j.cookies[ck.Name] = ck.Value
		}
		j.received = append(j.received, ck)
	}
}

func (j *Jar) sessionExpired(ctx context.Context) {
	if j.notifier != nil {
		j.notifier.SessionExpired(ctx)
	}
}
