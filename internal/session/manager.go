package session

import (
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/loganlanou/course-admin/internal/backend"
)

// CookieName is the dashboard's own UI session cookie.
const CookieName = "course_admin_ui"

const (
	sessionName = CookieName
	idKey       = "sid"
	userKey     = "user"
	stateKey    = "ui_state"
	expiredKey  = "session_expired"
)

// DefaultMaxAge is how long a browsing session lasts when Options leaves it unset.
const DefaultMaxAge = 7 * 24 * time.Hour

// Options configures the UI cookie.
type Options struct {
	Secret string
	Secure bool
	MaxAge time.Duration
}

// Lifetime is the browsing-session length. One-shot marks must live at
// least this long or a notice could fire twice in one session.
func (o Options) Lifetime() time.Duration {
	if o.MaxAge <= 0 {
		return DefaultMaxAge
	}
	return o.MaxAge
}

// Manager loads and saves the per-browser UI state: a browsing session id,
// the cached profile mirror and pending toasts.
type Manager struct {
	store sessions.Store
	once  OnceStore
}

// NewManager creates a new session manager
func NewManager(opts Options, once OnceStore) *Manager {
	gob.Register(&UserData{})
	gob.Register(Notice{})

	store := sessions.NewCookieStore([]byte(opts.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.Lifetime().Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	if once == nil {
		once = NewMemoryStore(opts.Lifetime())
	}

	return &Manager{
		store: store,
		once:  once,
	}
}

// Load reads the UI state for the request, starting a fresh browsing session
// when the cookie is missing or unreadable.
func (m *Manager) Load(c echo.Context) *State {
	sess, err := m.store.Get(c.Request(), sessionName)
	if err != nil {
		slog.Debug("ui session unreadable, starting new one", "error", err)
	}

	st := &State{once: m.once}

	if id, ok := sess.Values[idKey].(string); ok && id != "" {
		st.ID = id
	} else {
		st.ID = uuid.NewString()
	}

	if user, ok := sess.Values[userKey].(*UserData); ok && user != nil {
		st.user = user
	}

	for _, flash := range sess.Flashes() {
		if n, ok := flash.(Notice); ok {
			st.notices = append(st.notices, n)
		}
	}

	return st
}

// Save writes the state back. Notices not yet rendered are kept as flashes
// for the next page.
func (m *Manager) Save(c echo.Context, st *State) error {
	sess, err := m.store.Get(c.Request(), sessionName)
	if err != nil && sess == nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	st.mu.Lock()
	sess.Values[idKey] = st.ID
	if st.user != nil {
		sess.Values[userKey] = st.user
	} else {
		delete(sess.Values, userKey)
	}
	for _, n := range st.notices {
		sess.AddFlash(n)
	}
	st.notices = nil
	st.mu.Unlock()

	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Middleware loads the state into the Echo context and saves it just before
// the response headers go out.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			st := m.Load(c)
			c.Set(stateKey, st)

			c.Response().Before(func() {
				if err := m.Save(c, st); err != nil {
					slog.Error("failed to save ui session", "error", err, "path", c.Request().URL.Path)
				}
			})

			return next(c)
		}
	}
}

// FromContext returns the state loaded by Middleware.
func FromContext(c echo.Context) (*State, bool) {
	st, ok := c.Get(stateKey).(*State)
	return st, ok && st != nil
}

// State is one browsing session's UI state. It implements backend.Notifier.
type State struct {
	ID string

	once OnceStore

	mu            sync.Mutex
	user          *UserData
	notices       []Notice
	expiredRaised bool
}

var _ backend.Notifier = (*State)(nil)

// SessionExpired queues the "session expired" toast at most once per browsing
// session, however many requests see a 401.
func (s *State) SessionExpired(ctx context.Context) {
	id := s.SessionID()
	first, err := s.once.MarkOnce(ctx, id, expiredKey)
	if err != nil {
		slog.Warn("failed to record session-expired notice", "error", err, "session", id)
		return
	}
	if !first {
		return
	}

	s.mu.Lock()
	s.expiredRaised = true
	s.notices = append(s.notices, Notice{Kind: KindError, Message: backend.Message(backend.ErrUnauthenticated)})
	s.mu.Unlock()
}

func (s *State) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ID
}

// ExpiredRaised reports whether this request raised the expiry notice.
func (s *State) ExpiredRaised() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiredRaised
}

func (s *State) Flash(kind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, Notice{Kind: kind, Message: message})
}

// TakeNotices returns and clears pending notices.
func (s *State) TakeNotices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}

// User returns the cached profile mirror, or nil.
func (s *State) User() *UserData {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Remember replaces the cached profile when the backend reports different
// values. It returns true when something changed.
func (s *State) Remember(u UserData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil && *s.user == u {
		return false
	}
	s.user = &u
	return true
}

// Rotate starts a new browsing session, e.g. after login, so one-shot
// notices can fire again.
func (s *State) Rotate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ID = uuid.NewString()
	s.expiredRaised = false
}

// Forget drops the cached profile and rotates the session.
func (s *State) Forget() {
	s.Rotate()
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}
