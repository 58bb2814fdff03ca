package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/course-admin/internal/backend"
	"github.com/loganlanou/course-admin/internal/content"
	"github.com/loganlanou/course-admin/internal/session"
	"github.com/loganlanou/course-admin/views/layout"
)

const (
	jarKey = "backend_jar"
	// CSRFContextKey is where Echo's CSRF middleware leaves the form token.
	CSRFContextKey = "csrf"
	// CSRFCookieName holds the dashboard's own form token.
	CSRFCookieName = "_csrf"
)

// OwnCookies names the cookies that belong to the dashboard and are never
// forwarded to the backend.
func OwnCookies() []string {
	return []string{session.CookieName, CSRFCookieName}
}

// Handler serves the dashboard pages and the browser-facing API.
type Handler struct {
	client *backend.Client
	repo   *content.Repository
}

func New(client *backend.Client) *Handler {
	return &Handler{
		client: client,
		repo:   content.NewRepository(client),
	}
}

// jarFor returns the request's cookie jar, creating it on first use. Cookies
// the backend sets are copied to the browser just before headers go out.
func jarFor(c echo.Context) *backend.Jar {
	if jar, ok := c.Get(jarKey).(*backend.Jar); ok {
		return jar
	}

	var notifier backend.Notifier
	if st, ok := session.FromContext(c); ok {
		notifier = st
	}

	jar := backend.NewJar(backend.Without(c.Request().Cookies(), OwnCookies()...), notifier)
	c.Set(jarKey, jar)

	c.Response().Before(func() {
		for _, ck := range jar.Received() {
			http.SetCookie(c.Response(), ck)
		}
	})

	return jar
}

func csrfToken(c echo.Context) string {
	token, _ := c.Get(CSRFContextKey).(string)
	return token
}

func uiState(c echo.Context) *session.State {
	if st, ok := session.FromContext(c); ok {
		return st
	}
	return nil
}

func flash(c echo.Context, kind, message string) {
	if st := uiState(c); st != nil {
		st.Flash(kind, message)
	}
}

// page builds the layout shell. Call it after backend calls so notices they
// raised are included.
func page(c echo.Context, title, active string) layout.Page {
	p := layout.Page{
		Title:     title,
		Active:    active,
		CSRFToken: csrfToken(c),
		Nav:       navigation(),
	}
	if st := uiState(c); st != nil {
		p.User = st.User()
		p.Notices = st.TakeNotices()
	}
	return p
}

func navigation() []layout.NavItem {
	items := []layout.NavItem{{Label: "Dashboard", Href: "/dashboard"}}
	for _, res := range content.All() {
		items = append(items, layout.NavItem{Label: res.Title, Href: "/dashboard/" + res.Key})
	}
	return append(items, layout.NavItem{Label: "Profile", Href: "/dashboard/profile"})
}

func rememberUser(c echo.Context, u *backend.User) {
	st := uiState(c)
	if st == nil || u == nil {
		return
	}
	st.Remember(session.UserData{
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.Picture(),
	})
}
