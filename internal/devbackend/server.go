// Package devbackend is an in-memory stand-in for the course platform API,
// used for local development and end-to-end tests. It speaks the same
// cookie-session and XSRF-TOKEN protocol as the real backend.
package devbackend

import (
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/loganlanou/course-admin/internal/content"
)

const (
	sessionCookie = "laravel_session"
	csrfCookie    = "XSRF-TOKEN"
	csrfHeader    = "X-XSRF-TOKEN"
	perPage       = 15
)

// Admin is the single account the stand-in accepts.
type Admin struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Password string `json:"-"`
}

type Server struct {
	mu       sync.Mutex
	admin    Admin
	sessions map[string]bool // session id -> authenticated
	tables   map[string][]map[string]any
	nextID   int
	now      func() time.Time
}

// New creates a backend seeded with a few fake records per resource. The
// same seed always produces the same data.
func New(email, password string, seed uint64) *Server {
	s := &Server{
		admin: Admin{
			ID:       1,
			Name:     "Course Admin",
			Email:    email,
			Password: password,
		},
		sessions: map[string]bool{},
		tables:   map[string][]map[string]any{},
		nextID:   1,
		now:      time.Now,
	}

	faker := gofakeit.New(seed)
	for _, res := range content.All() {
		for i := 0; i < 3+faker.Number(0, 5); i++ {
			s.insert(res.Path, fakeRecord(faker, res))
		}
	}

	return s
}

// Register mounts the backend routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/sanctum/csrf-cookie", s.handleCSRFCookie)

	api := e.Group("/api", s.verifyCSRF)
	api.POST("/admin/login", s.handleLogin)

	admin := api.Group("/admin", s.requireSession)
	admin.GET("/me", s.handleMe)
	admin.GET("/profile", s.handleMe)
	admin.POST("/update", s.handleUpdateProfile)
	admin.POST("/logout", s.handleLogout)

	for _, res := range content.All() {
		path := strings.TrimPrefix(res.Path, "/admin")
		t := &table{server: s, key: res.Path}
		admin.GET(path, t.list)
		admin.POST(path, t.create)
		admin.GET(path+"/:id", t.get)
		admin.PUT(path+"/:id", t.update)
		admin.DELETE(path+"/:id", t.remove)
	}
}

func (s *Server) handleCSRFCookie(c echo.Context) error {
	if _, err := c.Cookie(sessionCookie); err != nil {
		s.setSession(c, s.newSession(false))
	}
	c.SetCookie(&http.Cookie{
		Name:  csrfCookie,
		Value: url.QueryEscape(uuid.NewString() + "="),
		Path:  "/",
	})
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) verifyCSRF(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		switch c.Request().Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return next(c)
		}

		cookie, err := c.Cookie(csrfCookie)
		if err != nil {
			return message(c, 419, "CSRF token mismatch.")
		}
		want, err := url.QueryUnescape(cookie.Value)
		if err != nil || want == "" || c.Request().Header.Get(csrfHeader) != want {
			return message(c, 419, "CSRF token mismatch.")
		}
		return next(c)
	}
}

func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(sessionCookie)
		if err != nil || !s.authenticated(cookie.Value) {
			return message(c, http.StatusUnauthorized, "Unauthenticated.")
		}
		return next(c)
	}
}

func (s *Server) handleLogin(c echo.Context) error {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&creds); err != nil {
		return message(c, http.StatusBadRequest, "Malformed request.")
	}

	s.mu.Lock()
	admin := s.admin
	s.mu.Unlock()

	if !strings.EqualFold(creds.Email, admin.Email) || creds.Password != admin.Password {
		slog.Debug("dev backend rejected login", "email", creds.Email)
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"message": "These credentials do not match our records.",
			"errors":  map[string][]string{"email": {"These credentials do not match our records."}},
		})
	}

	// Regenerate the session on login, like the real backend
	if old, err := c.Cookie(sessionCookie); err == nil {
		s.endSession(old.Value)
	}
	s.setSession(c, s.newSession(true))

	return c.JSON(http.StatusOK, map[string]any{"data": map[string]any{"user": admin}})
}

func (s *Server) handleMe(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]any{"data": s.admin})
}

func (s *Server) handleUpdateProfile(c echo.Context) error {
	var update struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Avatar   string `json:"avatar"`
		Password string `json:"password"`
	}
	if err := c.Bind(&update); err != nil {
		return message(c, http.StatusBadRequest, "Malformed request.")
	}

	problems := map[string][]string{}
	if strings.TrimSpace(update.Name) == "" {
		problems["name"] = []string{"The name field is required."}
	}
	if !strings.Contains(update.Email, "@") {
		problems["email"] = []string{"The email field must be a valid email address."}
	}
	if update.Password != "" && len(update.Password) < 8 {
		problems["password"] = []string{"The password field must be at least 8 characters."}
	}
	if len(problems) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"message": "The given data was invalid.",
			"errors":  problems,
		})
	}

	s.mu.Lock()
	s.admin.Name = update.Name
	s.admin.Email = update.Email
	s.admin.Phone = update.Phone
	s.admin.Avatar = update.Avatar
	if update.Password != "" {
		s.admin.Password = update.Password
	}
	admin := s.admin
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]any{"message": "Profile updated.", "data": admin})
}

func (s *Server) handleLogout(c echo.Context) error {
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		s.endSession(cookie.Value)
	}
	c.SetCookie(&http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) newSession(authenticated bool) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = authenticated
	s.mu.Unlock()
	return id
}

func (s *Server) endSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Server) authenticated(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

func (s *Server) setSession(c echo.Context, id string) {
	c.SetCookie(&http.Cookie{Name: sessionCookie, Value: id, Path: "/", HttpOnly: true})
}

func (s *Server) insert(key string, rec map[string]any) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now().UTC().Format(time.RFC3339)
	rec["id"] = s.nextID
	rec["created_at"] = stamp
	rec["updated_at"] = stamp
	s.nextID++
	s.tables[key] = append(s.tables[key], rec)
	return rec
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"message": msg})
}

// table serves CRUD for one resource path.
type table struct {
	server *Server
	key    string
}

func (t *table) list(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	search := strings.ToLower(c.QueryParam("search"))

	t.server.mu.Lock()
	rows := make([]map[string]any, 0, len(t.server.tables[t.key]))
	for _, rec := range t.server.tables[t.key] {
		if search == "" || matches(rec, search) {
			rows = append(rows, rec)
		}
	}
	t.server.mu.Unlock()

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i]["id"].(int) > rows[j]["id"].(int)
	})

	total := len(rows)
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)

	return c.JSON(http.StatusOK, map[string]any{
		"data": map[string]any{
			"data":         rows[start:end],
			"total":        total,
			"current_page": page,
			"per_page":     perPage,
		},
	})
}

func (t *table) create(c echo.Context) error {
	var rec map[string]any
	if err := c.Bind(&rec); err != nil {
		return message(c, http.StatusBadRequest, "Malformed request.")
	}
	delete(rec, "id")

	created := t.server.insert(t.key, rec)
	return c.JSON(http.StatusCreated, map[string]any{"message": "Created.", "data": created})
}

func (t *table) get(c echo.Context) error {
	t.server.mu.Lock()
	defer t.server.mu.Unlock()

	_, rec := t.find(c.Param("id"))
	if rec == nil {
		return message(c, http.StatusNotFound, "Record not found.")
	}
	return c.JSON(http.StatusOK, map[string]any{"data": rec})
}

func (t *table) update(c echo.Context) error {
	var changes map[string]any
	if err := c.Bind(&changes); err != nil {
		return message(c, http.StatusBadRequest, "Malformed request.")
	}

	t.server.mu.Lock()
	defer t.server.mu.Unlock()

	_, rec := t.find(c.Param("id"))
	if rec == nil {
		return message(c, http.StatusNotFound, "Record not found.")
	}
	for k, v := range changes {
		if k == "id" || k == "created_at" {
			continue
		}
		rec[k] = v
	}
	rec["updated_at"] = t.server.now().UTC().Format(time.RFC3339)

	return c.JSON(http.StatusOK, map[string]any{"message": "Updated.", "data": rec})
}

func (t *table) remove(c echo.Context) error {
	t.server.mu.Lock()
	defer t.server.mu.Unlock()

	i, rec := t.find(c.Param("id"))
	if rec == nil {
		return message(c, http.StatusNotFound, "Record not found.")
	}
	rows := t.server.tables[t.key]
	t.server.tables[t.key] = append(rows[:i], rows[i+1:]...)
	return c.NoContent(http.StatusNoContent)
}

// find must be called with the server lock held.
func (t *table) find(id string) (int, map[string]any) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return -1, nil
	}
	for i, rec := range t.server.tables[t.key] {
		if rec["id"] == n {
			return i, rec
		}
	}
	return -1, nil
}

func matches(rec map[string]any, needle string) bool {
	for _, v := range rec {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}
