package service

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

// setupTestBackend starts a fake course platform. The CSRF cookie endpoint is
// always present; api handles everything under /api/.
func setupTestBackend(t *testing.T, api http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/sanctum/csrf-cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "tok", Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/", api)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// defaultBackend answers like a backend with no logged-in admin, except that
// listings succeed.
func defaultBackend(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/admin/me":
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
	case "/api/admin/login":
		_, _ = w.Write([]byte(`{"data":{"user":{"id":1,"name":"Test Admin","email":"admin@example.com"}}}`))
	default:
		_, _ = w.Write([]byte(`{"data":[]}`))
	}
}

func testConfig(backendURL string) *Config {
	config := &Config{Environment: "test", Port: "8080"}
	config.Backend.URL = backendURL
	config.Session.Secret = "0123456789abcdef0123456789abcdef"
	config.Session.CookieNames = []string{"laravel_session"}
	config.Guard.Strategy = StrategyCookie
	config.Guard.Protected = []string{"/dashboard"}
	config.Guard.Public = []string{"/", "/login", "/public/", "/health"}
	config.Guard.LoginPath = "/"
	return config
}

// setupTestEcho creates an Echo instance with routes registered
func setupTestEcho(t *testing.T) (*echo.Echo, *Service) {
	t.Helper()
	return setupTestEchoWithConfig(t, testConfig(setupTestBackend(t, defaultBackend).URL))
}

func setupTestEchoWithConfig(t *testing.T, config *Config) (*echo.Echo, *Service) {
	t.Helper()

	e := echo.New()

	svc, err := New(config)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	svc.RegisterRoutes(e)

	return e, svc
}

// browser keeps cookies between requests made against e.
type browser struct {
	t       *testing.T
	e       *echo.Echo
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, e *echo.Echo) *browser {
	return &browser{t: t, e: e, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()

	for _, ck := range b.cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}
	rec := httptest.NewRecorder()
	b.e.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(b.cookies, ck.Name)
			continue
		}
		b.cookies[ck.Name] = ck
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// post submits a form with the CSRF token from the _csrf cookie.
func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	if ck, ok := b.cookies["_csrf"]; ok {
		form.Set("_csrf", ck.Value)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return b.do(req)
}
