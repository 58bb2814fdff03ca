package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/loganlanou/course-admin/internal/backend"
	"github.com/loganlanou/course-admin/internal/session"
)

const testSessionSecret = "0123456789abcdef0123456789abcdef"

// NewTestContext creates a new Echo context for testing. Body may be nil,
// url.Values (sent as a form) or anything JSON-encodable.
func NewTestContext(method, path string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := NewTestRequest(method, path, body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(path)

	return c, rec
}

// NewTestRequest builds a request the same way NewTestContext does.
func NewTestRequest(method, path string, body interface{}) *http.Request {
	switch b := body.(type) {
	case nil:
		return httptest.NewRequest(method, path, nil)
	case url.Values:
		req := httptest.NewRequest(method, path, strings.NewReader(b.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		return req
	default:
		jsonBody, _ := json.Marshal(b)
		req := httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		return req
	}
}

// NewTestEcho wires the handler routes against a backend at backendURL,
// without CSRF protection or the guard.
func NewTestEcho(backendURL string) *echo.Echo {
	h := New(backend.NewClient(backend.Options{BaseURL: backendURL}))
	sessions := session.NewManager(session.Options{Secret: testSessionSecret}, session.NewMemoryStore(0))

	e := echo.New()
	e.Use(sessions.Middleware())

	e.GET("/", h.HandleLoginPage)
	e.POST("/login", h.HandleLogin)
	e.POST("/logout", h.HandleLogout)
	e.GET("/api/auth/check", h.HandleAuthCheck)
	e.Any("/api/backend/*", h.HandleBackendProxy)

	g := e.Group("/dashboard")
	g.GET("", h.HandleDashboard)
	g.GET("/profile", h.HandleProfile)
	g.POST("/profile", h.HandleProfileUpdate)
	g.GET("/:resource", h.HandleResourceList)
	g.GET("/:resource/new", h.HandleResourceNew)
	g.GET("/:resource/:id/edit", h.HandleResourceEdit)
	g.POST("/:resource/save", h.HandleResourceSave)
	g.POST("/:resource/:id/delete", h.HandleResourceDelete)

	return e
}

// AssertJSONResponse checks if the response is valid JSON and returns the parsed body
func AssertJSONResponse(rec *httptest.ResponseRecorder) (map[string]interface{}, error) {
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
