package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/loganlanou/course-admin/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backendCall struct {
	Method string
	Path   string
	Token  string
	Body   string
}

// fakeBackend mimics the course platform: a CSRF cookie endpoint plus
// whatever API handler the test provides.
type fakeBackend struct {
	mu     sync.Mutex
	calls  []backendCall
	server *httptest.Server
}

func newFakeBackend(t *testing.T, api http.HandlerFunc) *fakeBackend {
	t.Helper()

	fb := &fakeBackend{}
	mux := http.NewServeMux()
	mux.HandleFunc("/sanctum/csrf-cookie", func(w http.ResponseWriter, r *http.Request) {
		fb.record(r, "")
		http.SetCookie(w, &http.Cookie{Name: backend.CSRFCookieName, Value: "tok%3D1", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "laravel_session", Value: "s1", Path: "/", HttpOnly: true})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fb.record(r, string(body))
		api(w, r)
	})
	fb.server = httptest.NewServer(mux)
	t.Cleanup(fb.server.Close)
	return fb
}

func (fb *fakeBackend) record(r *http.Request, body string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.calls = append(fb.calls, backendCall{
		Method: r.Method,
		Path:   r.URL.Path,
		Token:  r.Header.Get(backend.CSRFHeader),
		Body:   body,
	})
}

func (fb *fakeBackend) Calls() []backendCall {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]backendCall(nil), fb.calls...)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestHandleLogin_BootstrapsCSRFAndRedirects(t *testing.T) {
	name := gofakeit.Name()
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/admin/login" {
			http.NotFound(w, r)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "laravel_session", Value: "s2", Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, `{"data":{"user":{"id":5,"name":"`+name+`","email":"ada@example.com"}}}`)
	})
	e := NewTestEcho(fb.server.URL)

	form := url.Values{
		"email":    {"ada@example.com"},
		"password": {"secret"},
		"redirect": {"/dashboard/courses"},
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodPost, "/login", form))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard/courses", rec.Header().Get("Location"))

	calls := fb.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "/sanctum/csrf-cookie", calls[0].Path)
	assert.Equal(t, "/api/admin/login", calls[1].Path)
	assert.Equal(t, "tok=1", calls[1].Token)
	assert.Contains(t, calls[1].Body, `"email":"ada@example.com"`)

	cookies := rec.Result().Cookies()
	session := findCookie(cookies, "laravel_session")
	require.NotNil(t, session, "backend session cookie is relayed")
	assert.Equal(t, "s2", session.Value)
	assert.NotNil(t, findCookie(cookies, backend.CSRFCookieName))
	assert.NotNil(t, findCookie(cookies, "course_admin_ui"))
}

func TestHandleLogin_UnsafeRedirectFallsBackToDashboard(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":{"id":1,"name":"A","email":"a@example.com"}}`)
	})
	e := NewTestEcho(fb.server.URL)

	form := url.Values{"email": {"a@example.com"}, "password": {"x"}, "redirect": {"https://evil.example.com/"}}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodPost, "/login", form))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestHandleLogin_RejectedCredentials(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, `{"message":"These credentials do not match our records.","errors":{"email":["These credentials do not match our records."]}}`)
	})
	e := NewTestEcho(fb.server.URL)

	form := url.Values{"email": {"ada@example.com"}, "password": {"wrong"}}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodPost, "/login", form))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "These credentials do not match our records.")
	assert.Contains(t, rec.Body.String(), `value="ada@example.com"`)
}

func TestHandleLogin_UnauthorizedShowsNoExpiryToast(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
	})
	e := NewTestEcho(fb.server.URL)

	form := url.Values{"email": {"ada@example.com"}, "password": {"wrong"}}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodPost, "/login", form))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password.")
	assert.NotContains(t, rec.Body.String(), "Your session has expired")
}

func TestHandleAuthCheck_UnreachableIsUnauthenticated(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	e := NewTestEcho(dead.URL)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodGet, "/api/auth/check", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())
}

func TestHandleAuthCheck_BackendErrorIsUnauthenticated(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"message":"Server Error"}`)
	})
	e := NewTestEcho(fb.server.URL)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodGet, "/api/auth/check", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())
}

func TestHandleAuthCheck_Authenticated(t *testing.T) {
	email := gofakeit.Email()
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/me", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"data":{"id":"u-1","name":"Ada","email":"`+email+`"}}`)
	})
	e := NewTestEcho(fb.server.URL)

	req := NewTestRequest(http.MethodGet, "/api/auth/check", nil)
	req.AddCookie(&http.Cookie{Name: "laravel_session", Value: "s1"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := AssertJSONResponse(rec)
	require.NoError(t, err)
	assert.Equal(t, true, body["authenticated"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, email, user["email"])
}

func TestHandleBackendProxy_PassesErrorsThroughUnchanged(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"exception":"QueryException","trace":[]}`)
	})
	e := NewTestEcho(fb.server.URL)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodGet, "/api/backend/admin/courses?page=2", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"exception":"QueryException","trace":[]}`, rec.Body.String())
	assert.Empty(t, rec.Header().Get(NoticeHeader))
}

func TestHandleBackendProxy_RefusesOversizedBody(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":{}}`)
	})
	e := NewTestEcho(fb.server.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/backend/admin/courses", strings.NewReader(strings.Repeat("a", maxProxyBody+1)))
	req.Header.Set("Content-Type", "application/octet-stream")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"message":"Request body is too large."}`, rec.Body.String())
	assert.Empty(t, fb.Calls(), "nothing is forwarded")
}

func TestHandleBackendProxy_ForwardsBodyAtLimit(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":{}}`)
	})
	e := NewTestEcho(fb.server.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/backend/admin/courses", strings.NewReader(strings.Repeat("a", maxProxyBody)))
	req.Header.Set("Content-Type", "application/octet-stream")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	calls := fb.Calls()
	require.NotEmpty(t, calls)
	assert.Len(t, calls[len(calls)-1].Body, maxProxyBody)
}

func TestHandleBackendProxy_KeepsDashboardCookiesLocal(t *testing.T) {
	forwarded := make(chan string, 1)
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		forwarded <- r.Header.Get("Cookie")
		writeJSON(w, http.StatusOK, `{"data":[]}`)
	})
	e := NewTestEcho(fb.server.URL)

	req := NewTestRequest(http.MethodGet, "/api/backend/admin/courses", nil)
	req.AddCookie(&http.Cookie{Name: "laravel_session", Value: "s1"})
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "local-token"})
	req.AddCookie(&http.Cookie{Name: "course_admin_ui", Value: "opaque"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "laravel_session=s1", <-forwarded)
}

func TestHandleBackendProxy_ForwardsBodyWithCSRF(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		writeJSON(w, http.StatusCreated, `{"data":{"id":9}}`)
	})
	e := NewTestEcho(fb.server.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/backend/admin/blogs", strings.NewReader(`{"title":"Hello"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	calls := fb.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "/sanctum/csrf-cookie", calls[0].Path)
	assert.Equal(t, backendCall{Method: http.MethodPost, Path: "/api/admin/blogs", Token: "tok=1", Body: `{"title":"Hello"}`}, calls[1])
}

func TestHandleBackendProxy_SessionExpiredNoticeOnce(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"Unauthenticated."}`)
	})
	e := NewTestEcho(fb.server.URL)

	first := httptest.NewRecorder()
	e.ServeHTTP(first, NewTestRequest(http.MethodGet, "/api/backend/admin/leads", nil))

	assert.Equal(t, http.StatusUnauthorized, first.Code)
	assert.JSONEq(t, `{"message":"Unauthenticated."}`, first.Body.String())
	assert.Equal(t, "session-expired", first.Header().Get(NoticeHeader))

	ui := findCookie(first.Result().Cookies(), "course_admin_ui")
	require.NotNil(t, ui)

	for i := 0; i < 3; i++ {
		req := NewTestRequest(http.MethodGet, "/api/backend/admin/leads", nil)
		req.AddCookie(ui)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, rec.Header().Get(NoticeHeader), "request %d", i)
	}
}

func TestHandleBackendProxy_Unreachable(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	e := NewTestEcho(dead.URL)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodGet, "/api/backend/admin/courses", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"message":"Something went wrong. Please try again."}`, rec.Body.String())
}

func TestHandleDashboard_OneFailedCountDoesNotBlankOthers(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/admin/blogs" {
			writeJSON(w, http.StatusInternalServerError, `{"message":"boom"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"data":[{"id":1},{"id":2}]}`)
	})
	e := NewTestEcho(fb.server.URL)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, 3, strings.Count(body, `data-stat>2</p>`))
	assert.Equal(t, 1, strings.Count(body, `data-stat>—</p>`))
}

func TestHandleResourceSave_CreateThenUpdate(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/admin/courses":
			writeJSON(w, http.StatusCreated, `{"data":{"id":7,"title":"Intro to Go"}}`)
		case r.Method == http.MethodPut && r.URL.Path == "/api/admin/courses/7":
			writeJSON(w, http.StatusOK, `{"message":"Course updated"}`)
		default:
			http.NotFound(w, r)
		}
	})
	e := NewTestEcho(fb.server.URL)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodPost, "/dashboard/courses/save", url.Values{"title": {"Intro to Go"}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard/courses/7/edit", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodPost, "/dashboard/courses/save", url.Values{"id": {"7"}, "title": {"Intro to Go, 2nd ed."}}))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard/courses/7/edit", rec.Header().Get("Location"))

	var methods []string
	for _, c := range fb.Calls() {
		if strings.HasPrefix(c.Path, "/api/") {
			methods = append(methods, c.Method+" "+c.Path)
		}
	}
	assert.Equal(t, []string{"POST /api/admin/courses", "PUT /api/admin/courses/7"}, methods)
}

func TestHandleResourceSave_BackendValidationRendersForm(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, `{"message":"The given data was invalid.","errors":{"slug":["The slug has already been taken."]}}`)
	})
	e := NewTestEcho(fb.server.URL)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodPost, "/dashboard/courses/save", url.Values{"title": {"Go"}, "slug": {"go"}}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "The given data was invalid.")
	assert.Contains(t, rec.Body.String(), "The slug has already been taken.")
}

func TestHandleResourceSave_LocalProblemsSkipBackend(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend should not be called, got %s %s", r.Method, r.URL.Path)
	})
	e := NewTestEcho(fb.server.URL)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodPost, "/dashboard/courses/save", url.Values{}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Title is required")
	assert.Empty(t, fb.Calls())
}

func TestHandleResourceList_UnknownResource(t *testing.T) {
	e := NewTestEcho("http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodGet, "/dashboard/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleResourceList_RendersRecords(t *testing.T) {
	title := gofakeit.BookTitle()
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		payload, _ := json.Marshal(map[string]any{
			"data": map[string]any{
				"data":  []map[string]any{{"id": 3, "title": title}},
				"total": 31,
			},
		})
		writeJSON(w, http.StatusOK, string(payload))
	})
	e := NewTestEcho(fb.server.URL)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodGet, "/dashboard/courses?page=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "31 total")
}

func TestHandleLogout_ClearsProfileAndRedirects(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "laravel_session", Value: "", MaxAge: -1, Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	})
	e := NewTestEcho(fb.server.URL)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodPost, "/logout", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	cleared := findCookie(rec.Result().Cookies(), "laravel_session")
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestHandleProfile_ShowsBackendValues(t *testing.T) {
	email := gofakeit.Email()
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/profile", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"data":{"id":1,"name":"Ada","email":"`+email+`","avatar_url":"https://cdn.example.com/a.png"}}`)
	})
	e := NewTestEcho(fb.server.URL)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodGet, "/dashboard/profile", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="`+email+`"`)
	assert.Contains(t, body, `value="https://cdn.example.com/a.png"`)
}

func TestHandleProfileUpdate_PasswordMismatchSkipsBackend(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend should not be called, got %s %s", r.Method, r.URL.Path)
	})
	e := NewTestEcho(fb.server.URL)

	form := url.Values{
		"name":                  {"Ada"},
		"email":                 {"ada@example.com"},
		"password":              {"longenough1"},
		"password_confirmation": {"different"},
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodPost, "/dashboard/profile", form))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passwords do not match.")
	assert.Empty(t, fb.Calls())
}

func TestHandleProfileUpdate_FieldErrors(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, `{"message":"The given data was invalid.","errors":{"email":["The email has already been taken."]}}`)
	})
	e := NewTestEcho(fb.server.URL)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodPost, "/dashboard/profile", url.Values{"name": {"Ada"}, "email": {"taken@example.com"}}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "The email has already been taken.")
	assert.Contains(t, rec.Body.String(), `value="taken@example.com"`)
}

func TestHandleProfileUpdate_Success(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/update", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"message":"Profile updated.","data":{"id":1,"name":"Grace","email":"grace@example.com"}}`)
	})
	e := NewTestEcho(fb.server.URL)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, NewTestRequest(http.MethodPost, "/dashboard/profile", url.Values{"name": {"Grace"}, "email": {"grace@example.com"}}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard/profile", rec.Header().Get("Location"))
}
