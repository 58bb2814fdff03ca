package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	csrfHits  atomic.Int32
	lastToken atomic.Value
	server    *httptest.Server
}

func newFakeBackend(t *testing.T, api http.HandlerFunc) *fakeBackend {
	t.Helper()

	fb := &fakeBackend{}
	mux := http.NewServeMux()
	mux.HandleFunc("/sanctum/csrf-cookie", func(w http.ResponseWriter, r *http.Request) {
		fb.csrfHits.Add(1)
		http.SetCookie(w, &http.Cookie{Name: CSRFCookieName, Value: "tok%3D42", Path: "/", Domain: "backend.test"})
		http.SetCookie(w, &http.Cookie{Name: "laravel_session", Value: "sess-1", Path: "/", HttpOnly: true})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		fb.lastToken.Store(r.Header.Get(CSRFHeader))
		api(w, r)
	})
	fb.server = httptest.NewServer(mux)
	t.Cleanup(fb.server.Close)
	return fb
}

func (fb *fakeBackend) client() *Client {
	return NewClient(Options{BaseURL: fb.server.URL})
}

type countingNotifier struct {
	calls atomic.Int32
}

func (n *countingNotifier) SessionExpired(context.Context) {
	n.calls.Add(1)
}

func okJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestSend_BootstrapsCSRFOnceBeforeMutation(t *testing.T) {
	fb := newFakeBackend(t, okJSON(`{"data":{"id":7}}`))
	client := fb.client()
	jar := NewJar(nil, nil)
	ctx := context.Background()

	resp, err := client.Do(ctx, jar, http.MethodPost, "/admin/courses", map[string]string{"title": "Go"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), fb.csrfHits.Load())
	assert.Equal(t, "tok=42", fb.lastToken.Load(), "token should be URL-decoded into the header")

	_, err = client.Do(ctx, jar, http.MethodPut, "/admin/courses/7", map[string]string{"title": "Go 2"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), fb.csrfHits.Load(), "token should be reused from the jar")
}

func TestSend_ConcurrentMutationsShareOneBootstrap(t *testing.T) {
	fb := newFakeBackend(t, okJSON(`{"data":{}}`))
	client := fb.client()
	jar := NewJar(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Do(context.Background(), jar, http.MethodDelete, "/admin/leads/1", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fb.csrfHits.Load())
}

func TestSend_ReadsSkipBootstrap(t *testing.T) {
	fb := newFakeBackend(t, okJSON(`{"data":[]}`))
	jar := NewJar(nil, nil)

	_, err := fb.client().Do(context.Background(), jar, http.MethodGet, "/admin/courses", nil)
	require.NoError(t, err)

	assert.Equal(t, int32(0), fb.csrfHits.Load())
	assert.Equal(t, "", fb.lastToken.Load())
}

func TestSend_ExistingTokenCookieIsUsed(t *testing.T) {
	fb := newFakeBackend(t, okJSON(`{"data":{}}`))
	jar := NewJar([]*http.Cookie{
		{Name: CSRFCookieName, Value: "existing"},
		{Name: "laravel_session", Value: "abc"},
	}, nil)

	_, err := fb.client().Do(context.Background(), jar, http.MethodPost, "/admin/blogs", map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, int32(0), fb.csrfHits.Load())
	assert.Equal(t, "existing", fb.lastToken.Load())
}

func TestSend_ForwardsCookies(t *testing.T) {
	var gotSession atomic.Value
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("laravel_session"); err == nil {
			gotSession.Store(ck.Value)
		}
		okJSON(`{"data":{}}`)(w, r)
	})
	jar := NewJar([]*http.Cookie{{Name: "laravel_session", Value: "from-browser"}}, nil)

	_, err := fb.client().Do(context.Background(), jar, http.MethodGet, "/admin/me", nil)
	require.NoError(t, err)
	assert.Equal(t, "from-browser", gotSession.Load())
}

func TestSend_UnauthorizedNotifiesAndPassesThrough(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
	})
	notifier := &countingNotifier{}
	jar := NewJar(nil, notifier)

	resp, err := fb.client().Do(context.Background(), jar, http.MethodGet, "/admin/courses", nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, `{"message":"Unauthenticated."}`, string(resp.Body))
	assert.ErrorIs(t, resp.Err(), ErrUnauthenticated)
	assert.Equal(t, int32(1), notifier.calls.Load())
}

func TestSend_ServerErrorBodyUnmodified(t *testing.T) {
	fb := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>boom</html>"))
	})

	resp, err := fb.client().Do(context.Background(), NewJar(nil, nil), http.MethodGet, "/admin/blogs", nil)
	require.NoError(t, err)
	assert.Equal(t, "<html>boom</html>", string(resp.Body))

	var uerr *UnexpectedError
	require.ErrorAs(t, resp.Err(), &uerr)
	assert.Equal(t, http.StatusInternalServerError, uerr.StatusCode)
}

func TestSend_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := NewClient(Options{BaseURL: base})

	_, err := client.Do(context.Background(), NewJar(nil, nil), http.MethodGet, "/admin/courses", nil)
	assert.ErrorIs(t, err, ErrUnreachable)

	_, err = client.Do(context.Background(), NewJar(nil, nil), http.MethodPost, "/admin/courses", map[string]string{})
	assert.ErrorIs(t, err, ErrUnreachable, "failed bootstrap should stop the mutating call")
}

func TestSend_BootstrapWithoutTokenFails(t *testing.T) {
	var apiHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/sanctum/csrf-cookie", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		apiHits.Add(1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := NewClient(Options{BaseURL: srv.URL}).Do(context.Background(), NewJar(nil, nil), http.MethodPost, "/admin/login", nil)

	var uerr *UnexpectedError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, int32(0), apiHits.Load())
}

func TestResponseErr_Classification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		check   func(t *testing.T, err error)
		message string
	}{
		{
			name:   "success",
			status: http.StatusCreated,
			body:   `{"data":{}}`,
			check:  func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:    "unauthenticated",
			status:  http.StatusUnauthorized,
			body:    ``,
			check:   func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrUnauthenticated) },
			message: expiredMessage,
		},
		{
			name:   "validation with message",
			status: http.StatusUnprocessableEntity,
			body:   `{"message":"The title field is required.","errors":{"title":["The title field is required."]}}`,
			check: func(t *testing.T, err error) {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, []string{"The title field is required."}, verr.Fields["title"])
			},
			message: "The title field is required.",
		},
		{
			name:   "validation without body",
			status: http.StatusForbidden,
			body:   ``,
			check: func(t *testing.T, err error) {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
			},
			message: fallbackMessage,
		},
		{
			name:   "unexpected malformed",
			status: http.StatusBadGateway,
			body:   `not json`,
			check: func(t *testing.T, err error) {
				var uerr *UnexpectedError
				require.ErrorAs(t, err, &uerr)
			},
			message: fallbackMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &Response{StatusCode: tt.status, Header: http.Header{}, Body: []byte(tt.body)}
			err := resp.Err()
			tt.check(t, err)
			if tt.message != "" {
				assert.Equal(t, tt.message, Message(err))
			}
		})
	}
}

func TestMessage_HidesRelayDetail(t *testing.T) {
	resp := &Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: []byte(`<html>`)}

	var v map[string]any
	err := resp.DecodeData(&v)

	var uerr *UnexpectedError
	require.ErrorAs(t, err, &uerr)
	assert.Contains(t, uerr.Detail, "malformed response")
	assert.Empty(t, uerr.Message)
	assert.Equal(t, fallbackMessage, Message(err))

	_, err = decodeUser(&Response{StatusCode: http.StatusOK, Body: []byte(`{"data":null}`)})
	assert.Equal(t, fallbackMessage, Message(err))
}

func TestMessage_KeepsBackendMessageOnServerError(t *testing.T) {
	resp := &Response{StatusCode: http.StatusServiceUnavailable, Header: http.Header{}, Body: []byte(`{"message":"Down for maintenance."}`)}
	assert.Equal(t, "Down for maintenance.", Message(resp.Err()))
}

func TestMessage_Unreachable(t *testing.T) {
	assert.Equal(t, fallbackMessage, Message(errors.Join(ErrUnreachable, errors.New("dial tcp"))))
	assert.Equal(t, "", Message(nil))
}

func TestDecodeData(t *testing.T) {
	resp := &Response{StatusCode: http.StatusOK, Body: []byte(`{"data":{"id":3,"title":"Go"}}`)}

	var out struct {
		ID    ID     `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, resp.DecodeData(&out))
	assert.Equal(t, ID("3"), out.ID)
	assert.Equal(t, "Go", out.Title)

	empty := &Response{StatusCode: http.StatusOK, Body: []byte(`{"data":null}`)}
	assert.Error(t, empty.DecodeData(&out))
}
