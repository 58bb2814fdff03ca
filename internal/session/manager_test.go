package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(store OnceStore) *State {
	return &State{ID: gofakeit.UUID(), once: store}
}

func TestSessionExpired_AtMostOnceUnderConcurrency(t *testing.T) {
	st := newTestState(NewMemoryStore(time.Hour))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.SessionExpired(context.Background())
		}()
	}
	wg.Wait()

	notices := st.TakeNotices()
	require.Len(t, notices, 1)
	assert.Equal(t, KindError, notices[0].Kind)
	assert.Equal(t, "Your session has expired. Please log in again.", notices[0].Message)
	assert.True(t, st.ExpiredRaised())

	// Later requests in the same browsing session stay quiet.
	later := &State{ID: st.ID, once: st.once}
	later.SessionExpired(context.Background())
	assert.Empty(t, later.TakeNotices())
	assert.False(t, later.ExpiredRaised())
}

func TestSessionExpired_RotateAllowsNewNotice(t *testing.T) {
	st := newTestState(NewMemoryStore(time.Hour))

	st.SessionExpired(context.Background())
	require.Len(t, st.TakeNotices(), 1)

	st.Rotate()
	st.SessionExpired(context.Background())
	assert.Len(t, st.TakeNotices(), 1)
}

func TestMemoryStore_ExpiresMarks(t *testing.T) {
	store := NewMemoryStore(10 * time.Millisecond)
	ctx := context.Background()

	first, err := store.MarkOnce(ctx, "s1", "k")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.MarkOnce(ctx, "s1", "k")
	require.NoError(t, err)
	assert.False(t, again)

	other, err := store.MarkOnce(ctx, "s2", "k")
	require.NoError(t, err)
	assert.True(t, other)

	time.Sleep(20 * time.Millisecond)
	afterTTL, err := store.MarkOnce(ctx, "s1", "k")
	require.NoError(t, err)
	assert.True(t, afterTTL)
}

func TestRedisStore_MarkOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	st := newTestState(store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.SessionExpired(context.Background())
		}()
	}
	wg.Wait()

	assert.Len(t, st.TakeNotices(), 1)
	assert.True(t, mr.Exists("course-admin:once:"+st.ID+":"+expiredKey))

	mr.FastForward(2 * time.Minute)
	first, err := store.MarkOnce(context.Background(), st.ID, expiredKey)
	require.NoError(t, err)
	assert.True(t, first, "mark should expire with its TTL")
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	st := newTestState(NewRedisStore(redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1}), time.Minute))
	st.SessionExpired(context.Background())

	assert.Empty(t, st.TakeNotices())
}

func TestRemember_ReplacesOnlyOnChange(t *testing.T) {
	st := newTestState(NewMemoryStore(0))

	assert.True(t, st.Remember(UserData{Name: "Ada", AvatarURL: "/a.png"}))
	assert.False(t, st.Remember(UserData{Name: "Ada", AvatarURL: "/a.png"}))
	assert.True(t, st.Remember(UserData{Name: "Ada", AvatarURL: "/b.png"}))
	assert.Equal(t, "/b.png", st.User().AvatarURL)

	st.Forget()
	assert.Nil(t, st.User())
}

func TestMiddleware_PersistsStateAcrossRequests(t *testing.T) {
	mgr := NewManager(Options{Secret: "0123456789abcdef0123456789abcdef"}, nil)

	e := echo.New()
	e.Use(mgr.Middleware())

	var firstID string
	e.GET("/set", func(c echo.Context) error {
		st, ok := FromContext(c)
		require.True(t, ok)
		firstID = st.ID
		st.Remember(UserData{Name: "Ada", AvatarURL: "/ada.png"})
		st.Flash(KindSuccess, "Saved")
		return c.Redirect(http.StatusSeeOther, "/get")
	})

	var (
		secondID string
		user     *UserData
		notices  []Notice
	)
	e.GET("/get", func(c echo.Context) error {
		st, _ := FromContext(c)
		secondID = st.ID
		user = st.User()
		notices = st.TakeNotices()
		return c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/set", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, firstID, secondID)
	require.NotNil(t, user)
	assert.Equal(t, "/ada.png", user.AvatarURL)
	assert.Equal(t, []Notice{{Kind: KindSuccess, Message: "Saved"}}, notices)
}

func TestNewManager_NoticeMarksLastAsLongAsTheSession(t *testing.T) {
	mgr := NewManager(Options{Secret: "0123456789abcdef0123456789abcdef"}, nil)
	store, ok := mgr.once.(*MemoryStore)
	require.True(t, ok)
	assert.Equal(t, DefaultMaxAge, store.ttl)
	assert.Equal(t, int(DefaultMaxAge.Seconds()), mgr.store.(*sessions.CookieStore).Options.MaxAge)

	short := NewManager(Options{Secret: "0123456789abcdef0123456789abcdef", MaxAge: 2 * time.Hour}, nil)
	assert.Equal(t, 2*time.Hour, short.once.(*MemoryStore).ttl)
	assert.Equal(t, 7200, short.store.(*sessions.CookieStore).Options.MaxAge)

	assert.Equal(t, DefaultMaxAge, NewRedisStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), 0).ttl)
}
