package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/loganlanou/course-admin/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method string
	path   string
	body   any
}

type fakeDoer struct {
	calls     []call
	responses []*backend.Response
	err       error
}

func (f *fakeDoer) Do(_ context.Context, _ *backend.Jar, method, path string, body any) (*backend.Response, error) {
	f.calls = append(f.calls, call{method: method, path: path, body: body})
	if f.err != nil {
		return nil, f.err
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func jsonResponse(status int, body string) *backend.Response {
	return &backend.Response{StatusCode: status, Header: http.Header{}, Body: []byte(body)}
}

func mustResource(t *testing.T, key string) Resource {
	t.Helper()
	res, ok := Lookup(key)
	require.True(t, ok, "resource %s", key)
	return res
}

func TestSave_CreateThenUpdateAdoptsID(t *testing.T) {
	doer := &fakeDoer{responses: []*backend.Response{
		jsonResponse(http.StatusCreated, `{"data":{"id":41,"title":"Go"}}`),
		jsonResponse(http.StatusOK, `{"data":{"id":41,"title":"Go, again"}}`),
	}}
	repo := NewRepository(doer)
	courses := mustResource(t, "courses")
	jar := backend.NewJar(nil, nil)

	id, err := repo.Save(context.Background(), jar, courses, "", Record{"title": "Go"})
	require.NoError(t, err)
	assert.Equal(t, "41", id)

	id, err = repo.Save(context.Background(), jar, courses, id, Record{"title": "Go, again"})
	require.NoError(t, err)
	assert.Equal(t, "41", id)

	require.Len(t, doer.calls, 2)
	assert.Equal(t, http.MethodPost, doer.calls[0].method)
	assert.Equal(t, "/admin/courses", doer.calls[0].path)
	assert.Equal(t, http.MethodPut, doer.calls[1].method)
	assert.Equal(t, "/admin/courses/41", doer.calls[1].path)
}

func TestSave_UpdateSendsClearedFieldsAsNull(t *testing.T) {
	doer := &fakeDoer{responses: []*backend.Response{
		jsonResponse(http.StatusCreated, `{"data":{"id":5}}`),
		jsonResponse(http.StatusOK, `{"data":{"id":5}}`),
	}}
	repo := NewRepository(doer)
	courses := mustResource(t, "courses")

	rec, problems := FromForm(courses, url.Values{
		"title": {"Intro to Go"},
		"price": {"10"},
		"level": {"beginner"},
		"slug":  {""},
	})
	require.Nil(t, problems)

	_, err := repo.Save(context.Background(), backend.NewJar(nil, nil), courses, "", rec)
	require.NoError(t, err)
	_, err = repo.Save(context.Background(), backend.NewJar(nil, nil), courses, "5", rec)
	require.NoError(t, err)

	created, err := json.Marshal(doer.calls[0].body)
	require.NoError(t, err)
	assert.NotContains(t, string(created), `"slug"`, "create leaves blank fields to backend defaults")

	updated, err := json.Marshal(doer.calls[1].body)
	require.NoError(t, err)
	assert.Contains(t, string(updated), `"slug":null`)
	assert.Contains(t, string(updated), `"title":"Intro to Go"`)
	for _, f := range courses.Fields {
		assert.Contains(t, string(updated), `"`+f.Name+`":`)
	}
	_, touched := rec["slug"]
	assert.False(t, touched, "the caller's record is not modified")
}

func TestSave_KeepsIDWhenResponseHasNone(t *testing.T) {
	doer := &fakeDoer{responses: []*backend.Response{
		jsonResponse(http.StatusOK, `{"message":"Updated"}`),
	}}

	id, err := NewRepository(doer).Save(context.Background(), backend.NewJar(nil, nil), mustResource(t, "blogs"), "b-7", Record{"title": "x"})
	require.NoError(t, err)
	assert.Equal(t, "b-7", id)
}

func TestSave_ValidationErrorKeepsID(t *testing.T) {
	doer := &fakeDoer{responses: []*backend.Response{
		jsonResponse(http.StatusUnprocessableEntity, `{"message":"The slug has already been taken."}`),
	}}

	id, err := NewRepository(doer).Save(context.Background(), backend.NewJar(nil, nil), mustResource(t, "categories"), "", Record{"name": "Go"})
	require.Error(t, err)
	assert.Equal(t, "", id)
	assert.Equal(t, "The slug has already been taken.", backend.Message(err))
}

func TestList_ArrayAndPaginator(t *testing.T) {
	name := gofakeit.Name()
	doer := &fakeDoer{responses: []*backend.Response{
		jsonResponse(http.StatusOK, `{"data":[{"id":1,"name":"`+name+`"},{"id":2,"name":"b"}]}`),
		jsonResponse(http.StatusOK, `{"data":{"data":[{"id":3}],"total":57}}`),
	}}
	repo := NewRepository(doer)
	leads := mustResource(t, "leads")

	page, err := repo.List(context.Background(), backend.NewJar(nil, nil), leads, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, "1", page.Records[0].ID())
	assert.Equal(t, name, page.Records[0].String("name"))

	page, err = repo.List(context.Background(), backend.NewJar(nil, nil), leads, url.Values{"page": {"2"}})
	require.NoError(t, err)
	assert.Equal(t, 57, page.Total)
	assert.Equal(t, "/admin/leads?page=2", doer.calls[1].path)
}

func TestDelete(t *testing.T) {
	doer := &fakeDoer{responses: []*backend.Response{jsonResponse(http.StatusNoContent, ``)}}

	err := NewRepository(doer).Delete(context.Background(), backend.NewJar(nil, nil), mustResource(t, "seo"), "9")
	require.NoError(t, err)
	assert.Equal(t, call{method: http.MethodDelete, path: "/admin/seo/9"}, doer.calls[0])
}

func TestRepository_Unreachable(t *testing.T) {
	doer := &fakeDoer{err: backend.ErrUnreachable}

	_, err := NewRepository(doer).Get(context.Background(), backend.NewJar(nil, nil), mustResource(t, "courses"), "1")
	assert.ErrorIs(t, err, backend.ErrUnreachable)
}

func TestFromForm(t *testing.T) {
	courses := mustResource(t, "courses")

	rec, problems := FromForm(courses, url.Values{
		"title":        {"  Intro to Go  "},
		"price":        {"49.5"},
		"level":        {"beginner"},
		"thumbnail":    {"https://cdn.example.com/go.png"},
		"is_published": {"on"},
	})
	require.Nil(t, problems)
	assert.Equal(t, "Intro to Go", rec["title"])
	assert.Equal(t, json.Number("49.5"), rec["price"])
	assert.Equal(t, true, rec["is_published"])
	_, hasSlug := rec["slug"]
	assert.False(t, hasSlug, "blank optional fields are not sent")

	_, problems = FromForm(courses, url.Values{
		"price":     {"cheap"},
		"level":     {"expert"},
		"thumbnail": {"not a url"},
	})
	assert.Equal(t, "Title is required", problems["title"])
	assert.Equal(t, "Price must be a number", problems["price"])
	assert.Contains(t, problems["level"], "must be one of")
	assert.Equal(t, "Thumbnail URL must be a URL", problems["thumbnail"])
}

func TestFromForm_URLSchemes(t *testing.T) {
	courses := mustResource(t, "courses")

	tests := []struct {
		value string
		ok    bool
	}{
		{"https://cdn.example.com/go.png", true},
		{"http://example.com", true},
		{"/uploads/go.png", true},
		{"javascript:alert(1)", false},
		{"JavaScript:alert(1)", false},
		{"data:text/html;base64,PHNjcmlwdD4=", false},
		{"//evil.example.com/x.png", false},
		{"https:///nohost", false},
		{"ftp://example.com/file", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			_, problems := FromForm(courses, url.Values{
				"title":     {"Go"},
				"price":     {"1"},
				"level":     {"beginner"},
				"thumbnail": {tt.value},
			})
			if tt.ok {
				assert.Empty(t, problems["thumbnail"])
			} else {
				assert.Equal(t, "Thumbnail URL must be a URL", problems["thumbnail"])
			}
		})
	}
}

func TestRecordAccessors(t *testing.T) {
	rec := Record{"id": json.Number("12"), "active": json.Number("1"), "flag": "true", "nil": nil}
	assert.Equal(t, "12", rec.ID())
	assert.True(t, rec.Bool("active"))
	assert.True(t, rec.Bool("flag"))
	assert.False(t, rec.Bool("missing"))
	assert.Equal(t, "", rec.String("nil"))
}
