package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/loganlanou/course-admin/internal/backend"
)

// Doer is the part of backend.Client the repository needs.
type Doer interface {
	Do(ctx context.Context, jar *backend.Jar, method, path string, body any) (*backend.Response, error)
}

// Record is one backend row. Numbers are kept as json.Number.
type Record map[string]any

// ID returns the record's identifier as a string, or "".
func (r Record) ID() string {
	return r.String("id")
}

// String formats a field for display or form prefill.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Bool reads a flag the backend may send as bool, 0/1 or "true".
func (r Record) Bool(field string) bool {
	switch t := r[field].(type) {
	case bool:
		return t
	case json.Number:
		return t.String() != "0"
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		b, _ := strconv.ParseBool(t)
		return b || t == "1"
	}
	return false
}

// Page is one listing response.
type Page struct {
	Records []Record
	Total   int
}

// Repository reads and writes dashboard records through the relay.
type Repository struct {
	client Doer
}

func NewRepository(client Doer) *Repository {
	return &Repository{client: client}
}

// List fetches a resource's records. Both plain arrays and paginator objects
// ({"data":[...],"total":n}) are accepted inside the envelope.
func (r *Repository) List(ctx context.Context, jar *backend.Jar, res Resource, query url.Values) (*Page, error) {
	path := res.Path
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	resp, err := r.client.Do(ctx, jar, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var data json.RawMessage
	if err := resp.DecodeData(&data); err != nil {
		return nil, err
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var records []Record
		if err := decodeNumbers(data, &records); err != nil {
			return nil, &backend.UnexpectedError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("malformed list: %v", err)}
		}
		return &Page{Records: records, Total: len(records)}, nil
	}

	var paged struct {
		Data  []Record `json:"data"`
		Total *int     `json:"total"`
	}
	if err := decodeNumbers(data, &paged); err != nil {
		return nil, &backend.UnexpectedError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("malformed page: %v", err)}
	}
	page := &Page{Records: paged.Data, Total: len(paged.Data)}
	if paged.Total != nil {
		page.Total = *paged.Total
	}
	return page, nil
}

// Count returns the number of records the backend reports for a resource.
func (r *Repository) Count(ctx context.Context, jar *backend.Jar, res Resource) (int, error) {
	page, err := r.List(ctx, jar, res, nil)
	if err != nil {
		return 0, err
	}
	return page.Total, nil
}

func (r *Repository) Get(ctx context.Context, jar *backend.Jar, res Resource, id string) (Record, error) {
	resp, err := r.client.Do(ctx, jar, http.MethodGet, itemPath(res, id), nil)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return decodeRecord(resp)
}

// Save creates the record when id is empty and updates it otherwise. The id
// returned by the backend, when present, replaces the one passed in so the
// next save of the same form becomes an update.
func (r *Repository) Save(ctx context.Context, jar *backend.Jar, res Resource, id string, rec Record) (string, error) {
	method, path, payload := http.MethodPost, res.Path, rec
	if id != "" {
		method, path, payload = http.MethodPut, itemPath(res, id), withCleared(res, rec)
	}

	resp, err := r.client.Do(ctx, jar, method, path, payload)
	if err != nil {
		return id, err
	}
	if err := resp.Err(); err != nil {
		return id, err
	}

	saved, err := decodeRecord(resp)
	if err != nil {
		slog.Debug("save response carried no record", "resource", res.Key, "error", err)
		return id, nil
	}
	if newID := saved.ID(); newID != "" {
		return newID, nil
	}
	return id, nil
}

func (r *Repository) Delete(ctx context.Context, jar *backend.Jar, res Resource, id string) error {
	resp, err := r.client.Do(ctx, jar, http.MethodDelete, itemPath(res, id), nil)
	if err != nil {
		return err
	}
	return resp.Err()
}

// withCleared sends fields left blank on an edit as null so the backend
// drops the stored value instead of keeping it.
func withCleared(res Resource, rec Record) Record {
	out := make(Record, len(res.Fields))
	for _, f := range res.Fields {
		out[f.Name] = nil
	}
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func itemPath(res Resource, id string) string {
	return res.Path + "/" + url.PathEscape(id)
}

func decodeRecord(resp *backend.Response) (Record, error) {
	var data json.RawMessage
	if err := resp.DecodeData(&data); err != nil {
		return nil, err
	}
	var rec Record
	if err := decodeNumbers(data, &rec); err != nil {
		return nil, &backend.UnexpectedError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("malformed record: %v", err)}
	}
	return rec, nil
}

func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
