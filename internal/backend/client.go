package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPIPrefix = "/api"
	defaultCSRFPath  = "/sanctum/csrf-cookie"
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	APIPrefix string
	CSRFPath  string
	// Timeout of zero leaves the transport default in place (no deadline).
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client relays dashboard calls to the course-platform backend, attaching the
// browser's session cookies and the CSRF token header.
type Client struct {
	baseURL    string
	apiPrefix  string
	csrfPath   string
	httpClient *http.Client
}

func NewClient(opts Options) *Client {
	apiPrefix := opts.APIPrefix
	if apiPrefix == "" {
		apiPrefix = defaultAPIPrefix
	}
	csrfPath := opts.CSRFPath
	if csrfPath == "" {
		csrfPath = defaultCSRFPath
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		apiPrefix:  "/" + strings.Trim(apiPrefix, "/"),
		csrfPath:   "/" + strings.TrimPrefix(csrfPath, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) GetBaseURL() string {
	return c.baseURL
}

// Request describes one relayed call. Path is relative to the API prefix.
// Body is JSON-encoded; RawBody is sent as-is with ContentType.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        any
	RawBody     []byte
	ContentType string

	// anonymous calls are made without a session to lose
	anonymous bool
}

// Response is the backend's answer, passed through untouched.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do sends method+path with an optional JSON body.
func (c *Client) Do(ctx context.Context, jar *Jar, method, path string, body any) (*Response, error) {
	return c.Send(ctx, jar, Request{Method: method, Path: path, Body: body})
}

// Send relays req to the backend. State-changing methods get a CSRF token,
// bootstrapping one first when the jar has none. The returned error is only
// set when no response was obtained; any status code comes back as a
// Response for the caller to classify with Err.
func (c *Client) Send(ctx context.Context, jar *Jar, req Request) (*Response, error) {
	var payload []byte
	contentType := req.ContentType
	switch {
	case req.RawBody != nil:
		payload = req.RawBody
	case req.Body != nil:
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		payload = b
		contentType = "application/json"
	}

	var csrfToken string
	if isStateChanging(req.Method) {
		token, err := c.ensureCSRF(ctx, jar)
		if err != nil {
			return nil, err
		}
		csrfToken = token
	}

	target := c.baseURL + c.apiPrefix + "/" + strings.TrimPrefix(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	resp, err := c.roundTrip(ctx, jar, req.Method, target, payload, contentType, csrfToken)
	if err != nil {
		slog.Warn("backend call failed", "method", req.Method, "path", req.Path, "error", err)
		return nil, err
	}

	slog.Debug("backend call", "method", req.Method, "path", req.Path, "status", resp.StatusCode)

	// A 401 on a login attempt means bad credentials, not a lost session.
	if resp.StatusCode == http.StatusUnauthorized && !req.anonymous {
		jar.sessionExpired(ctx)
	}

	return resp, nil
}

// ensureCSRF returns the jar's CSRF token, fetching it once if missing.
func (c *Client) ensureCSRF(ctx context.Context, jar *Jar) (string, error) {
	jar.csrfMu.Lock()
	defer jar.csrfMu.Unlock()

	if token := jar.CSRFToken(); token != "" {
		return token, nil
	}

	resp, err := c.roundTrip(ctx, jar, http.MethodGet, c.baseURL+c.csrfPath, nil, "", "")
	if err != nil {
		slog.Warn("csrf bootstrap failed", "error", err)
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UnexpectedError{StatusCode: resp.StatusCode, Detail: "could not obtain CSRF token"}
	}

	token := jar.CSRFToken()
	if token == "" {
		return "", &UnexpectedError{StatusCode: resp.StatusCode, Detail: "backend did not issue a CSRF token"}
	}

	slog.Debug("csrf token bootstrapped")
	return token, nil
}

func (c *Client) roundTrip(ctx context.Context, jar *Jar, method, target string, payload []byte, contentType, csrfToken string) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if payload != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if csrfToken != "" {
		req.Header.Set(CSRFHeader, csrfToken)
	}
	if cookies := jar.header(); cookies != "" {
		req.Header.Set("Cookie", cookies)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUnreachable, err)
	}

	jar.store(resp.Cookies())

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

func isStateChanging(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
