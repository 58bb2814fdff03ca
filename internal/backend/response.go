package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

type envelope struct {
	Data    json.RawMessage     `json:"data"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ContentType returns the backend's Content-Type header.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Err classifies the response into the relay error taxonomy. 2xx is nil.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}

	if r.StatusCode == http.StatusUnauthorized {
		return ErrUnauthenticated
	}

	env, decodeErr := r.envelope()

	if r.StatusCode >= 400 && r.StatusCode < 500 {
		verr := &ValidationError{StatusCode: r.StatusCode, Message: fallbackMessage}
		if decodeErr == nil {
			if env.Message != "" {
				verr.Message = env.Message
			}
			verr.Fields = env.Errors
		}
		return verr
	}

	uerr := &UnexpectedError{StatusCode: r.StatusCode}
	if decodeErr == nil {
		uerr.Message = env.Message
	}
	return uerr
}

// Message returns the envelope's message field, if any.
func (r *Response) Message() string {
	env, err := r.envelope()
	if err != nil {
		return ""
	}
	return env.Message
}

// Decode unmarshals the whole body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &UnexpectedError{StatusCode: r.StatusCode, Detail: fmt.Sprintf("malformed response: %v", err)}
	}
	return nil
}

// DecodeData unmarshals the envelope's data field into v.
func (r *Response) DecodeData(v any) error {
	env, err := r.envelope()
	if err != nil {
		return err
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return &UnexpectedError{StatusCode: r.StatusCode, Detail: "response has no data"}
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return &UnexpectedError{StatusCode: r.StatusCode, Detail: fmt.Sprintf("malformed data: %v", err)}
	}
	return nil
}

func (r *Response) envelope() (envelope, error) {
	var env envelope
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return env, &UnexpectedError{StatusCode: r.StatusCode, Detail: "empty response"}
	}
	if err := json.Unmarshal(r.Body, &env); err != nil {
		return env, &UnexpectedError{StatusCode: r.StatusCode, Detail: fmt.Sprintf("malformed response: %v", err)}
	}
	return env, nil
}
