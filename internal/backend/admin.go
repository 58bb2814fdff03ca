package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ID is a backend identifier. The backend sends numbers for most tables and
// strings for a few, so both are accepted.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// User is the admin account as the backend reports it.
type User struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Picture returns whichever avatar field the backend filled in.
func (u *User) Picture() string {
	if u.AvatarURL != "" {
		return u.AvatarURL
	}
	return u.Avatar
}

// Credentials is the login form payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember,omitempty"`
}

// ProfileUpdate is the payload for POST /admin/update.
type ProfileUpdate struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Password string `json:"password,omitempty"`
}

// Login posts credentials. The CSRF bootstrap happens inside Send. A rejected
// login never counts as an expired session.
func (c *Client) Login(ctx context.Context, jar *Jar, creds Credentials) (*User, error) {
	resp, err := c.Send(ctx, jar, Request{Method: http.MethodPost, Path: "/admin/login", Body: creds, anonymous: true})
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return decodeUser(resp)
}

func (c *Client) Logout(ctx context.Context, jar *Jar) error {
	resp, err := c.Do(ctx, jar, http.MethodPost, "/admin/logout", nil)
	if err != nil {
		return err
	}
	return resp.Err()
}

// CheckAuth asks the backend who is logged in. It fails secure: anything
// other than a readable 2xx answer is reported as ErrUnauthenticated.
func (c *Client) CheckAuth(ctx context.Context, jar *Jar) (*User, error) {
	resp, err := c.Do(ctx, jar, http.MethodGet, "/admin/me", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if err := resp.Err(); err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	user, err := decodeUser(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return user, nil
}

func (c *Client) Profile(ctx context.Context, jar *Jar) (*User, error) {
	resp, err := c.Do(ctx, jar, http.MethodGet, "/admin/profile", nil)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return decodeUser(resp)
}

func (c *Client) UpdateProfile(ctx context.Context, jar *Jar, update ProfileUpdate) (*User, error) {
	resp, err := c.Do(ctx, jar, http.MethodPost, "/admin/update", update)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return decodeUser(resp)
}

// decodeUser accepts {"data":{"user":{...}}}, {"data":{...}} and {"user":{...}}.
func decodeUser(resp *Response) (*User, error) {
	var body struct {
		Data json.RawMessage `json:"data"`
		User *User           `json:"user"`
	}
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}

	if len(body.Data) > 0 && !bytes.Equal(body.Data, []byte("null")) {
		var wrapped struct {
			User *User `json:"user"`
		}
		if err := json.Unmarshal(body.Data, &wrapped); err == nil && wrapped.User != nil {
			return wrapped.User, nil
		}
		var user User
		if err := json.Unmarshal(body.Data, &user); err != nil {
			return nil, &UnexpectedError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("malformed user: %v", err)}
		}
		if user.ID != "" || strings.TrimSpace(user.Email) != "" {
			return &user, nil
		}
	}

	if body.User != nil {
		return body.User, nil
	}

	return nil, &UnexpectedError{StatusCode: resp.StatusCode, Detail: "response has no user"}
}
