package api

import (
	"context"
	"net/http"

	"github.com/agrinos/plantclassifier/session"
	"github.com/agrinos/plantclassifier/users"
)

// SignInRequest is the manual sign-in / sign-up payload.
type SignInRequest struct {
	Email string     `json:"email"`
	Name  string     `json:"name,omitempty"`
	Role  users.Role `json:"role"`
}

type SignInResponse struct {
	User   session.User        `json:"user"`
	Tokens session.Credentials `json:"tokens"`
}

// Session converts the response into the record to persist.
func (r *SignInResponse) Session() *session.Session {
	return &session.Session{User: r.User, Credentials: r.Tokens}
}

// SignIn exchanges an identity for a user record and a credential pair. The
// same endpoint serves sign-up. The result is not persisted here.
func (c *Client) SignIn(ctx context.Context, in SignInRequest) (*SignInResponse, error) {
	req, err := newJSONRequest(http.MethodPost, PathSignIn, in)
	if err != nil {
		return nil, err
	}
	var resp SignInResponse
	if err := c.do(ctx, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SignOut notifies the backend. The response body is ignored.
func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, &request{method: http.MethodPost, path: PathSignOut}, nil)
}

// Me fetches the identity behind the stored session.
func (c *Client) Me(ctx context.Context) (*session.User, error) {
	var user session.User
	if err := c.do(ctx, &request{method: http.MethodGet, path: PathMe}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// MeWithCredentials fetches the identity behind creds without reading or
// writing the store. A 401 is returned as is, never refreshed.
func (c *Client) MeWithCredentials(ctx context.Context, creds session.Credentials) (*session.User, error) {
	var user session.User
	req := &request{method: http.MethodGet, path: PathMe, credentials: &creds}
	if err := c.do(ctx, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
