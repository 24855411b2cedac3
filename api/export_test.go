package api

import (
	"context"
	"net/http"

	"github.com/agrinos/plantclassifier/session"
)

// GetForTest issues an authenticated GET of path and discards the body.
func GetForTest(ctx context.Context, c *Client, path string) error {
	return c.do(ctx, &request{method: http.MethodGet, path: path}, nil)
}

func RenewForTest(ctx context.Context, c *Client, stale session.Credentials) (session.Credentials, error) {
	return c.renew(ctx, stale)
}

func HTTPClientForTest(c *Client) *http.Client {
	return c.httpClient
}
