package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/agrinos/plantclassifier/session"
)

const maxErrorBody = 1 << 20

// request is one logical call. The body is held as bytes so a replay after a
// refresh sends exactly what the first attempt sent.
type request struct {
	method      string
	path        string
	body        []byte
	contentType string
	multipart   bool
	header      http.Header

	// credentials bypasses the store. Such a request never refreshes.
	credentials *session.Credentials
}

func newJSONRequest(method, path string, payload any) (*request, error) {
	req := &request{method: method, path: path}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		req.body = data
	}
	return req, nil
}

// do runs the pipeline: send, and on a 401 with a refresh token available,
// refresh once and replay once. The replay's outcome is final.
func (c *Client) do(ctx context.Context, req *request, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var creds *session.Credentials
	refreshable := false
	if req.credentials != nil {
		creds = req.credentials
	} else if s, ok := c.store.Read(ctx); ok {
		creds = &s.Credentials
		refreshable = true
	}

	resp, err := c.send(ctx, req, creds)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusUnauthorized || !refreshable || !creds.HasRefreshToken() {
		return c.handleResponse(resp, out)
	}
	discard(resp)

	fresh, err := c.renew(ctx, *creds)
	if err != nil {
		return err
	}
	c.log.Debug().Str("method", req.method).Str("path", req.path).Msg("replaying request with refreshed credentials")

	resp, err = c.send(ctx, req, &fresh)
	if err != nil {
		return err
	}
	return c.handleResponse(resp, out)
}

func (c *Client) send(ctx context.Context, req *request, creds *session.Credentials) (*http.Response, error) {
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return nil, failed(0, fmt.Sprintf("create request: %v", err), err)
	}
	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	if req.multipart {
		httpReq.Header.Del("Content-Type")
		httpReq.Header.Set("Content-Type", req.contentType)
	} else if httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if creds != nil && strings.TrimSpace(creds.AccessToken) != "" {
		httpReq.Header.Set("Authorization", "Bearer "+strings.TrimSpace(creds.AccessToken))
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observeRequest(req.method, 0)
		c.log.Debug().Err(err).Str("method", req.method).Str("path", req.path).Msg("request transport failure")
		return nil, failed(0, err.Error(), err)
	}
	c.metrics.observeRequest(req.method, resp.StatusCode)
	return resp, nil
}

func (c *Client) handleResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		message := string(data)
		if strings.TrimSpace(message) == "" {
			message = genericFailureMessage
		}
		c.log.Debug().Int("status", resp.StatusCode).Msg("request failed")
		return failed(resp.StatusCode, message, nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return failed(resp.StatusCode, fmt.Sprintf("read response: %v", err), err)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return failed(resp.StatusCode, fmt.Sprintf("decode response: %v", err), err)
	}
	return nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}
