package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/agrinos/plantclassifier/session"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// renew returns credentials newer than stale. If another caller already
// replaced them in the store, those are used without a network exchange.
func (c *Client) renew(ctx context.Context, stale session.Credentials) (session.Credentials, error) {
	current, ok := c.store.Read(ctx)
	if !ok {
		return session.Credentials{}, ErrSessionExpired
	}
	if current.Credentials.AccessToken != stale.AccessToken && current.Credentials.AccessToken != "" {
		c.metrics.observeRefresh(refreshReused)
		return current.Credentials, nil
	}
	return c.refresh(ctx, stale.RefreshToken)
}

// refresh exchanges refreshToken for a new pair. Concurrent calls with the same
// token share one exchange; the exchange is not cancelled when one waiting
// caller gives up.
func (c *Client) refresh(ctx context.Context, refreshToken string) (session.Credentials, error) {
	ch := c.refreshes.DoChan(refreshToken, func() (any, error) {
		return c.exchange(context.WithoutCancel(ctx), refreshToken)
	})
	select {
	case <-ctx.Done():
		return session.Credentials{}, failed(0, ctx.Err().Error(), ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return session.Credentials{}, res.Err
		}
		return res.Val.(session.Credentials), nil
	}
}

// exchange performs the single refresh call and updates the store. On any
// failure the store is cleared, unless a newer session has replaced it.
func (c *Client) exchange(ctx context.Context, refreshToken string) (session.Credentials, error) {
	current, ok := c.store.Read(ctx)
	if !ok {
		c.metrics.observeRefresh(refreshFailure)
		return session.Credentials{}, ErrSessionExpired
	}
	if current.Credentials.RefreshToken != refreshToken {
		// Rotated by an exchange that finished before this one started.
		c.metrics.observeRefresh(refreshReused)
		return current.Credentials, nil
	}

	creds, err := c.postRefresh(ctx, refreshToken)

	c.storeMu.Lock()
	defer c.storeMu.Unlock()

	if err != nil {
		c.metrics.observeRefresh(refreshFailure)
		c.log.Warn().Err(err).Msg("credential refresh failed, clearing session")
		if latest, ok := c.store.Read(ctx); ok && latest.Credentials.RefreshToken == refreshToken {
			if clearErr := c.store.Clear(ctx); clearErr != nil {
				c.log.Error().Err(clearErr).Msg("failed to clear session after refresh failure")
			}
		}
		// The cause is kept as text only: a rejected refresh is never a RequestFailed.
		return session.Credentials{}, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	latest, ok := c.store.Read(ctx)
	if !ok {
		// Signed out while the exchange was in flight.
		c.metrics.observeRefresh(refreshFailure)
		return session.Credentials{}, ErrSessionExpired
	}
	if latest.Credentials.RefreshToken != refreshToken {
		// A new sign-in replaced the session meanwhile; it wins.
		c.metrics.observeRefresh(refreshReused)
		return latest.Credentials, nil
	}
	if err := c.store.Write(ctx, latest.WithCredentials(creds)); err != nil {
		c.metrics.observeRefresh(refreshFailure)
		return session.Credentials{}, fmt.Errorf("%w: persist refreshed session: %v", ErrSessionExpired, err)
	}
	c.metrics.observeRefresh(refreshSuccess)
	c.log.Debug().Str("user_id", latest.User.ID).Msg("credentials refreshed")
	return creds, nil
}

// ClearSession removes the stored session. It is serialised with the write
// that ends a refresh, so a refresh finishing after sign-out never restores
// the session.
func (c *Client) ClearSession(ctx context.Context) error {
	c.storeMu.Lock()
	defer c.storeMu.Unlock()
	return c.store.Clear(ctx)
}

func (c *Client) postRefresh(ctx context.Context, refreshToken string) (session.Credentials, error) {
	payload, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return session.Credentials{}, fmt.Errorf("encode refresh request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PathRefresh, bytes.NewReader(payload))
	if err != nil {
		return session.Credentials{}, fmt.Errorf("create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observeRequest(http.MethodPost, 0)
		return session.Credentials{}, fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.observeRequest(http.MethodPost, resp.StatusCode)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return session.Credentials{}, fmt.Errorf("read refresh response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return session.Credentials{}, failed(resp.StatusCode, strings.TrimSpace(string(data)), nil)
	}

	var creds session.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return session.Credentials{}, fmt.Errorf("decode refresh response: %w", err)
	}
	if creds.AccessToken == "" || creds.RefreshToken == "" {
		return session.Credentials{}, errors.New("refresh response missing tokens")
	}
	return creds, nil
}
